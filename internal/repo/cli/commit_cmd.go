package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/repo"
)

func newCommitCmd() *cobra.Command {
	var branch, subject, body, parentHex string
	cmd := &cobra.Command{
		Use:   "commit <repo-path> <src-dir>",
		Short: "ingest a directory and write a commit bound to a branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			repoPath, srcDir := args[0], args[1]

			r, err := repo.Open(repoPath)
			if err != nil {
				return err
			}
			if err := r.ScanHardlinks(); err != nil {
				return err
			}
			if _, err := r.Prepare(); err != nil {
				return err
			}

			root, err := r.IngestDirectory(srcDir, nil)
			if err != nil {
				_ = r.Abort()
				return err
			}
			rootTree, err := r.WriteMtree(root)
			if err != nil {
				_ = r.Abort()
				return err
			}

			var parent *objects.Checksum
			if parentHex != "" {
				p, err := objects.ParseChecksum(parentHex)
				if err != nil {
					_ = r.Abort()
					return fmt.Errorf("parse --parent: %w", err)
				}
				parent = &p
			}

			commitCsum, err := r.WriteCommit(parent, subject, body, rootTree, root.MetaChecksum)
			if err != nil {
				_ = r.Abort()
				return err
			}
			if err := r.SetRef(nil, branch, &commitCsum); err != nil {
				_ = r.Abort()
				return err
			}

			stats, err := r.Commit()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s\n", commitCsum.Hex())
			fmt.Fprintf(c.ErrOrStderr(),
				"content: %d written / %d total (%d bytes); metadata: %d written / %d total\n",
				stats.ContentObjectsWritten, stats.ContentObjectsTotal, stats.ContentBytesWritten,
				stats.MetadataObjectsWritten, stats.MetadataObjectsTotal)
			return nil
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "main", "branch ref to update")
	cmd.Flags().StringVar(&subject, "subject", "", "commit subject")
	cmd.Flags().StringVar(&body, "body", "", "commit body")
	cmd.Flags().StringVar(&parentHex, "parent", "", "parent commit checksum (hex)")
	return cmd
}
