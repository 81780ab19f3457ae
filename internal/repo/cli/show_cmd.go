package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/repo"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <repo-path> <commit-checksum>",
		Short: "decode and print a COMMIT object",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			repoPath, hex := args[0], args[1]

			r, err := repo.Open(repoPath)
			if err != nil {
				return err
			}
			csum, err := objects.ParseChecksum(hex)
			if err != nil {
				return err
			}

			path := filepath.Join(r.Root, "objects", csum.Prefix(), csum.Rest()+".commit")
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("show: %w", err)
			}
			commit, err := objects.DecodeCommit(raw)
			if err != nil {
				return fmt.Errorf("show: decode %s: %w", hex, err)
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "commit %s\n", csum.Hex())
			if commit.HasParent {
				fmt.Fprintf(out, "parent %s\n", commit.Parent.Hex())
			}
			fmt.Fprintf(out, "tree    %s\n", commit.RootTreeCsum.Hex())
			fmt.Fprintf(out, "meta    %s\n", commit.RootMetaCsum.Hex())
			fmt.Fprintf(out, "date    %s\n", time.Unix(int64(commit.EpochSeconds), 0).UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "\n%s\n", commit.Subject)
			if commit.Body != "" {
				fmt.Fprintf(out, "\n%s\n", commit.Body)
			}
			return nil
		},
	}
	return cmd
}
