// Package cli is a thin cobra wrapper over internal/repo, kept intentionally
// minimal: spec.md §1 scopes "user-facing command-line parsing" out of the
// ingest core, so this package exists only as a debugging harness that
// exercises Prepare/IngestDirectory/WriteCommit/Commit end to end, mirroring
// the teacher's own cli.NewRoot().Execute() entrypoint shape.
package cli

import "github.com/spf13/cobra"

// NewRoot builds the imgrepo root command.
func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imgrepo",
		Short: "content-addressed filesystem image repository",
		RunE:  func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCommitCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newFsckLiteCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
