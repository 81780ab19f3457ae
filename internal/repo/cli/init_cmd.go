package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imgrepo/imgrepo/internal/repo"
	"github.com/imgrepo/imgrepo/internal/storagemode"
)

func newInitCmd() *cobra.Command {
	var modeFlag string
	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "create a new repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			mode, err := storagemode.Parse(modeFlag)
			if err != nil {
				return err
			}
			r, err := repo.Init(args[0], mode, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "initialized %s repository at %s\n", r.Mode, r.Root)
			return nil
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "bare", "storage mode: bare or archive")
	return cmd
}
