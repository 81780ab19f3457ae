package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/imgrepo/imgrepo/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "show version information",
		Run: func(c *cobra.Command, args []string) {
			out := c.OutOrStdout()
			fmt.Fprintf(out, "imgrepo version %s\n", buildinfo.GetVersion())
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
