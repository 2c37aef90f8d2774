package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/dukerupert/listkeeper"

// Version is set at build time with -ldflags "-X".
var Version = "0.1.0-dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the listkeeper version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "listkeeper v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
