package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/fiadb/pkg/fiadb"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display fiadb version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), fiadb.FullVersionInfo())
		},
	}
}
