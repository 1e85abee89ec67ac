package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eleven-am/fiadb/internal/handbook"
	"github.com/eleven-am/fiadb/internal/registry"
)

func newCheckCmd() *cobra.Command {
	var external bool

	cmd := &cobra.Command{
		Use:   "check [DIR]",
		Short: "Parse handbook pages and verify the catalog invariants",
		Long: `Parses every page in DIR (default: --handbook or the bundled pages) and
builds the registry from them. Every page error and every broken primary or
foreign key is reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "bundled handbook"
			var err error
			var reg *registry.Registry

			if len(args) == 1 {
				source = args[0]
				defs, perr := handbook.ParseDir(os.DirFS(args[0]), ".")
				if perr != nil {
					return perr
				}
				var opts []registry.Option
				if external {
					opts = append(opts, registry.AllowExternalReferences())
				}
				reg, err = registry.New(defs, opts...)
			} else {
				if handbookDir != "" {
					source = handbookDir
				}
				reg, err = loadRegistry()
			}
			if err != nil {
				return err
			}

			keys := 0
			for _, def := range reg.Tables() {
				keys += len(def.Keys)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tables, %d keys OK\n", source, reg.Len(), keys)
			return nil
		},
	}

	cmd.Flags().BoolVar(&external, "allow-external", false, "allow foreign keys to tables outside DIR")
	return cmd
}
