package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eleven-am/fiadb/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		format string
		output string
		schema string
		tables []string
	)

	formats := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		formats = append(formats, string(f))
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog in another format",
		Long: fmt.Sprintf(`Exports the catalog, or the tables named with --tables, as one of:
%s`, strings.Join(formats, ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			out, err := export.Export(reg, f, export.Options{Schema: schemaName(schema), Tables: tables})
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatJSON), "output format: "+strings.Join(formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&schema, "schema", "", "PostgreSQL schema for sql and hcl output")
	cmd.Flags().StringSliceVar(&tables, "tables", nil, "tables to export (default: all)")
	return cmd
}
