package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eleven-am/fiadb/internal/scan"
)

func newScanCmd() *cobra.Command {
	var (
		schema string
		where  map[string]string
		limit  uint64
		offset uint64
		format string
	)

	cmd := &cobra.Command{
		Use:   "scan TABLE",
		Short: "Validate the rows of a loaded table",
		Long: `Reads rows of TABLE from the database, ordered by primary key, and checks
each one against the catalog definition. The command fails when any row is
invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			opts := scan.Options{Schema: schemaName(schema), Limit: limit, Offset: offset}
			if len(where) > 0 {
				opts.Where = make(map[string]any, len(where))
				for k, v := range where {
					opts.Where[k] = v
				}
			}

			report, err := scan.NewScanner(db, reg, newValidator(reg)).Scan(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "yaml":
				data, err := yaml.Marshal(report)
				if err != nil {
					return err
				}
				out.Write(data)
			case "text":
				fmt.Fprintf(out, "Scan %s of %s.%s: %d rows, %d invalid\n",
					report.ID, report.Schema, report.Table, report.RowsScanned, report.RowsInvalid)
				for _, r := range report.Rows {
					fmt.Fprintf(out, "  row %d %v: %s\n", r.Row, r.Key, r.Violations)
				}
			default:
				return fmt.Errorf("unknown format %q (use text, json or yaml)", format)
			}

			if !report.Valid() {
				return fmt.Errorf("%d of %d rows invalid", report.RowsInvalid, report.RowsScanned)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "PostgreSQL schema holding the table")
	cmd.Flags().StringToStringVar(&where, "where", nil, "filter rows by column equality, e.g. --where STATECD=27")
	cmd.Flags().Uint64Var(&limit, "limit", scan.DefaultLimit, "maximum rows to read")
	cmd.Flags().Uint64Var(&offset, "offset", 0, "rows to skip")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}
