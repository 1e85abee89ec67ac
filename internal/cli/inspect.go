package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/eleven-am/fiadb/internal/handbook"
	"github.com/eleven-am/fiadb/internal/introspect"
)

func connect(ctx context.Context) (*sqlx.DB, error) {
	return dbConfig().Connect(ctx)
}

func newInspectCmd() *cobra.Command {
	var (
		schema   string
		format   string
		pagesDir string
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Compare a loaded database with the catalog",
		Long: `Reads the tables, columns and keys of a PostgreSQL schema and reports how
they differ from the catalog: missing or extra tables and columns, column
types, and primary, unique and foreign keys.

With --pages the inspected tables are also written as handbook pages.`,
		Args: cobra.NoArgs,
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

			insp := introspect.NewInspector(db, schemaName(schema))
			live, err := insp.Tables(cmd.Context())
			if err != nil {
				return err
			}

			if pagesDir != "" {
				if err := writePages(pagesDir, live); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d pages to %s\n", len(live), pagesDir)
			}

			drift := introspect.Compare(reg, insp.Schema(), live)
			switch format {
			case "json":
				data, err := json.MarshalIndent(drift, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			case "text":
				printDrift(cmd.OutOrStdout(), drift)
			default:
				return fmt.Errorf("unknown format %q (use text or json)", format)
			}

			if strict && !drift.Empty() {
				return fmt.Errorf("schema %s differs from the catalog", drift.Schema)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "PostgreSQL schema to inspect")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	cmd.Flags().StringVar(&pagesDir, "pages", "", "write the inspected tables as handbook pages to this directory")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any difference is found")
	return cmd
}

func writePages(dir string, live []*introspect.TableSchema) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create pages directory: %w", err)
	}
	for _, t := range live {
		def := introspect.ToDefinition(t)
		path := filepath.Join(dir, strings.ToLower(def.Name)+".md")
		if err := os.WriteFile(path, []byte(handbook.RenderPage(def)), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

func printDrift(w io.Writer, d *introspect.Drift) {
	if d.Empty() {
		fmt.Fprintf(w, "Schema %s matches the catalog\n", d.Schema)
		return
	}

	fmt.Fprintf(w, "Schema %s differs from the catalog\n", d.Schema)
	for _, t := range d.MissingTables {
		fmt.Fprintf(w, "  - table %s: %s\n", t, introspect.ReasonMissingInDatabase)
	}
	for _, t := range d.ExtraTables {
		fmt.Fprintf(w, "  + table %s: %s\n", t, introspect.ReasonNotInCatalog)
	}
	for _, td := range d.Tables {
		fmt.Fprintf(w, "  %s\n", td.Table)
		for _, c := range td.MissingColumns {
			fmt.Fprintf(w, "    - column %s: %s\n", c, introspect.ReasonMissingInDatabase)
		}
		for _, c := range td.ExtraColumns {
			fmt.Fprintf(w, "    + column %s: %s\n", c, introspect.ReasonNotInCatalog)
		}
		for _, m := range td.TypeMismatches {
			fmt.Fprintf(w, "    ~ column %s: expected %s, found %s\n", m.Column, m.Expected, m.Actual)
		}
		for _, k := range td.KeyMismatches {
			fmt.Fprintf(w, "    ~ %s key %s (%s): %s\n", k.Kind, k.Key, strings.Join(k.Columns, ", "), k.Reason)
		}
	}
}
