package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/handbook"
	"github.com/eleven-am/fiadb/internal/registry"
	"github.com/eleven-am/fiadb/internal/scan"
)

func newTablesCmd() *cobra.Command {
	var loadOrder bool

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the catalog tables",
		Long: `Lists every catalog table with its column and key counts. With --load-order
only the names are printed, parents before the tables that reference them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			if loadOrder {
				order, err := reg.LoadOrder()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(order, "\n"))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tCOLUMNS\tKEYS\tTITLE")
			for _, def := range reg.Tables() {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", def.Name, len(def.Columns), len(def.Keys), def.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&loadOrder, "load-order", false, "print table names in foreign key dependency order")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe TABLE",
		Short: "Show the columns and keys of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			def, err := reg.Table(args[0])
			if err != nil {
				return err
			}

			var out []byte
			switch strings.ToLower(format) {
			case "md", "markdown":
				out = []byte(handbook.RenderPage(def))
			case "json":
				out, err = json.MarshalIndent(def, "", "  ")
				out = append(out, '\n')
			case "yaml", "yml":
				out, err = yaml.Marshal(def)
			default:
				return fmt.Errorf("unknown format %q (use md, json or yaml)", format)
			}
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", def.Name, err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format: md, json or yaml")
	return cmd
}

func newColumnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "column [TABLE] COLUMN",
		Short: "Show a column, or list the tables that have it",
		Long: `With a table and a column, shows the column definition.
With only a column name, lists every table that has a column of that name.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				tables := reg.TablesWithColumn(args[0])
				if len(tables) == 0 {
					return fmt.Errorf("no table has a column named %s", strings.ToUpper(args[0]))
				}
				for _, t := range tables {
					fmt.Fprintln(out, t)
				}
				return nil
			}

			def, err := reg.Table(args[0])
			if err != nil {
				return err
			}
			col, err := reg.Column(args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s.%s\n", def.Name, col.Name)
			fmt.Fprintf(out, "  Type:        %s\n", col.Type)
			fmt.Fprintf(out, "  PostgreSQL:  %s\n", col.Type.PostgresType())
			if col.Label != "" {
				fmt.Fprintf(out, "  Label:       %s\n", col.Label)
			}
			if col.Subsection != "" {
				fmt.Fprintf(out, "  Subsection:  %s\n", col.Subsection)
			}
			var keys []string
			for _, k := range def.Keys {
				for _, c := range k.Columns {
					if strings.EqualFold(c, col.Name) {
						keys = append(keys, keyLabel(k))
						break
					}
				}
			}
			if len(keys) > 0 {
				fmt.Fprintf(out, "  Keys:        %s\n", strings.Join(keys, ", "))
			}
			return nil
		},
	}
}

func keyLabel(k *catalog.KeyConstraint) string {
	if k.Name != "" {
		return fmt.Sprintf("%s (%s)", k.Name, k.Kind.Label())
	}
	return k.Kind.Label()
}

func newLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links FROM [TO]",
		Short: "Show the foreign keys joining two tables",
		Long: `Shows every foreign key that joins FROM and TO, in either direction.
Without TO, shows every foreign key declared on or referencing FROM.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			var links []registry.Link
			if len(args) == 1 {
				links, err = reg.References(args[0])
			} else {
				links, err = reg.Links(args[0], args[1])
			}
			if err != nil {
				return err
			}
			if len(links) == 0 {
				return fmt.Errorf("no foreign key joins %s", strings.ToUpper(strings.Join(args, " and ")))
			}
			printLinks(cmd, links)
			return nil
		},
	}
}

func newPathCmd() *cobra.Command {
	var (
		asSQL   bool
		columns []string
	)

	cmd := &cobra.Command{
		Use:   "path FROM TO",
		Short: "Find the shortest chain of foreign keys between two tables",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			path, err := reg.JoinPath(args[0], args[1])
			if err != nil {
				return err
			}

			if !asSQL {
				printLinks(cmd, path)
				return nil
			}
			query, err := scan.JoinQuery(args[0], path, columns...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), query)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asSQL, "sql", false, "print the path as a SELECT with joins")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to select with --sql, as TABLE.COLUMN")
	return cmd
}

func printLinks(cmd *cobra.Command, links []registry.Link) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FROM\tTO\tKEY\tCONDITION")
	for _, l := range links {
		name := l.Key.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.From, l.To, name, l.Condition())
	}
	w.Flush()
}
