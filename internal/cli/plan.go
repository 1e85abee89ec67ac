package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/fiadb/internal/migrator"
)

func newPlanCmd() *cobra.Command {
	var (
		schema           string
		tables           []string
		outputDir        string
		name             string
		apply            bool
		allowDestructive bool
		createDB         bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the statements that bring a database to the catalog",
		Long: `Inspects a PostgreSQL schema with Atlas and prints the statements that make
it match the catalog. The plan can be written as up and down migration files
with --output, or executed in one transaction with --apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			desired, err := migrator.BuildRealm(reg, schemaName(schema), tables...)
			if err != nil {
				return err
			}

			cfg := dbConfig()
			if createDB {
				if err := cfg.EnsureDatabase(ctx); err != nil {
					return err
				}
			}
			db, err := cfg.Connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			plan, err := migrator.PlanChanges(ctx, db, desired)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(plan.Statements) == 0 {
				fmt.Fprintln(out, "Database matches the catalog")
				return nil
			}

			for _, c := range plan.Changes {
				marker := "+"
				if migrator.IsDestructiveChange(c) {
					marker = "!"
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", marker, migrator.DescribeChange(c))
			}
			for _, stmt := range plan.Statements {
				fmt.Fprintf(out, "%s;\n", stmt)
			}

			if outputDir != "" {
				files, err := migrator.WriteMigration(outputDir, name, plan, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s and %s\n", files.Up, files.Down)
			}

			if apply {
				if err := migrator.Apply(ctx, db, plan, allowDestructive); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Applied %d statements\n", len(plan.Statements))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "PostgreSQL schema to plan for")
	cmd.Flags().StringSliceVar(&tables, "tables", nil, "tables to plan (default: all)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "write up and down migration files to this directory")
	cmd.Flags().StringVar(&name, "name", "fiadb", "migration file name")
	cmd.Flags().BoolVar(&apply, "apply", false, "execute the plan on the database")
	cmd.Flags().BoolVar(&allowDestructive, "allow-destructive", false, "allow --apply to drop tables, columns, indexes or keys")
	cmd.Flags().BoolVar(&createDB, "create-db", false, "create the database when it does not exist")
	return cmd
}
