package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/database"
	"github.com/eleven-am/fiadb/internal/handbook"
	"github.com/eleven-am/fiadb/internal/logger"
	"github.com/eleven-am/fiadb/internal/registry"
	"github.com/eleven-am/fiadb/internal/validate"
	"github.com/eleven-am/fiadb/pkg/fiadb"
)

// Global configuration variables
var (
	configFile  string
	handbookDir string
	databaseURL string
	driverName  string
	debug       bool
	verbose     bool
	fiaConfig   *Config
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fiadb",
		Short: "fiadb - FIA Database Handbook schema toolkit",
		Long: `fiadb loads the table definitions of the FIA Database Handbook and
answers questions about them.

It can:
- Look up tables, columns, data types and keys
- Find the foreign keys that join two tables, or a join path between them
- Validate candidate rows against the declared column types
- Export the catalog as JSON, YAML, Markdown, SQL, GraphViz or Atlas HCL
- Compare, plan and scan a PostgreSQL copy of FIADB`,
		Version:       fiadb.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Configure(debug, verbose)

			if _, err := os.Stat(".env"); err == nil {
				if err := godotenv.Load(); err != nil {
					logger.CLI().Warn("failed to load .env", "error", err)
				}
			}

			var err error
			fiaConfig, err = LoadConfig(configFile)
			if err != nil {
				if configFile != "" {
					return err
				}
				logger.CLI().Warn("failed to load config file", "error", err)
			}
			if fiaConfig == nil {
				fiaConfig = DefaultConfig()
			}

			if databaseURL == "" {
				databaseURL = os.Getenv(EnvDatabaseURL)
			}
			if databaseURL == "" {
				databaseURL = fiaConfig.Database.URL
			}
			if driverName == "" {
				driverName = fiaConfig.Database.Driver
			}
			if handbookDir == "" {
				handbookDir = fiaConfig.Handbook
			}
			return nil
		},
	}

	configFile, handbookDir, databaseURL, driverName = "", "", "", ""
	debug, verbose = false, false
	fiaConfig = nil

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: fiadb.yaml)")
	rootCmd.PersistentFlags().StringVar(&handbookDir, "handbook", "", "directory of handbook pages (default: bundled pages)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "url", "", "database connection URL (env "+EnvDatabaseURL+")")
	rootCmd.PersistentFlags().StringVar(&driverName, "driver", "", "database driver: postgres or pgx")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newTablesCmd())
	rootCmd.AddCommand(newDescribeCmd())
	rootCmd.AddCommand(newColumnCmd())
	rootCmd.AddCommand(newLinksCmd())
	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadDefinitions parses the configured handbook directory or the bundled pages
func loadDefinitions() ([]*catalog.TableDefinition, error) {
	if handbookDir == "" {
		return handbook.Default()
	}
	return handbook.ParseDir(os.DirFS(handbookDir), ".")
}

func loadRegistry() (*registry.Registry, error) {
	defs, err := loadDefinitions()
	if err != nil {
		return nil, err
	}
	return registry.New(defs)
}

func newValidator(reg *registry.Registry) *validate.Validator {
	if fiaConfig != nil && len(fiaConfig.Validate.DateLayouts) > 0 {
		return validate.New(reg, validate.WithLayouts(fiaConfig.Validate.DateLayouts...))
	}
	return validate.New(reg)
}

func dbConfig() *database.Config {
	cfg := database.NewConfig(driverName, databaseURL)
	if fiaConfig != nil {
		cfg.MaxOpenConns = fiaConfig.Database.MaxConnections
		cfg.MaxIdleConns = fiaConfig.Database.MaxConnections / 2
		cfg.StatementTimeout = time.Duration(fiaConfig.Database.StatementTimeout) * time.Second
	}
	return cfg
}

func schemaName(flag string) string {
	if flag != "" {
		return flag
	}
	if fiaConfig != nil {
		return fiaConfig.Database.Schema
	}
	return ""
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}
