package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eleven-am/fiadb/internal/handbook"
)

func newInitCmd() *cobra.Command {
	var (
		force    bool
		pagesDir string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a fiadb.yaml configuration file",
		Long: `Creates a fiadb.yaml configuration file with default settings.
With --pages the bundled handbook pages are copied into a directory so they
can be edited and loaded with --handbook.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := configFile
			if configPath == "" {
				configPath = configLocations[0]
			}
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
			}

			config := DefaultConfig()
			config.Database.URL = "${" + EnvDatabaseURL + "}"
			config.Handbook = pagesDir

			if pagesDir != "" {
				n, err := copyPages(pagesDir, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Copied %d handbook pages to %s\n", n, pagesDir)
			}

			if err := SaveConfig(config, configPath); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", configPath)
			fmt.Fprintf(out, "\nNext steps:\n")
			fmt.Fprintf(out, "1. Set %s or edit the database URL in %s\n", EnvDatabaseURL, configPath)
			fmt.Fprintf(out, "2. Run 'fiadb tables' to list the catalog\n")
			fmt.Fprintf(out, "3. Run 'fiadb inspect' to compare a loaded database with the catalog\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().StringVar(&pagesDir, "pages", "", "copy the bundled handbook pages into this directory")
	return cmd
}

func copyPages(dir string, force bool) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create pages directory: %w", err)
	}

	pages := handbook.Pages()
	entries, err := fs.ReadDir(pages, "pages")
	if err != nil {
		return 0, fmt.Errorf("failed to read bundled pages: %w", err)
	}

	n := 0
	for _, e := range entries {
		dst := filepath.Join(dir, e.Name())
		if _, err := os.Stat(dst); err == nil && !force {
			return n, fmt.Errorf("%s already exists. Use --force to overwrite", dst)
		}
		data, err := fs.ReadFile(pages, path.Join("pages", e.Name()))
		if err != nil {
			return n, err
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return n, fmt.Errorf("failed to write %s: %w", dst, err)
		}
		n++
	}
	return n, nil
}
