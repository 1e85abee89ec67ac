package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/eleven-am/fiadb/internal/database"
	"github.com/eleven-am/fiadb/internal/migrator"
)

// Environment variables read by the CLI
const (
	EnvConfig      = "FIADB_CONFIG"
	EnvDatabaseURL = "FIADB_DATABASE_URL"
)

var configLocations = []string{"fiadb.yaml", "fiadb.yml", ".fiadb.yaml", ".fiadb.yml"}

// Config represents the fiadb.yaml configuration structure
type Config struct {
	Version string `yaml:"version"`

	// Handbook is a directory of handbook pages; empty uses the bundled pages
	Handbook string `yaml:"handbook,omitempty"`

	Database struct {
		Driver           string `yaml:"driver"`
		URL              string `yaml:"url"`
		Schema           string `yaml:"schema"`
		MaxConnections   int    `yaml:"max_connections"`
		StatementTimeout int    `yaml:"statement_timeout"`
	} `yaml:"database"`

	Validate struct {
		DateLayouts []string `yaml:"date_layouts,omitempty"`
	} `yaml:"validate"`

	Server struct {
		Addr         string   `yaml:"addr"`
		AllowOrigins []string `yaml:"allow_origins,omitempty"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with every default filled in
func DefaultConfig() *Config {
	cfg := &Config{Version: "1"}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = database.DriverPostgres
	}
	if c.Database.Schema == "" {
		c.Database.Schema = migrator.DefaultSchema
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 10
	}
	if c.Database.StatementTimeout == 0 {
		c.Database.StatementTimeout = 300
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// LoadConfig reads a config file. An empty path searches the default
// locations and returns nil when none exists. ${VAR} references in the file
// are expanded from the environment.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = GetConfigPath()
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	if config.Handbook != "" && !filepath.IsAbs(config.Handbook) {
		config.Handbook = filepath.Join(filepath.Dir(path), config.Handbook)
	}

	return &config, nil
}

// GetConfigPath returns $FIADB_CONFIG or the first default location that exists
func GetConfigPath() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}

	for _, loc := range configLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// SaveConfig writes a config file
func SaveConfig(config *Config, path string) error {
	if path == "" {
		path = configLocations[0]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
