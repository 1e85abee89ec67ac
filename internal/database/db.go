// Package database opens PostgreSQL connections for the commands that read a
// loaded FIADB copy. Both lib/pq and the pgx stdlib driver are supported.
package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/eleven-am/fiadb/internal/logger"
)

// Supported driver names
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// Config holds connection settings
type Config struct {
	Driver           string
	URL              string
	ConnMaxLifetime  time.Duration
	MaxOpenConns     int
	MaxIdleConns     int
	StatementTimeout time.Duration
}

// NewConfig returns the default pool settings for a URL
func NewConfig(driver, url string) *Config {
	if driver == "" {
		driver = DriverPostgres
	}
	return &Config{
		Driver:           driver,
		URL:              url,
		ConnMaxLifetime:  10 * time.Minute,
		MaxOpenConns:     10,
		MaxIdleConns:     5,
		StatementTimeout: 300 * time.Second,
	}
}

// Connect opens and pings the database
func (cfg *Config) Connect(ctx context.Context) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverPgx:
	default:
		return nil, fmt.Errorf("unsupported driver %q (use %s or %s)", cfg.Driver, DriverPostgres, DriverPgx)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("no database URL configured")
	}

	dsn, err := withStatementTimeout(cfg.URL, cfg.StatementTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.DB().Debug("connected", "driver", cfg.Driver, "url", Redact(cfg.URL))
	return db, nil
}

// withStatementTimeout adds statement_timeout to the startup options of the DSN
// so every connection the pool opens carries it. A DSN that already sets the
// timeout is left alone.
func withStatementTimeout(dsn string, d time.Duration) (string, error) {
	if d <= 0 || strings.Contains(dsn, "statement_timeout") {
		return dsn, nil
	}
	opt := fmt.Sprintf("-c statement_timeout=%d", d.Milliseconds())

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", err
		}
		q := u.Query()
		if existing := q.Get("options"); existing != "" {
			opt = existing + " " + opt
		}
		q.Set("options", opt)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	if strings.Contains(dsn, "options=") {
		return dsn, nil
	}
	return strings.TrimSpace(dsn + " options='" + opt + "'"), nil
}

// QuoteIdentifier quotes a PostgreSQL identifier
func QuoteIdentifier(name string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(name, `"`, `""`))
}

// BuildURL builds a database URL from components
func BuildURL(host, port, user, password, dbname, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + port,
		Path:     "/" + dbname,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else if user != "" {
		u.User = url.User(user)
	}
	return u.String()
}

// Redact hides the password of a URL for logging
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
