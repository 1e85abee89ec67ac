package migrator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeName = regexp.MustCompile(`[^a-z0-9_]+`)

// MigrationFiles are the paths written by WriteMigration
type MigrationFiles struct {
	Up   string
	Down string
}

// WriteMigration writes a plan as timestamped up and down SQL files
func WriteMigration(dir, name string, plan *Plan, now time.Time) (*MigrationFiles, error) {
	if len(plan.Statements) == 0 {
		return nil, fmt.Errorf("plan has no statements")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	name = strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if name == "" {
		name = "fiadb"
	}
	base := fmt.Sprintf("%s_%s", now.UTC().Format("20060102150405"), name)
	files := &MigrationFiles{
		Up:   filepath.Join(dir, base+".up.sql"),
		Down: filepath.Join(dir, base+".down.sql"),
	}

	header := fmt.Sprintf("-- Migration: %s\n-- Created at: %s\n\n", name, now.UTC().Format(time.RFC3339))
	if err := os.WriteFile(files.Up, []byte(header+joinStatements(plan.Statements)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write UP migration: %w", err)
	}
	if err := os.WriteFile(files.Down, []byte(header+joinStatements(Reverse(plan.Statements))), 0644); err != nil {
		return nil, fmt.Errorf("failed to write DOWN migration: %w", err)
	}
	return files, nil
}

func joinStatements(stmts []string) string {
	var b strings.Builder
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		b.WriteString(s)
		last := s[strings.LastIndex(s, "\n")+1:]
		if !strings.HasPrefix(last, "--") && !strings.HasSuffix(s, ";") {
			b.WriteString(";")
		}
		b.WriteString("\n")
	}
	return b.String()
}
