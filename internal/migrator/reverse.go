package migrator

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	createSchemaRe   = regexp.MustCompile(`(?i)^CREATE\s+SCHEMA\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s;]+)`)
	createTableRe    = regexp.MustCompile(`(?i)^CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s(]+)`)
	createIndexRe    = regexp.MustCompile(`(?i)^CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:CONCURRENTLY\s+)?(?:IF\s+NOT\s+EXISTS\s+)?([^\s]+)\s+ON\s+([^\s(]+)`)
	alterTableRe     = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+([^\s]+)\s+(.*)$`)
	addColumnRe      = regexp.MustCompile(`(?i)ADD\s+COLUMN\s+([^\s,]+)`)
	addConstraintRe  = regexp.MustCompile(`(?i)ADD\s+CONSTRAINT\s+([^\s,]+)`)
	qualifiedTableRe = regexp.MustCompile(`^(.+)\.[^.]+$`)
)

// ReverseStatement returns the statement that undoes stmt, or a SQL comment
// when it cannot be undone mechanically. Leading "--" comment lines are
// ignored and COMMENT ON statements reverse to "".
func ReverseStatement(stmt string) string {
	s := strings.TrimSuffix(strings.TrimSpace(stripComments(stmt)), ";")
	upper := strings.ToUpper(s)

	switch {
	case s == "", strings.HasPrefix(upper, "COMMENT ON"):
		return ""
	case strings.HasPrefix(upper, "CREATE SCHEMA"):
		if m := createSchemaRe.FindStringSubmatch(s); m != nil {
			return fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", m[1])
		}
	case strings.HasPrefix(upper, "CREATE TABLE"):
		if m := createTableRe.FindStringSubmatch(s); m != nil {
			return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", m[1])
		}
	case strings.HasPrefix(upper, "CREATE INDEX"), strings.HasPrefix(upper, "CREATE UNIQUE INDEX"):
		if m := createIndexRe.FindStringSubmatch(s); m != nil {
			name := m[1]
			if q := qualifiedTableRe.FindStringSubmatch(m[2]); q != nil && !strings.Contains(name, ".") {
				name = q[1] + "." + name
			}
			return fmt.Sprintf("DROP INDEX IF EXISTS %s", name)
		}
	case strings.HasPrefix(upper, "ALTER TABLE"):
		return reverseAlter(s)
	}

	return fmt.Sprintf("-- cannot reverse: %s", oneLine(s))
}

func reverseAlter(s string) string {
	m := alterTableRe.FindStringSubmatch(oneLine(s))
	if m == nil {
		return fmt.Sprintf("-- cannot reverse: %s", oneLine(s))
	}
	table, rest := m[1], m[2]

	var drops []string
	for _, c := range addConstraintRe.FindAllStringSubmatch(rest, -1) {
		drops = append(drops, "DROP CONSTRAINT IF EXISTS "+c[1])
	}
	for _, c := range addColumnRe.FindAllStringSubmatch(rest, -1) {
		drops = append(drops, "DROP COLUMN IF EXISTS "+c[1])
	}
	if len(drops) == 0 {
		return fmt.Sprintf("-- cannot reverse: %s", oneLine(s))
	}
	return fmt.Sprintf("ALTER TABLE %s %s", table, strings.Join(drops, ", "))
}

// Reverse undoes a list of statements, last statement first
func Reverse(statements []string) []string {
	out := make([]string, 0, len(statements))
	for i := len(statements) - 1; i >= 0; i-- {
		if r := ReverseStatement(statements[i]); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func stripComments(stmt string) string {
	lines := strings.Split(stmt, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if !strings.HasPrefix(strings.TrimSpace(l), "--") {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
