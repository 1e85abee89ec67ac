package export

import (
	"fmt"
	"strings"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/migrator"
)

// exportSQL writes PostgreSQL DDL. Foreign keys are added after every table
// exists and are skipped when their target is not part of the export.
func exportSQL(defs []*catalog.TableDefinition, schemaName string) []byte {
	var b strings.Builder

	b.WriteString("-- FIADB schema\n")
	b.WriteString(fmt.Sprintf("-- Tables: %d\n\n", len(defs)))
	if schemaName != migrator.DefaultSchema {
		b.WriteString(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;\n\n", migrator.Identifier(schemaName)))
	}

	selected := make(map[string]bool, len(defs))
	for _, def := range defs {
		selected[def.Name] = true
	}

	for _, def := range defs {
		table := qualified(schemaName, def.Name)

		b.WriteString(fmt.Sprintf("-- Table: %s\n", def.Name))
		b.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", table))

		lines := make([]string, 0, len(def.Columns)+len(def.Keys))
		for _, col := range def.Columns {
			line := fmt.Sprintf("    %s %s", migrator.Identifier(col.Name), col.Type.PostgresType())
			if def.IsPrimaryKeyColumn(col.Name) {
				line += " NOT NULL"
			}
			lines = append(lines, line)
		}
		if pk := def.PrimaryKey(); pk != nil {
			lines = append(lines, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)",
				keyName(def, pk, "pk"), columnList(pk.Columns)))
		}
		for _, uk := range def.KeysOfKind(catalog.KeyUnique) {
			lines = append(lines, fmt.Sprintf("    CONSTRAINT %s UNIQUE (%s)",
				keyName(def, uk, "uk"), columnList(uk.Columns)))
		}
		b.WriteString(strings.Join(lines, ",\n"))
		b.WriteString("\n);\n")

		for _, kind := range []catalog.KeyKind{catalog.KeyNatural, catalog.KeyIndex} {
			for _, idx := range def.KeysOfKind(kind) {
				b.WriteString(fmt.Sprintf("CREATE INDEX %s ON %s (%s);\n",
					keyName(def, idx, "idx"), table, columnList(idx.Columns)))
			}
		}

		if def.Title != "" {
			b.WriteString(fmt.Sprintf("COMMENT ON TABLE %s IS %s;\n", table, literal(def.Title)))
		}
		for _, col := range def.Columns {
			if col.Label == "" {
				continue
			}
			b.WriteString(fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;\n",
				table, migrator.Identifier(col.Name), literal(col.Label)))
		}
		b.WriteString("\n")
	}

	for _, def := range defs {
		for _, fk := range def.ForeignKeys() {
			if !selected[fk.TargetTable] || len(fk.ReferencedColumns) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);\n",
				qualified(schemaName, def.Name), keyName(def, fk, "fk"), columnList(fk.Columns),
				qualified(schemaName, fk.TargetTable), columnList(fk.ReferencedColumns)))
		}
	}

	return []byte(b.String())
}

func qualified(schemaName, table string) string {
	if schemaName == migrator.DefaultSchema {
		return migrator.Identifier(table)
	}
	return migrator.Identifier(schemaName) + "." + migrator.Identifier(table)
}

func keyName(def *catalog.TableDefinition, key *catalog.KeyConstraint, suffix string) string {
	if key.Name != "" {
		return migrator.Identifier(key.Name)
	}
	return migrator.Identifier(def.Name + "_" + strings.Join(key.Columns, "_") + "_" + suffix)
}

func columnList(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = migrator.Identifier(c)
	}
	return strings.Join(out, ", ")
}

func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
