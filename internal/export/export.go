// Package export renders the catalog in the formats served by the CLI and the
// HTTP API.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/handbook"
	"github.com/eleven-am/fiadb/internal/migrator"
	"github.com/eleven-am/fiadb/internal/registry"
)

// Format represents an export format
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatSQL      Format = "sql"
	FormatDOT      Format = "dot"
	FormatHCL      Format = "hcl"
)

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatSQL, FormatDOT, FormatHCL}
}

// ParseFormat resolves a format name, accepting a few common aliases
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "sql", "ddl":
		return FormatSQL, nil
	case "dot", "graphviz":
		return FormatDOT, nil
	case "hcl", "atlas":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Extension returns the usual file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	default:
		return "." + string(f)
	}
}

// Options narrow an export
type Options struct {
	// Schema is the PostgreSQL schema used by the sql and hcl formats
	Schema string
	// Tables limits the export; empty means every table
	Tables []string
}

// Document is the json and yaml export layout
type Document struct {
	Tables []*catalog.TableDefinition `json:"tables" yaml:"tables"`
}

// Export renders the selected tables of the registry
func Export(reg *registry.Registry, format Format, opts Options) ([]byte, error) {
	if opts.Schema == "" {
		opts.Schema = migrator.DefaultSchema
	}
	defs, err := reg.Select(opts.Tables...)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		return json.MarshalIndent(Document{Tables: defs}, "", "  ")
	case FormatYAML:
		return yaml.Marshal(Document{Tables: defs})
	case FormatMarkdown:
		return exportMarkdown(defs), nil
	case FormatSQL:
		return exportSQL(defs, opts.Schema), nil
	case FormatDOT:
		return exportDOT(defs), nil
	case FormatHCL:
		return migrator.MarshalHCL(reg, opts.Schema, opts.Tables...)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportMarkdown(defs []*catalog.TableDefinition) []byte {
	pages := make([]string, len(defs))
	for i, def := range defs {
		pages[i] = handbook.RenderPage(def)
	}
	return []byte(strings.Join(pages, "\n---\n\n"))
}

// exportDOT renders the tables as a GraphViz digraph with one edge per
// foreign key
func exportDOT(defs []*catalog.TableDefinition) []byte {
	var b strings.Builder

	b.WriteString("digraph FIADB {\n")
	b.WriteString("    rankdir=LR;\n")
	b.WriteString("    node [shape=record];\n\n")

	selected := make(map[string]bool, len(defs))
	for _, def := range defs {
		selected[def.Name] = true

		cols := make([]string, 0, len(def.Columns))
		for _, col := range def.Columns {
			pk := ""
			if def.IsPrimaryKeyColumn(col.Name) {
				pk = " (PK)"
			}
			cols = append(cols, fmt.Sprintf("%s: %s%s", col.Name, col.Type, pk))
		}
		b.WriteString(fmt.Sprintf("    %q [label=\"{%s|%s\\l}\"];\n", def.Name, def.Name, strings.Join(cols, "\\l")))
	}
	b.WriteString("\n")

	for _, def := range defs {
		for _, fk := range def.ForeignKeys() {
			if !selected[fk.TargetTable] {
				continue
			}
			b.WriteString(fmt.Sprintf("    %q -> %q [label=%q];\n", def.Name, fk.TargetTable, fk.Name))
		}
	}

	b.WriteString("}\n")
	return []byte(b.String())
}
