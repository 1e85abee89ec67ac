package handbook

import (
	"fmt"
	"strings"

	"github.com/eleven-am/fiadb/internal/catalog"
)

var (
	columnHeader = []string{"Subsection", "Column name (attribute)", "Descriptive name", "Oracle data type"}
	keyHeader    = []string{"Type of key", "Column(s) order", "Tables to link", "Abbreviated notation"}
)

// RenderColumnTable writes the handbook column table for a definition
func RenderColumnTable(def *catalog.TableDefinition) string {
	var b strings.Builder
	writeRow(&b, columnHeader)
	writeDelimiter(&b, len(columnHeader))
	for _, col := range def.Columns {
		writeRow(&b, ColumnRow(col))
	}
	return b.String()
}

// ColumnRow returns the cells of one column table row
func ColumnRow(col *catalog.ColumnDefinition) []string {
	return []string{col.Subsection, col.Name, col.Label, col.Type.String()}
}

// RenderKeyTable writes the handbook key table for a definition
func RenderKeyTable(def *catalog.TableDefinition) string {
	var b strings.Builder
	writeRow(&b, keyHeader)
	writeDelimiter(&b, len(keyHeader))
	for _, key := range def.Keys {
		writeRow(&b, KeyRow(def.Name, key))
	}
	return b.String()
}

// KeyRow returns the cells of one key table row
func KeyRow(table string, key *catalog.KeyConstraint) []string {
	link := "N/A"
	if key.Kind == catalog.KeyForeign {
		link = fmt.Sprintf("%s to %s", table, key.TargetTable)
	}
	return []string{
		key.Kind.Label(),
		"(" + strings.Join(key.Columns, ", ") + ")",
		link,
		key.Name,
	}
}

// RenderPage writes a complete handbook page that ParsePage reads back
func RenderPage(def *catalog.TableDefinition) string {
	var b strings.Builder

	title := def.Title
	if title == "" {
		title = def.Name
	}
	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	b.WriteString(fmt.Sprintf("Oracle table name: %s\n\n", def.Name))
	if def.Description != "" {
		b.WriteString(def.Description)
		b.WriteString("\n\n")
	}

	b.WriteString(RenderColumnTable(def))
	if len(def.Keys) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderKeyTable(def))
	}

	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

// escapeCell backslash-escapes the characters that would start Markdown
// markup or end the cell. Underscores inside words are left alone.
func escapeCell(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '*', '`', '<', '|', '[', '&':
			b.WriteByte('\\')
		case '_':
			if i == 0 || i == len(s)-1 || !isWordByte(s[i-1]) || !isWordByte(s[i+1]) {
				b.WriteByte('\\')
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func writeDelimiter(b *strings.Builder, n int) {
	b.WriteString("|")
	for i := 0; i < n; i++ {
		b.WriteString("---|")
	}
	b.WriteString("\n")
}
