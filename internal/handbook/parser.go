// Package handbook reads FIA Database Handbook table pages written in Markdown
// and turns their column and key tables into catalog definitions. It also
// renders definitions back into the same page layout.
package handbook

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/eleven-am/fiadb/internal/catalog"
	"github.com/eleven-am/fiadb/internal/logger"
)

var (
	ErrNoColumnTable = errors.New("page has no column table")
	ErrNoTableName   = errors.New("page has no table name")
)

var oracleNamePattern = regexp.MustCompile(`(?i)oracle table name:\s*([A-Za-z0-9_]+)`)

// ParseError locates a failure inside a handbook page
type ParseError struct {
	Page string
	Row  int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("handbook: %s: row %d: %v", e.Page, e.Row, e.Err)
	}
	return fmt.Sprintf("handbook: %s: %v", e.Page, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RawTable is a Markdown table as cell text, header first
type RawTable struct {
	Header []string
	Rows   [][]string
}

type tableKind int

const (
	tableOther tableKind = iota
	tableColumns
	tableKeys
)

// columnLayout maps semantic fields to cell positions; -1 when absent
type columnLayout struct {
	subsection, name, label, dataType int
}

type keyLayout struct {
	kind, columns, link, notation int
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

type page struct {
	title       string
	name        string
	description []string
	tables      []RawTable
}

func readPage(src []byte) *page {
	doc := markdown.Parser().Parse(text.NewReader(src))
	p := &page{}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			heading := nodeText(node, src)
			if p.title == "" {
				p.title = heading
			}
			if m := oracleNamePattern.FindStringSubmatch(heading); m != nil && p.name == "" {
				p.name = strings.ToUpper(m[1])
			}
		case *ast.Paragraph:
			para := nodeText(node, src)
			if m := oracleNamePattern.FindStringSubmatch(para); m != nil && p.name == "" {
				p.name = strings.ToUpper(m[1])
				rest := strings.TrimSpace(oracleNamePattern.ReplaceAllString(para, ""))
				if rest != "" {
					p.description = append(p.description, rest)
				}
				continue
			}
			p.description = append(p.description, para)
		case *extast.Table:
			p.tables = append(p.tables, readTable(node, src))
		}
	}

	return p
}

func readTable(tbl *extast.Table, src []byte) RawTable {
	var raw RawTable
	for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, cellText(cell, src))
		}
		if _, ok := row.(*extast.TableHeader); ok {
			raw.Header = cells
			continue
		}
		raw.Rows = append(raw.Rows, cells)
	}
	return raw
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(strings.ReplaceAll(b.String(), `\|`, "|"))
}

// cellText returns the source of a table cell with backslash escapes removed,
// so emphasis, code spans and inline HTML are kept as written
func cellText(cell ast.Node, src []byte) string {
	lines := cell.Lines()
	if lines == nil || lines.Len() == 0 {
		return nodeText(cell, src)
	}
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return unescape(strings.TrimSpace(b.String()))
}

// unescape drops the backslash in front of ASCII punctuation
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isPunct(s[i+1]) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

// ReadTables returns every Markdown table on the page as raw cell text
func ReadTables(src []byte) []RawTable {
	return readPage(src).tables
}

func classify(header []string) (tableKind, columnLayout, keyLayout) {
	cl := columnLayout{-1, -1, -1, -1}
	kl := keyLayout{-1, -1, -1, -1}

	for i, h := range header {
		h = strings.ToLower(h)
		switch {
		case strings.Contains(h, "subsection"):
			cl.subsection = i
		case strings.Contains(h, "column name"):
			cl.name = i
		case strings.Contains(h, "descriptive"):
			cl.label = i
		case strings.Contains(h, "data type"):
			cl.dataType = i
		case strings.Contains(h, "key"):
			kl.kind = i
		case strings.Contains(h, "column"):
			kl.columns = i
		case strings.Contains(h, "link"):
			kl.link = i
		case strings.Contains(h, "notation"), strings.Contains(h, "abbreviat"):
			kl.notation = i
		}
	}

	switch {
	case cl.name >= 0 && cl.dataType >= 0:
		return tableColumns, cl, kl
	case kl.kind >= 0 && kl.columns >= 0:
		return tableKeys, cl, kl
	default:
		return tableOther, cl, kl
	}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParsePage parses one handbook page. The page name is only used in errors.
func ParsePage(name string, src []byte) (*catalog.TableDefinition, error) {
	p := readPage(src)

	def := &catalog.TableDefinition{
		Name:        p.name,
		Title:       p.title,
		Description: strings.Join(p.description, "\n\n"),
	}
	if def.Name == "" {
		return nil, &ParseError{Page: name, Err: ErrNoTableName}
	}

	sawColumns := false
	for _, tbl := range p.tables {
		kind, cl, kl := classify(tbl.Header)
		switch kind {
		case tableColumns:
			sawColumns = true
			for i, row := range tbl.Rows {
				col, err := parseColumnRow(row, cl)
				if err != nil {
					return nil, &ParseError{Page: name, Row: i + 1, Err: err}
				}
				def.Columns = append(def.Columns, col)
			}
		case tableKeys:
			for i, row := range tbl.Rows {
				key, err := parseKeyRow(def.Name, row, kl)
				if err != nil {
					return nil, &ParseError{Page: name, Row: i + 1, Err: err}
				}
				def.Keys = append(def.Keys, key)
			}
		}
	}

	if !sawColumns {
		return nil, &ParseError{Page: name, Err: ErrNoColumnTable}
	}

	logger.Handbook().Debug("parsed page", "page", name, "table", def.Name, "columns", len(def.Columns), "keys", len(def.Keys))
	return def, nil
}

func parseColumnRow(row []string, l columnLayout) (*catalog.ColumnDefinition, error) {
	name := strings.ToUpper(cell(row, l.name))
	if name == "" {
		return nil, fmt.Errorf("empty column name")
	}
	dt, err := catalog.ParseDataType(cell(row, l.dataType))
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	return &catalog.ColumnDefinition{
		Subsection: cell(row, l.subsection),
		Name:       name,
		Label:      cell(row, l.label),
		Type:       dt,
	}, nil
}

func parseKeyRow(table string, row []string, l keyLayout) (*catalog.KeyConstraint, error) {
	kind, ok := catalog.ParseKeyKind(cell(row, l.kind))
	if !ok {
		return nil, fmt.Errorf("unknown key type %q", cell(row, l.kind))
	}

	key := &catalog.KeyConstraint{
		Kind:    kind,
		Name:    strings.ToUpper(cell(row, l.notation)),
		Columns: parseColumnList(cell(row, l.columns)),
	}
	if len(key.Columns) == 0 {
		return nil, fmt.Errorf("%s key %s lists no columns", kind, key.Name)
	}

	from, to, err := parseLink(cell(row, l.link))
	if err != nil {
		return nil, err
	}
	if kind == catalog.KeyForeign {
		if to == "" {
			return nil, fmt.Errorf("foreign key %s has no linked table", key.Name)
		}
		if !strings.EqualFold(from, table) {
			return nil, fmt.Errorf("foreign key %s links from %s, not %s", key.Name, from, table)
		}
		key.TargetTable = to
	}

	return key, nil
}

// parseColumnList reads "(STATECD, INVYR, PLOT)"
func parseColumnList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")

	var cols []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			cols = append(cols, part)
		}
	}
	return cols
}

// parseLink reads "PLOT to COUNTY"; "N/A" and empty cells mean no link
func parseLink(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return "", "", nil
	}
	fields := strings.Fields(s)
	if len(fields) != 3 || !strings.EqualFold(fields[1], "to") {
		return "", "", fmt.Errorf("malformed table link %q", s)
	}
	return strings.ToUpper(fields[0]), strings.ToUpper(fields[2]), nil
}

// ParseDir parses every *.md page in dir. All page errors are reported together.
func ParseDir(fsys fs.FS, dir string) ([]*catalog.TableDefinition, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read handbook directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var defs []*catalog.TableDefinition
	var errs []error
	for _, name := range names {
		src, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", name, err))
			continue
		}
		def, err := ParsePage(name, src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	logger.Handbook().Info("parsed handbook", "dir", dir, "pages", len(defs))
	return defs, nil
}
