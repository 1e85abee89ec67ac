package handbook

import (
	"embed"
	"fmt"

	"github.com/eleven-am/fiadb/internal/catalog"
)

//go:embed pages/*.md
var pages embed.FS

// Pages exposes the bundled core handbook pages
func Pages() embed.FS {
	return pages
}

// Default parses the bundled core FIA tables
func Default() ([]*catalog.TableDefinition, error) {
	defs, err := ParseDir(pages, "pages")
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundled handbook: %w", err)
	}
	return defs, nil
}
