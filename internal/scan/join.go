package scan

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/eleven-am/fiadb/internal/migrator"
	"github.com/eleven-am/fiadb/internal/registry"
)

// JoinQuery renders a SELECT that walks a join path starting at from. With no
// columns every column of every joined table is selected.
func JoinQuery(from string, path []registry.Link, columns ...string) (string, error) {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = strings.ToLower(c)
	}

	builder := squirrel.Select(cols...).From(migrator.Identifier(from))
	for _, l := range path {
		builder = builder.Join(fmt.Sprintf("%s ON %s", migrator.Identifier(l.To), strings.ToLower(l.Condition())))
	}

	sql, _, err := builder.ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build join query: %w", err)
	}
	return sql, nil
}
