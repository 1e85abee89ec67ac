package introspect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/eleven-am/fiadb/internal/catalog"
)

// typeAliases maps information_schema and udt spellings onto the names
// produced by catalog.DataType.PostgresType
var typeAliases = map[string]string{
	"character varying":           "varchar",
	"character":                   "char",
	"bpchar":                      "char",
	"decimal":                     "numeric",
	"int":                         "integer",
	"int2":                        "smallint",
	"int4":                        "integer",
	"int8":                        "bigint",
	"float4":                      "real",
	"float8":                      "double precision",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamptz",
}

var aliasKeys = func() []string {
	keys := make([]string, 0, len(typeAliases))
	for k := range typeAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return len(keys[i]) > len(keys[j])
	})
	return keys
}()

var spaceBeforeParen = regexp.MustCompile(`\s+\(`)

// NormalizeTypeName canonicalises a PostgreSQL type spelling so that
// "character varying(34)" and "varchar(34)" compare equal
func NormalizeTypeName(typeName string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(typeName), " "))

	for _, original := range aliasKeys {
		if normalized == original || strings.HasPrefix(normalized, original+"(") || strings.HasPrefix(normalized, original+" (") {
			normalized = typeAliases[original] + normalized[len(original):]
			break
		}
	}

	normalized = spaceBeforeParen.ReplaceAllString(normalized, "(")
	return strings.ReplaceAll(normalized, ", ", ",")
}

// NormalizeType renders a live column in the same form as
// catalog.DataType.PostgresType
func NormalizeType(col *ColumnSchema) string {
	base := NormalizeTypeName(col.DataType)

	switch base {
	case "varchar", "char":
		if col.CharMaxLength != nil {
			return fmt.Sprintf("%s(%d)", base, *col.CharMaxLength)
		}
		return base
	case "numeric":
		if col.NumericPrecision == nil {
			return base
		}
		if col.NumericScale == nil || *col.NumericScale == 0 {
			return fmt.Sprintf("numeric(%d)", *col.NumericPrecision)
		}
		return fmt.Sprintf("numeric(%d,%d)", *col.NumericPrecision, *col.NumericScale)
	case "user-defined", "array":
		return NormalizeTypeName(col.UDTName)
	default:
		return base
	}
}

// OracleType maps a live column back to the handbook's Oracle type
func OracleType(col *ColumnSchema) catalog.DataType {
	switch base := NormalizeTypeName(col.DataType); base {
	case "varchar":
		return catalog.DataType{Base: catalog.TypeVarchar2, Length: deref(col.CharMaxLength)}
	case "char":
		return catalog.DataType{Base: catalog.TypeChar, Length: deref(col.CharMaxLength)}
	case "numeric":
		dt := catalog.DataType{Base: catalog.TypeNumber, Precision: deref(col.NumericPrecision)}
		if dt.Precision > 0 && col.NumericScale != nil && *col.NumericScale != 0 {
			dt.Scale = *col.NumericScale
			dt.ExplicitScale = true
		}
		return dt
	case "double precision", "real":
		return catalog.DataType{Base: catalog.TypeFloat}
	case "bigint", "integer", "smallint":
		return catalog.DataType{Base: catalog.TypeInteger}
	case "timestamp", "timestamptz", "date":
		return catalog.DataType{Base: catalog.TypeDate}
	case "bytea":
		return catalog.DataType{Base: catalog.TypeBlob}
	default:
		return catalog.DataType{Base: catalog.TypeClob}
	}
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
