package catalog

import "fmt"

// PostgresType returns the PostgreSQL column type used when a handbook table is
// loaded into Postgres. DATE maps to timestamp because Oracle dates carry a time.
func (d DataType) PostgresType() string {
	switch d.Base {
	case TypeVarchar2, TypeNVarchar2:
		return fmt.Sprintf("varchar(%d)", d.Length)
	case TypeChar:
		return fmt.Sprintf("char(%d)", d.Length)
	case TypeNumber:
		switch {
		case d.Precision == 0:
			return "numeric"
		case d.Scale == 0:
			return fmt.Sprintf("numeric(%d)", d.Precision)
		default:
			return fmt.Sprintf("numeric(%d,%d)", d.Precision, d.Scale)
		}
	case TypeFloat:
		return "double precision"
	case TypeInteger:
		return "bigint"
	case TypeDate, TypeTimestamp:
		return "timestamp"
	case TypeClob:
		return "text"
	case TypeBlob:
		return "bytea"
	default:
		return "text"
	}
}
