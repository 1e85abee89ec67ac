package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Oracle type families used by the handbook
const (
	TypeVarchar2  = "VARCHAR2"
	TypeNVarchar2 = "NVARCHAR2"
	TypeChar      = "CHAR"
	TypeNumber    = "NUMBER"
	TypeFloat     = "FLOAT"
	TypeInteger   = "INTEGER"
	TypeDate      = "DATE"
	TypeTimestamp = "TIMESTAMP"
	TypeClob      = "CLOB"
	TypeBlob      = "BLOB"
)

var dataTypePattern = regexp.MustCompile(`^([A-Z][A-Z0-9]*)(?:\((\d+)(?:,(-?\d+))?(?:BYTE|CHAR)?\))?$`)

// DataType is a declared Oracle column type such as VARCHAR2(34) or NUMBER(8,6)
type DataType struct {
	Base      string
	Length    int
	Precision int
	Scale     int
	// ExplicitScale distinguishes NUMBER(5,0) from NUMBER(5)
	ExplicitScale bool
}

// ParseDataType parses the "Oracle data type" cell of a handbook column table
func ParseDataType(s string) (DataType, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	m := dataTypePattern.FindStringSubmatch(norm)
	if m == nil {
		return DataType{}, fmt.Errorf("unrecognized data type %q", s)
	}

	dt := DataType{Base: m[1]}
	var size int
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return DataType{}, fmt.Errorf("invalid size in %q: %w", s, err)
		}
		size = n
	}

	switch dt.Base {
	case TypeVarchar2, TypeNVarchar2, TypeChar:
		if m[3] != "" {
			return DataType{}, fmt.Errorf("string type %q cannot have a scale", s)
		}
		if size == 0 && dt.Base != TypeChar {
			return DataType{}, fmt.Errorf("string type %q requires a length", s)
		}
		if size == 0 {
			size = 1
		}
		dt.Length = size
	case TypeNumber, TypeFloat:
		dt.Precision = size
		if m[3] != "" {
			if size == 0 {
				return DataType{}, fmt.Errorf("scale without precision in %q", s)
			}
			scale, err := strconv.Atoi(m[3])
			if err != nil {
				return DataType{}, fmt.Errorf("invalid scale in %q: %w", s, err)
			}
			// negative scales are matched so the error names the scale
			if scale < 0 || scale > size {
				return DataType{}, fmt.Errorf("scale out of range in %q", s)
			}
			dt.Scale = scale
			dt.ExplicitScale = true
		}
	case TypeInteger, TypeDate, TypeClob, TypeBlob:
		if m[2] != "" {
			return DataType{}, fmt.Errorf("type %s does not take a size", dt.Base)
		}
	case TypeTimestamp:
		dt.Precision = size
	default:
		return DataType{}, fmt.Errorf("unsupported data type %q", s)
	}

	return dt, nil
}

// MustParseDataType is ParseDataType for literals known to be valid
func MustParseDataType(s string) DataType {
	dt, err := ParseDataType(s)
	if err != nil {
		panic(err)
	}
	return dt
}

// String renders the type in its canonical handbook spelling
func (d DataType) String() string {
	switch d.Base {
	case TypeVarchar2, TypeNVarchar2, TypeChar:
		return fmt.Sprintf("%s(%d)", d.Base, d.Length)
	case TypeNumber, TypeFloat:
		if d.Precision == 0 {
			return d.Base
		}
		if d.ExplicitScale {
			return fmt.Sprintf("%s(%d,%d)", d.Base, d.Precision, d.Scale)
		}
		return fmt.Sprintf("%s(%d)", d.Base, d.Precision)
	case TypeTimestamp:
		if d.Precision > 0 {
			return fmt.Sprintf("%s(%d)", d.Base, d.Precision)
		}
		return d.Base
	default:
		return d.Base
	}
}

// IsZero reports whether the type was never set
func (d DataType) IsZero() bool {
	return d.Base == ""
}

// IsString reports whether values are character data with a length limit
func (d DataType) IsString() bool {
	return d.Base == TypeVarchar2 || d.Base == TypeNVarchar2 || d.Base == TypeChar
}

// IsNumeric reports whether values are numbers
func (d DataType) IsNumeric() bool {
	return d.Base == TypeNumber || d.Base == TypeFloat || d.Base == TypeInteger
}

// IsTemporal reports whether values are dates or timestamps
func (d DataType) IsTemporal() bool {
	return d.Base == TypeDate || d.Base == TypeTimestamp
}

// IsLOB reports whether the type is a large object
func (d DataType) IsLOB() bool {
	return d.Base == TypeClob || d.Base == TypeBlob
}

// IntegerDigits returns the number of digits allowed left of the decimal point,
// or -1 when unbounded
func (d DataType) IntegerDigits() int {
	if d.Base != TypeNumber || d.Precision == 0 {
		return -1
	}
	return d.Precision - d.Scale
}

// FractionDigits returns the number of digits allowed right of the decimal
// point, or -1 when unbounded
func (d DataType) FractionDigits() int {
	switch {
	case d.Base == TypeInteger:
		return 0
	case d.Base != TypeNumber || d.Precision == 0:
		return -1
	default:
		return d.Scale
	}
}

func (d DataType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DataType) UnmarshalText(text []byte) error {
	dt, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*d = dt
	return nil
}
