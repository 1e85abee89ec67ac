package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/eleven-am/fiadb/internal/catalog"
)

var plainDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// decimalText renders a numeric value as plain decimal text without exponent.
// ok is false when the value is not numeric.
func decimalText(value any) (string, bool, error) {
	switch n := value.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10), true, nil
	case int8:
		return strconv.FormatInt(int64(n), 10), true, nil
	case int16:
		return strconv.FormatInt(int64(n), 10), true, nil
	case int32:
		return strconv.FormatInt(int64(n), 10), true, nil
	case int64:
		return strconv.FormatInt(n, 10), true, nil
	case uint:
		return strconv.FormatUint(uint64(n), 10), true, nil
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true, nil
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true, nil
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true, nil
	case uint64:
		return strconv.FormatUint(n, 10), true, nil
	case float32:
		return floatText(float64(n))
	case float64:
		return floatText(n)
	case json.Number:
		return numericString(string(n))
	case string:
		return numericString(n)
	case []byte:
		return numericString(string(n))
	default:
		return "", false, nil
	}
}

func floatText(f float64) (string, bool, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", true, errors.New(ReasonNotFinite)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true, nil
}

func numericString(s string) (string, bool, error) {
	s = strings.TrimSpace(s)
	if plainDecimal.MatchString(s) {
		return s, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", false, nil
	}
	return floatText(f)
}

// digits counts significant integer and fraction digits of plain decimal text
func digits(s string) (int, int) {
	s = strings.TrimLeft(s, "+-")
	intPart, fracPart, _ := strings.Cut(s, ".")
	intPart = strings.TrimLeft(intPart, "0")
	fracPart = strings.TrimRight(fracPart, "0")
	return len(intPart), len(fracPart)
}

func checkNumber(dt catalog.DataType, value any) string {
	text, ok, err := decimalText(value)
	if !ok {
		return ReasonExpectNumber
	}
	if err != nil {
		return err.Error()
	}

	intDigits, fracDigits := digits(text)

	if limit := dt.FractionDigits(); limit >= 0 && fracDigits > limit {
		if limit == 0 {
			return fmt.Sprintf("%s for %s, got %s", ReasonNotWholeNumber, dt, text)
		}
		return fmt.Sprintf("%d fractional digits exceed %s", fracDigits, dt)
	}
	if limit := dt.IntegerDigits(); limit >= 0 && intDigits > limit {
		return fmt.Sprintf("value %s out of range for %s", text, dt)
	}
	return ""
}
