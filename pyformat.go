package dbrelay

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/go-data-exporter/dbrelay/sqlerr"
)

const timestampLiteral = "2006-01-02 15:04:05.000000"

// substitute expands %(name)s placeholders into SQL literals and %% into %.
// Without params the statement is returned untouched.
func substitute(operation string, params map[string]any) (string, error) {
	if len(params) == 0 {
		return operation, nil
	}

	var b strings.Builder
	b.Grow(len(operation))
	for i := 0; i < len(operation); i++ {
		ch := operation[i]
		if ch != '%' || i+1 == len(operation) {
			b.WriteByte(ch)
			continue
		}

		switch operation[i+1] {
		case '%':
			b.WriteByte('%')
			i++
		case '(':
			end := strings.IndexByte(operation[i+2:], ')')
			if end < 0 || i+2+end+1 >= len(operation) || operation[i+2+end+1] != 's' {
				return "", sqlerr.Programming(fmt.Sprintf("malformed placeholder at offset %d", i))
			}
			name := operation[i+2 : i+2+end]
			v, ok := params[name]
			if !ok {
				return "", sqlerr.Programming(fmt.Sprintf("no value for parameter %q", name))
			}
			lit, err := Literal(v)
			if err != nil {
				return "", err
			}
			b.WriteString(lit)
			i += 2 + end + 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), nil
}

// Literal renders v as a SQL literal.
func Literal(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		if err := checkFinite(float64(v)); err != nil {
			return "", err
		}
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		if err := checkFinite(v); err != nil {
			return "", err
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case json.Number:
		if _, err := decimal.NewFromString(v.String()); err != nil {
			return "", sqlerr.Programming(fmt.Sprintf("invalid number %q", v.String()))
		}
		return v.String(), nil
	case decimal.Decimal:
		return v.String(), nil
	case time.Time:
		return quote(v.Format(timestampLiteral)), nil
	case string:
		return quote(v), nil
	case []byte:
		return quote(string(v)), nil
	default:
		return "", sqlerr.Programming(fmt.Sprintf("unsupported parameter type %T", v))
	}
}

// checkFinite rejects NaN and infinities, which have no SQL literal.
func checkFinite(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sqlerr.Programming(fmt.Sprintf("unsupported float value %v", f))
	}
	return nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
