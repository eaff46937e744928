// Package sqltype maps the relay's wire type tags onto a closed set of SQL
// type categories and coerces raw wire values into Go values.
//
// Every tag belongs to at most one category. Tags that belong to none are
// passed through untouched, so new relay types degrade to their raw JSON
// value instead of failing the row.
package sqltype

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the DB-API type objects.
type Category int

const (
	String Category = iota + 1
	Binary
	Number
	DateTime
	RowID
)

// NullTag is the wire tag the relay uses for an untyped NULL column.
const NullTag = "null"

var categoryNames = map[Category]string{
	String:   "STRING",
	Binary:   "BINARY",
	Number:   "NUMBER",
	DateTime: "DATETIME",
	RowID:    "ROWID",
}

var categoryTags = map[Category][]string{
	String:   {"char", "guid", "text", "varchar", "wchar", "wvarchar"},
	Binary:   {"binary", "blob", "enum", "geometry", "image", "money", "smallmoney", "varbinary"},
	Number:   {"bigint", "bit", "double", "int", "int24", "integer", "float", "longint", "longlong", "real", "shortint", "tinyint", "year", "decimal", "numeric"},
	DateTime: {"date", "time", "datetime", "smalldatetime", "timestamp"},
	RowID:    nil,
}

// byTag is built once from categoryTags.
var byTag = func() map[string]Category {
	m := make(map[string]Category)
	for c, tags := range categoryTags {
		for _, tag := range tags {
			m[tag] = c
		}
	}
	return m
}()

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Tags returns the wire tags owned by c, in declaration order.
func (c Category) Tags() []string {
	return append([]string(nil), categoryTags[c]...)
}

// Contains reports whether tag belongs to c.
func (c Category) Contains(tag string) bool {
	got, ok := Lookup(tag)
	return ok && got == c
}

// ScanType is the Go type that coerced values of c have.
func (c Category) ScanType() reflect.Type {
	switch c {
	case String:
		return reflect.TypeOf("")
	case Binary:
		return reflect.TypeOf([]byte(nil))
	case DateTime:
		return reflect.TypeOf(time.Time{})
	default:
		return reflect.TypeOf((*any)(nil)).Elem()
	}
}

// Lookup returns the category owning tag. Matching ignores case.
func Lookup(tag string) (Category, bool) {
	c, ok := byTag[strings.ToLower(tag)]
	return c, ok
}

// ScanTypeOf is the Go type a column tagged tag is coerced to.
func ScanTypeOf(tag string) reflect.Type {
	tag = strings.ToLower(tag)
	if tag == "decimal" || tag == "numeric" {
		return reflect.TypeOf(decimal.Decimal{})
	}
	c, ok := Lookup(tag)
	if !ok {
		return reflect.TypeOf((*any)(nil)).Elem()
	}
	return c.ScanType()
}

// Coerce converts a raw wire value of the given tag into its Go value.
//
// nil and the "null" tag always give nil. String tags give string, Binary
// tags []byte, DateTime tags time.Time, decimal/numeric decimal.Decimal.
// Other number tags pass the value through, turning JSON numbers into int64
// or float64. Unknown tags return raw unchanged.
func Coerce(raw any, tag string) (any, error) {
	tag = strings.ToLower(tag)
	if raw == nil || tag == NullTag {
		return nil, nil
	}
	c, ok := byTag[tag]
	if !ok {
		return raw, nil
	}
	switch c {
	case String:
		return stringify(raw), nil
	case Binary:
		return []byte(stringify(raw)), nil
	case Number:
		if tag == "decimal" || tag == "numeric" {
			return toDecimal(raw)
		}
		return toNumber(raw), nil
	case DateTime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s value %v is not a string", tag, raw)
		}
		return parseTime(s, tag)
	}
	return raw, nil
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(raw)
}

// toNumber turns integer literals into int64, or uint64 above the int64
// range, and other literals into float64. An integer too large for either
// stays a json.Number with its exact text. Non-numbers pass through.
func toNumber(raw any) any {
	n, ok := raw.(json.Number)
	if !ok {
		return raw
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if !strings.ContainsAny(n.String(), ".eE") {
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u
		}
		return n
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// toDecimal parses the exact text of raw. Floats are formatted with the
// shortest representation that round-trips, the only text they have left.
func toDecimal(raw any) (any, error) {
	var text string
	switch v := raw.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to decimal", raw)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", text, err)
	}
	return d, nil
}
