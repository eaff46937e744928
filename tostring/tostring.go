// Package tostring renders result values as text together with a NULL flag,
// the common ground of the text based codecs.
package tostring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var jsonStd = jsoniter.ConfigCompatibleWithStandardLibrary

// Layouts used for time values of the relay's date and time columns.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05.999999"
)

// String is a rendered value. IsNULL means the value is absent and String
// should not be used.
type String struct {
	String string
	IsNULL bool
}

// ForType renders v like ToString, except that time values are cut down to
// what the column's wire type holds: a date column prints only the day, a
// time column only the time of day. Time values of a date or time column
// are never NULL, not even the zero time.
func ForType(v any, typeName string) String {
	t, ok := v.(time.Time)
	if !ok {
		return ToString(v)
	}
	switch strings.ToLower(typeName) {
	case "date":
		return String{t.Format(DateLayout), false}
	case "time":
		return String{t.Format(TimeLayout), false}
	case "datetime", "smalldatetime", "timestamp":
		return String{t.Format(time.RFC3339Nano), false}
	}
	return ToString(v)
}

// ToString converts v to text.
//
// nil, the zero time and values whose JSON form is null, [] or {} are NULL.
// Numbers use their shortest exact form, decimals their full text, times
// RFC 3339 with nanoseconds. Other values go through json.Marshaler,
// fmt.Stringer or JSON, in that order.
func ToString(v any) String {
	if v == nil {
		return String{"", true}
	}
	switch v := v.(type) {
	case string:
		return String{v, false}
	case []byte:
		return String{string(v), false}
	case bool:
		return String{strconv.FormatBool(v), false}
	case int:
		return String{strconv.Itoa(v), false}
	case int8:
		return String{strconv.FormatInt(int64(v), 10), false}
	case int16:
		return String{strconv.FormatInt(int64(v), 10), false}
	case int32:
		return String{strconv.FormatInt(int64(v), 10), false}
	case int64:
		return String{strconv.FormatInt(v, 10), false}
	case uint:
		return String{strconv.FormatUint(uint64(v), 10), false}
	case uint8:
		return String{strconv.FormatUint(uint64(v), 10), false}
	case uint16:
		return String{strconv.FormatUint(uint64(v), 10), false}
	case uint32:
		return String{strconv.FormatUint(uint64(v), 10), false}
	case uint64:
		return String{strconv.FormatUint(v, 10), false}
	case json.Number:
		return String{v.String(), false}
	case decimal.Decimal:
		return String{v.String(), false}
	case decimal.NullDecimal:
		if !v.Valid {
			return String{"", true}
		}
		return String{v.Decimal.String(), false}
	case time.Time:
		if v.IsZero() {
			return String{"", true}
		}
		return String{v.Format(time.RFC3339Nano), false}
	case float32:
		return String{strconv.FormatFloat(float64(v), 'f', -1, 32), false}
	case float64:
		return String{strconv.FormatFloat(v, 'f', -1, 64), false}
	}
	if jsonMarshaler, ok := v.(json.Marshaler); ok {
		if jsonData, err := jsonMarshaler.MarshalJSON(); err == nil {
			return fromJSON(jsonData)
		}
	}
	if fmtStringer, ok := v.(fmt.Stringer); ok {
		return String{fmtStringer.String(), false}
	}
	if jsonData, err := jsonStd.Marshal(v); err == nil {
		return fromJSON(jsonData)
	}
	return String{fmt.Sprintf("%v", v), false}
}

func fromJSON(data []byte) String {
	s := strings.Trim(string(data), `"`)
	if s == "[]" || s == "{}" || s == "null" {
		return String{"", true}
	}
	return String{s, false}
}
