package dbrelay

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{true, "1"},
		{false, "0"},
		{42, "42"},
		{int8(-8), "-8"},
		{int64(-9000000000), "-9000000000"},
		{uint16(7), "7"},
		{uint64(18446744073709551615), "18446744073709551615"},
		{1.5, "1.5"},
		{float32(0.25), "0.25"},
		{json.Number("12.000"), "12.000"},
		{json.Number("-1.5e3"), "-1.5e3"},
		{decimal.RequireFromString("99999999999999999999.000000001"), "99999999999999999999.000000001"},
		{"plain", "'plain'"},
		{"it's", "'it''s'"},
		{[]byte("a'b"), "'a''b'"},
		{Timestamp(2024, time.May, 6, 7, 8, 9), "'2024-05-06 07:08:09.000000'"},
		{time.Date(2024, time.May, 6, 7, 8, 9, 123456789, time.UTC), "'2024-05-06 07:08:09.123456'"},
		{Date(1999, time.December, 31), "'1999-12-31 00:00:00.000000'"},
	}
	for _, tt := range tests {
		got, err := Literal(tt.in)
		require.NoError(t, err, "%#v", tt.in)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}
}

func TestLiteralUnsupported(t *testing.T) {
	for _, v := range []any{
		struct{}{},
		json.Number("1; drop table t"),
		json.Number(""),
		math.NaN(),
		math.Inf(1),
		float32(math.Inf(-1)),
	} {
		_, err := Literal(v)
		require.Error(t, err, "%#v", v)
		assert.ErrorIs(t, err, ErrProgramming, "%#v", v)
	}
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		params map[string]any
		want   string
	}{
		{
			name: "no params is verbatim",
			sql:  "select '%(x)s', '100%%'",
			want: "select '%(x)s', '100%%'",
		},
		{
			name:   "named",
			sql:    "select * from t where a = %(a)s and b = %(b)s",
			params: map[string]any{"a": 1, "b": "x"},
			want:   "select * from t where a = 1 and b = 'x'",
		},
		{
			name:   "repeated",
			sql:    "%(a)s + %(a)s",
			params: map[string]any{"a": 2},
			want:   "2 + 2",
		},
		{
			name:   "percent escape",
			sql:    "select * from t where s like 'a%%' and id = %(id)s",
			params: map[string]any{"id": 3},
			want:   "select * from t where s like 'a%' and id = 3",
		},
		{
			name:   "lone percent kept",
			sql:    "select 5 % 2, %(x)s%",
			params: map[string]any{"x": nil},
			want:   "select 5 % 2, NULL%",
		},
		{
			name:   "unused params",
			sql:    "select 1",
			params: map[string]any{"x": 1},
			want:   "select 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := substitute(tt.sql, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstituteErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"unknown name", "select %(nope)s"},
		{"unterminated", "select %(a"},
		{"wrong conversion", "select %(a)d"},
		{"missing conversion", "select %(a)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := substitute(tt.sql, map[string]any{"a": 1})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrProgramming)
		})
	}
}
