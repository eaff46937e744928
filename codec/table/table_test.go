package tablecodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-data-exporter/dbrelay/scanner"
	"github.com/go-data-exporter/dbrelay/tostring"
)

func TestWrite(t *testing.T) {
	data := [][]any{
		{1, "alpha"},
		{2, nil},
	}
	var buf bytes.Buffer
	require.NoError(t, New().Write(scanner.FromData(data, "id", "name"), &buf))

	out := buf.String()
	assert.Contains(t, out, "| id ")
	assert.Contains(t, out, "| name ")
	assert.Contains(t, out, "| alpha ")
	assert.Contains(t, out, "| NULL ")
	assert.True(t, strings.HasPrefix(out, "+"))
}

func TestWriteOptions(t *testing.T) {
	data := [][]any{{1, "x"}, {2, "y"}, {3, "z"}}
	c := New(
		WithHeader(false),
		WithLimit(2),
		WithCustomNULL("-"),
		WithCustomType(func(v string, meta scanner.Metadata) tostring.String {
			return tostring.String{String: strings.ToUpper(v)}
		}),
	)

	var buf bytes.Buffer
	require.NoError(t, c.Write(scanner.FromData(data, "id", "name"), &buf))

	out := buf.String()
	assert.NotContains(t, out, "name")
	assert.Contains(t, out, "| X ")
	assert.Contains(t, out, "| Y ")
	assert.NotContains(t, out, "Z")
}

func TestWriteTypes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(WithTypes(true)).Write(scanner.FromData([][]any{{"v"}}, "label"), &buf))
	assert.Contains(t, buf.String(), "string")
}
