package export

import (
	"bytes"
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-data-exporter/dbrelay"
	"github.com/go-data-exporter/dbrelay/codec"
	csvcodec "github.com/go-data-exporter/dbrelay/codec/csv"
	jsoncodec "github.com/go-data-exporter/dbrelay/codec/json"
	"github.com/go-data-exporter/dbrelay/driver"
	"github.com/go-data-exporter/dbrelay/scanner"
)

type cannedRelay map[string]string

func (c cannedRelay) Exchange(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	stmt := form.Get("sql")
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		stmt = stmt[i+1:]
	}
	if stmt == "select 1 as a" {
		return []byte(`{"data": [{"fields": [{"name": "a", "sql_type": "int"}], "rows": [{"a": 1}]}]}`), nil
	}
	return []byte(c[stmt]), nil
}

var relay = cannedRelay{
	"one": `{"data": [{"fields": [{"name": "n", "sql_type": "int"}], "rows": [{"n": 1}, {"n": 2}]}]}`,
	"two": `{"data": [
		{"fields": [{"name": "n", "sql_type": "int"}], "rows": [{"n": 1}]},
		{"fields": [{"name": "d", "sql_type": "date"}, {"name": "s", "sql_type": "varchar"}], "rows": [{"d": "2024-05-06", "s": null}]}
	]}`,
	"none":  `{"data": []}`,
	"epoch": `{"data": [{"fields": [{"name": "at", "sql_type": "datetime"}], "rows": [{"at": "0001-01-01 00:00:00"}, {"at": null}]}]}`,
}

func execute(t *testing.T, stmt string) *dbrelay.Cursor {
	t.Helper()

	conn, err := dbrelay.Connect(context.Background(), "relay://test", dbrelay.Params{}, dbrelay.WithTransport(relay))
	require.NoError(t, err)
	cur, err := conn.Cursor()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cur.Close() })
	require.NoError(t, cur.Execute(context.Background(), stmt, nil))
	return cur
}

func TestExporterWrite(t *testing.T) {
	var buf bytes.Buffer
	e := New(scanner.FromCursor(execute(t, "one")), codec.CSV())
	require.NoError(t, e.Write(&buf))
	assert.Equal(t, "n\n1\n2\n", buf.String())
}

func TestExporterWriteFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out.ndjson")
	e := New(scanner.FromCursor(execute(t, "one")), codec.JSON(jsoncodec.WithNewlineDelimited(true)))
	require.NoError(t, e.WriteFile(name))

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "{\"n\":1}\n{\"n\":2}\n", string(data))
}

func TestExporterWriteFileError(t *testing.T) {
	e := New(scanner.FromData(nil), codec.CSV())
	assert.Error(t, e.WriteFile(filepath.Join(t.TempDir(), "missing", "out.csv")))
}

func TestWriteResultSets(t *testing.T) {
	cur := execute(t, "two")

	var buf bytes.Buffer
	require.NoError(t, WriteResultSets(cur, codec.CSV(csvcodec.WithCustomNULL("NULL")), &buf, QueryHeader))
	assert.Equal(t, "=> Query 1:\n\nn\n1\n\n=> Query 2:\n\nd,s\n2024-05-06,NULL\n", buf.String())
	assert.False(t, cur.HasNextSet())
}

func TestWriteResultSetsSingle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultSets(execute(t, "one"), codec.CSV(), &buf, QueryHeader))
	assert.Equal(t, "n\n1\n2\n", buf.String())
}

func TestWriteResultSetsNone(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultSets(execute(t, "none"), codec.CSV(), &buf, QueryHeader))
	assert.Empty(t, buf.String())
}

func TestWriteSQLResultSets(t *testing.T) {
	db := sql.OpenDB(driver.NewConnector("relay://test", dbrelay.Params{}, dbrelay.WithTransport(relay)))
	defer db.Close()

	rows, err := db.Query("two")
	require.NoError(t, err)
	defer rows.Close()

	var buf bytes.Buffer
	require.NoError(t, WriteSQLResultSets(rows, driver.DriverName, codec.CSV(), &buf, QueryHeader))
	assert.Equal(t, "=> Query 1:\n\nn\n1\n\n=> Query 2:\n\nd,s\n2024-05-06,\n", buf.String())
}

func TestZeroDatetimeIsNotNULL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(scanner.FromCursor(execute(t, "epoch")), codec.CSV(csvcodec.WithCustomNULL("NULL"))).Write(&buf))
	assert.Equal(t, "at\n0001-01-01T00:00:00Z\nNULL\n", buf.String())
}
