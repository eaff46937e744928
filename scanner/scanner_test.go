package scanner

import (
	"context"
	"database/sql"
	"io"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-data-exporter/dbrelay"
)

// cannedRelay answers statements from a table, the canary included.
type cannedRelay map[string]string

func (c cannedRelay) Exchange(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	stmt := form.Get("sql")
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		stmt = stmt[i+1:]
	}
	if stmt == "select 1 as a" {
		return []byte(`{"data": [{"fields": [{"name": "a", "sql_type": "int"}], "rows": [{"a": 1}]}]}`), nil
	}
	if answer, ok := c[stmt]; ok {
		return []byte(answer), nil
	}
	return []byte(`{"log": {"error": "unknown statement"}}`), nil
}

const prices = `{"data": [{
	"fields": [
		{"name": "sku", "sql_type": "varchar", "precision": 16},
		{"name": "price", "sql_type": "decimal", "precision": 10, "scale": 2},
		{"name": "since", "sql_type": "date"},
		{"name": "extra", "sql_type": "json"}
	],
	"rows": [
		{"sku": "A-1", "price": "9.99", "since": "2023-12-31", "extra": null},
		{"sku": "B-2", "price": "100", "since": "2024-01-01", "extra": "x"}
	]
}]}`

func executeOn(t *testing.T, relay cannedRelay, stmt string) *dbrelay.Cursor {
	t.Helper()

	conn, err := dbrelay.Connect(context.Background(), "relay://test", dbrelay.Params{}, dbrelay.WithTransport(relay))
	require.NoError(t, err)
	cur, err := conn.Cursor()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cur.Close() })
	require.NoError(t, cur.Execute(context.Background(), stmt, nil))
	return cur
}

func TestFromCursor(t *testing.T) {
	rows := FromCursor(executeOn(t, cannedRelay{"select": prices}, "select"))
	assert.Equal(t, "dbrelay", rows.Driver())

	cols, err := rows.Columns()
	require.NoError(t, err)
	require.Len(t, cols, 4)

	assert.Equal(t, "sku", cols[0].Name())
	assert.Equal(t, "varchar", cols[0].DatabaseTypeName())
	length, ok := cols[0].Length()
	assert.True(t, ok)
	assert.EqualValues(t, 16, length)
	_, _, ok = cols[0].DecimalSize()
	assert.False(t, ok)

	precision, scale, ok := cols[1].DecimalSize()
	assert.True(t, ok)
	assert.EqualValues(t, 10, precision)
	assert.EqualValues(t, 2, scale)
	assert.Equal(t, reflect.TypeOf(decimal.Decimal{}), cols[1].ScanType())
	_, ok = cols[1].Length()
	assert.False(t, ok)

	assert.Equal(t, reflect.TypeOf(time.Time{}), cols[2].ScanType())
	_, ok = cols[3].Nullable()
	assert.False(t, ok)

	var got [][]any
	for rows.Next() {
		row, err := rows.ScanRow()
		require.NoError(t, err)
		got = append(got, append([]any(nil), row...))
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)
	assert.Equal(t, "A-1", got[0][0])
	assert.Equal(t, "9.99", got[0][1].(decimal.Decimal).String())
	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), got[0][2])
	assert.Nil(t, got[0][3])
	assert.Equal(t, "x", got[1][3])

	_, err = rows.ScanRow()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFromCursorError(t *testing.T) {
	bad := `{"data": [{"fields": [{"name": "d", "sql_type": "date"}], "rows": [{"d": "never"}]}]}`
	rows := FromCursor(executeOn(t, cannedRelay{"select": bad}, "select"))

	assert.False(t, rows.Next())
	assert.ErrorIs(t, rows.Err(), dbrelay.ErrData)
	_, err := rows.ScanRow()
	assert.ErrorIs(t, err, dbrelay.ErrData)
}

func TestFromData(t *testing.T) {
	rows := FromData([][]any{{1, nil}, {2, "b"}}, "id")
	cols, err := rows.Columns()
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name())
	assert.Equal(t, "column_1", cols[1].Name())
	assert.Equal(t, "int", cols[0].DatabaseTypeName())
	assert.Equal(t, "nil", cols[1].DatabaseTypeName())
	nullable, ok := cols[1].Nullable()
	assert.True(t, ok)
	assert.True(t, nullable)

	_, err = rows.ScanRow()
	assert.EqualError(t, err, "scanner: scan called without calling Next")

	var n int
	for rows.Next() {
		_, err := rows.ScanRow()
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 2, n)
	_, err = rows.ScanRow()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFromDataRaggedRow(t *testing.T) {
	rows := FromData([][]any{{1, 2}, {3}})
	require.True(t, rows.Next())
	_, err := rows.ScanRow()
	require.NoError(t, err)
	require.True(t, rows.Next())
	_, err = rows.ScanRow()
	assert.EqualError(t, err, "length of row 2 != length of the first row: 1 != 2")
}

func TestFromSQL(t *testing.T) {
	db := sql.OpenDB(driverConnector(t, cannedRelay{"select": prices}))
	defer db.Close()

	sqlRows, err := db.Query("select")
	require.NoError(t, err)
	defer sqlRows.Close()

	rows := FromSQL(sqlRows, "dbrelay")
	assert.Equal(t, "dbrelay", rows.Driver())
	cols, err := rows.Columns()
	require.NoError(t, err)
	require.Len(t, cols, 4)
	assert.Equal(t, "DECIMAL", cols[1].DatabaseTypeName())
	assert.Equal(t, 1, cols[1].(*sqlColumn).Index())

	var skus []any
	for rows.Next() {
		row, err := rows.ScanRow()
		require.NoError(t, err)
		skus = append(skus, row[0])
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []any{"A-1", "B-2"}, skus)
}
