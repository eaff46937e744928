package driver

import (
	sqldriver "database/sql/driver"
	"encoding/json"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/go-data-exporter/dbrelay"
	"github.com/go-data-exporter/dbrelay/sqltype"
)

var jsonStd = jsoniter.ConfigCompatibleWithStandardLibrary

// rows walks the result sets of one cursor. Closing the rows closes the
// cursor.
type rows struct {
	cursor  *dbrelay.Cursor
	columns []dbrelay.Column
}

var (
	_ sqldriver.Rows                           = (*rows)(nil)
	_ sqldriver.RowsNextResultSet              = (*rows)(nil)
	_ sqldriver.RowsColumnTypeDatabaseTypeName = (*rows)(nil)
	_ sqldriver.RowsColumnTypeScanType         = (*rows)(nil)
	_ sqldriver.RowsColumnTypePrecisionScale   = (*rows)(nil)
	_ sqldriver.RowsColumnTypeLength           = (*rows)(nil)
)

func (r *rows) description() []dbrelay.Column {
	if r.columns == nil {
		r.columns = r.cursor.Description()
	}
	return r.columns
}

func (r *rows) Columns() []string {
	cols := r.description()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func (r *rows) Close() error {
	return r.cursor.Close()
}

// Next returns io.EOF at the end of the set, and also for a statement that
// produced no result set at all.
func (r *rows) Next(dest []sqldriver.Value) error {
	if r.cursor.ResultSetIndex() < 0 {
		return io.EOF
	}
	row, err := r.cursor.FetchOne()
	if err != nil {
		return err
	}
	if row == nil {
		return io.EOF
	}
	for i := range dest {
		if i < len(row) {
			dest[i] = driverValue(row[i])
		}
	}
	return nil
}

// driverValue narrows coerced values to the types database/sql handles.
func driverValue(v any) sqldriver.Value {
	switch v := v.(type) {
	case nil, int64, float64, bool, string, []byte, time.Time:
		return v
	case decimal.Decimal:
		return v.String()
	case json.Number:
		return v.String()
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	if data, err := jsonStd.Marshal(v); err == nil {
		return string(data)
	}
	return v
}

func (r *rows) HasNextResultSet() bool {
	return r.cursor.HasNextSet()
}

func (r *rows) NextResultSet() error {
	ok, err := r.cursor.NextSet()
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	r.columns = nil
	return nil
}

// ColumnTypeDatabaseTypeName is the upper-cased wire type tag.
func (r *rows) ColumnTypeDatabaseTypeName(index int) string {
	return strings.ToUpper(r.description()[index].TypeCode)
}

func (r *rows) ColumnTypeScanType(index int) reflect.Type {
	typ := sqltype.ScanTypeOf(r.description()[index].TypeCode)
	if typ == reflect.TypeOf(decimal.Decimal{}) {
		return reflect.TypeOf("")
	}
	return typ
}

func (r *rows) ColumnTypePrecisionScale(index int) (precision, scale int64, ok bool) {
	col := r.description()[index]
	if cat, known := col.Category(); !known || cat != sqltype.Number || !col.Precision.Valid {
		return 0, 0, false
	}
	return col.Precision.Int64, col.Scale.Int64, true
}

func (r *rows) ColumnTypeLength(index int) (length int64, ok bool) {
	col := r.description()[index]
	cat, known := col.Category()
	if !known || (cat != sqltype.String && cat != sqltype.Binary) || !col.Precision.Valid {
		return 0, false
	}
	return col.Precision.Int64, true
}
