package scanner

import (
	"io"
	"reflect"

	"github.com/go-data-exporter/dbrelay"
	"github.com/go-data-exporter/dbrelay/sqltype"
)

// cursorRowsScanner walks the active result set of a relay cursor. Values
// arrive already coerced by their wire type.
type cursorRowsScanner struct {
	cursor  *dbrelay.Cursor
	columns []Column
	row     []any
	err     error
}

// FromCursor reads the active result set of cursor with FetchOne. Move to
// the next set with cursor.NextSet and wrap it again.
func FromCursor(cursor *dbrelay.Cursor) Rows {
	return &cursorRowsScanner{cursor: cursor}
}

func (c *cursorRowsScanner) Next() bool {
	if c.err != nil {
		return false
	}
	c.row, c.err = c.cursor.FetchOne()
	return c.err == nil && c.row != nil
}

func (c *cursorRowsScanner) ScanRow() ([]any, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.row == nil {
		return nil, io.EOF
	}
	return c.row, nil
}

func (c *cursorRowsScanner) Columns() ([]Column, error) {
	if c.columns != nil {
		return c.columns, nil
	}
	for _, col := range c.cursor.Description() {
		c.columns = append(c.columns, &relayColumn{col: col})
	}
	return c.columns, nil
}

func (c *cursorRowsScanner) Driver() string {
	return "dbrelay"
}

func (c *cursorRowsScanner) Err() error {
	return c.err
}

type relayColumn struct {
	col dbrelay.Column
}

func (c *relayColumn) Name() string {
	return c.col.Name
}

// Length is the declared precision of string and binary columns.
func (c *relayColumn) Length() (length int64, ok bool) {
	cat, known := c.col.Category()
	if !known || (cat != sqltype.String && cat != sqltype.Binary) || !c.col.Precision.Valid {
		return 0, false
	}
	return c.col.Precision.Int64, true
}

func (c *relayColumn) DecimalSize() (precision, scale int64, ok bool) {
	cat, known := c.col.Category()
	if !known || cat != sqltype.Number || !c.col.Precision.Valid {
		return 0, 0, false
	}
	return c.col.Precision.Int64, c.col.Scale.Int64, true
}

func (c *relayColumn) ScanType() reflect.Type {
	return sqltype.ScanTypeOf(c.col.TypeCode)
}

// Nullable is unknown: the relay does not report it.
func (c *relayColumn) Nullable() (nullable, ok bool) {
	return false, false
}

func (c *relayColumn) DatabaseTypeName() string {
	return c.col.TypeCode
}
