package scanner

import (
	"errors"
	"fmt"
	"io"
	"reflect"
)

// sliceRowsScanner serves rows held in memory. Column metadata is inferred
// from the first row.
type sliceRowsScanner struct {
	rows    [][]any
	names   []string
	columns []Column
	lastRow []any
	cursor  int
}

// FromData wraps rows. Columns are named column_0, column_1, ... unless
// names are given.
func FromData(rows [][]any, names ...string) Rows {
	s := &sliceRowsScanner{rows: rows, names: names}
	s.columns, _ = s.Columns()
	return s
}

func (s *sliceRowsScanner) Driver() string {
	return "go-slice"
}

func (s *sliceRowsScanner) Err() error {
	return nil
}

func (s *sliceRowsScanner) Next() bool {
	if s.cursor >= len(s.rows) {
		return false
	}
	s.lastRow = s.rows[s.cursor]
	return true
}

// ScanRow returns the row selected by Next and moves past it.
func (s *sliceRowsScanner) ScanRow() ([]any, error) {
	if s.cursor >= len(s.rows) {
		return nil, io.EOF
	}
	if s.lastRow == nil {
		return nil, errors.New("scanner: scan called without calling Next")
	}
	if len(s.lastRow) != len(s.columns) {
		return nil, fmt.Errorf("length of row %d != length of the first row: %d != %d", s.cursor+1, len(s.lastRow), len(s.columns))
	}
	s.cursor++
	return s.lastRow, nil
}

func (s *sliceRowsScanner) Columns() ([]Column, error) {
	if s.columns != nil {
		return s.columns, nil
	}
	if len(s.rows) == 0 {
		return s.columns, nil
	}
	for i, v := range s.rows[0] {
		c := &mockColumn{name: fmt.Sprintf("column_%d", i)}
		if i < len(s.names) {
			c.name = s.names[i]
		}
		if v != nil {
			c.goType = reflect.TypeOf(v)
		}
		s.columns = append(s.columns, c)
	}
	return s.columns, nil
}
