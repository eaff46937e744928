package scanner

import "database/sql"

// sqlRowsScanner adapts *sql.Rows, typically opened through the dbrelay
// database/sql driver. Next and Err come from the embedded rows.
type sqlRowsScanner struct {
	*sql.Rows

	driver         string
	columns        []Column
	currentRow     []any
	currentRowPtrs []any
}

// FromSQL wraps rows. driver names the database/sql driver that produced
// them and is passed on to custom mappers.
func FromSQL(rows *sql.Rows, driver string) Rows {
	return &sqlRowsScanner{Rows: rows, driver: driver}
}

type sqlColumn struct {
	*sql.ColumnType
	index int
}

// Index is the column's position in the result set.
func (c *sqlColumn) Index() int {
	return c.index
}

func (s *sqlRowsScanner) Columns() ([]Column, error) {
	if s.columns != nil {
		return s.columns, nil
	}
	cc, err := s.Rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	for i, c := range cc {
		s.columns = append(s.columns, &sqlColumn{
			ColumnType: c,
			index:      i,
		})
	}
	return s.columns, nil
}

// ScanRow scans the current row into a reused slice; the slice is
// overwritten by the next call.
func (s *sqlRowsScanner) ScanRow() ([]any, error) {
	if s.columns == nil {
		if _, err := s.Columns(); err != nil {
			return nil, err
		}
	}
	if s.currentRow == nil {
		s.currentRow = make([]any, len(s.columns))
		s.currentRowPtrs = make([]any, len(s.columns))
		for i := range s.currentRow {
			s.currentRowPtrs[i] = &s.currentRow[i]
		}
	}
	if err := s.Rows.Scan(s.currentRowPtrs...); err != nil {
		return nil, err
	}
	return s.currentRow, nil
}

func (s *sqlRowsScanner) Driver() string {
	return s.driver
}

// NextResultSet resets the column cache when the rows move on.
func (s *sqlRowsScanner) NextResultSet() bool {
	s.columns = nil
	s.currentRow = nil
	s.currentRowPtrs = nil
	return s.Rows.NextResultSet()
}
