// Package scanner adapts the sources a result set can come from (a relay
// cursor, database/sql rows, in-memory data) to one row iterator the codecs
// consume.
package scanner

// Rows iterates one result set. Next advances, ScanRow returns the current
// row, Err reports what stopped the iteration.
type Rows interface {
	Next() bool
	ScanRow() ([]any, error)
	Columns() ([]Column, error)
	Driver() string
	Err() error
}

// Metadata is handed to custom value mappers.
type Metadata struct {
	RowID  int
	Driver string
	Column Column
}
