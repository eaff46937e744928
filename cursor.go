package dbrelay

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-data-exporter/dbrelay/document"
	"github.com/go-data-exporter/dbrelay/sqlerr"
	"github.com/go-data-exporter/dbrelay/sqltype"
	"github.com/go-data-exporter/dbrelay/transport"
)

// Cursor runs statements on a Connection and walks their result sets.
//
// A cursor starts open with nothing loaded. Execute replaces whatever was
// loaded with the statement's first result set; NextSet moves to the
// following ones. After Close every method fails with an InternalError.
// A Cursor must not be used from several goroutines at once.
type Cursor struct {
	// RowCount is always -1: the relay does not report row counts.
	RowCount int
	// ArraySize is the default batch size of FetchMany.
	ArraySize int

	conn        *Connection
	open        bool
	doc         *document.Document
	setIdx      int
	rowIdx      int
	description []Column
}

func newCursor(conn *Connection) *Cursor {
	return &Cursor{
		RowCount:  -1,
		ArraySize: 1,
		conn:      conn,
		open:      true,
		setIdx:    -1,
	}
}

func (c *Cursor) checkOpen() error {
	if !c.open {
		return sqlerr.Internal("cursor is closed")
	}
	return nil
}

// Connection returns the connection the cursor was created from.
func (c *Cursor) Connection() *Connection {
	return c.conn
}

// Execute sends one statement and loads its first result set. params, when
// not empty, are substituted into %(name)s placeholders. A relay-reported
// failure is returned as a DatabaseError carrying the relay's message and
// leaves nothing loaded.
func (c *Cursor) Execute(ctx context.Context, operation string, params map[string]any) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	query, err := substitute(operation, params)
	if err != nil {
		return err
	}

	c.reset()
	c.conn.log.WithField("bytes", len(query)).Debug("Executing statement")

	body, err := c.conn.opts.transport.Exchange(ctx, c.conn.url, c.conn.request(query))
	if err != nil {
		return exchangeError(err)
	}

	doc, err := document.Parse(body)
	if err != nil {
		return err
	}
	if msg, ok := doc.ErrorMessage(); ok {
		return sqlerr.Database(msg)
	}

	c.doc = doc
	_, err = c.NextSet()
	return err
}

// ExecuteMany runs Execute once per parameter set, in order, and stops at
// the first failure. Only the last statement's results stay loaded.
func (c *Cursor) ExecuteMany(ctx context.Context, operation string, seq []map[string]any) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	for _, params := range seq {
		if err := c.Execute(ctx, operation, params); err != nil {
			return err
		}
	}
	return nil
}

// exchangeError classifies a transport failure. An HTTP error whose body is
// a relay error document still reports the relay's message.
func exchangeError(err error) error {
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		if doc, perr := document.Parse(statusErr.Body); perr == nil {
			if msg, ok := doc.ErrorMessage(); ok {
				return sqlerr.Database(msg)
			}
		}
	}
	return sqlerr.Wrap(sqlerr.ClassOperational, err.Error(), err)
}

func (c *Cursor) reset() {
	c.doc = nil
	c.setIdx = -1
	c.rowIdx = 0
	c.description = nil
}

// NextSet moves to the next result set. It returns false, leaving the
// cursor as it is, when nothing is loaded or the last set is already
// active.
func (c *Cursor) NextSet() (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	if !c.HasNextSet() {
		return false, nil
	}
	c.setIdx++
	c.rowIdx = 0
	c.description = columnsOf(c.doc.Fields(c.setIdx))
	return true, nil
}

// HasNextSet reports whether NextSet would advance.
func (c *Cursor) HasNextSet() bool {
	return c.doc != nil && c.setIdx < c.doc.ResultSetCount()-1
}

// ResultSetIndex is the position of the active result set, -1 when none.
func (c *Cursor) ResultSetIndex() int {
	return c.setIdx
}

// Description describes the columns of the active result set, nil when
// none is loaded.
func (c *Cursor) Description() []Column {
	if c.description == nil {
		return nil
	}
	return append([]Column(nil), c.description...)
}

// FetchOne returns the next row of the active result set, or nil once the
// set is exhausted. Values are coerced by their column's wire type.
func (c *Cursor) FetchOne() ([]any, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if c.doc == nil {
		return nil, sqlerr.New(sqlerr.ClassError, "No result set.")
	}
	if c.doc.ResultSetCount() == 0 {
		return nil, sqlerr.New(sqlerr.ClassError, "Empty result set.")
	}

	rows := c.doc.Rows(c.setIdx)
	if c.rowIdx >= len(rows) {
		return nil, nil
	}
	record := rows[c.rowIdx]
	// A row that fails coercion is consumed all the same.
	c.rowIdx++

	row := make([]any, len(c.description))
	for i, col := range c.description {
		v, err := sqltype.Coerce(record[col.Name], col.TypeCode)
		if err != nil {
			return nil, sqlerr.Wrap(sqlerr.ClassData, fmt.Sprintf("column %q: %v", col.Name, err), err)
		}
		row[i] = v
	}
	return row, nil
}

// FetchMany returns up to size rows, fewer when the set runs out. size <= 0
// means ArraySize.
func (c *Cursor) FetchMany(size int) ([][]any, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = c.ArraySize
	}

	var out [][]any
	for len(out) < size {
		row, err := c.FetchOne()
		if err != nil {
			return out, err
		}
		if row == nil {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

// FetchAll returns every remaining row of the active result set.
func (c *Cursor) FetchAll() ([][]any, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	var out [][]any
	for {
		row, err := c.FetchOne()
		if err != nil {
			return out, err
		}
		if row == nil {
			return out, nil
		}
		out = append(out, row)
	}
}

// SetInputSizes is accepted and ignored.
func (c *Cursor) SetInputSizes(sizes ...any) error {
	return c.checkOpen()
}

// SetOutputSize is accepted and ignored.
func (c *Cursor) SetOutputSize(size int, column ...int) error {
	return c.checkOpen()
}

// Close drops the loaded results. Closing twice is fine.
func (c *Cursor) Close() error {
	c.open = false
	c.reset()
	return nil
}
