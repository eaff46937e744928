// Package tablecodec renders a result set as an aligned text table for
// terminals.
package tablecodec

import (
	"bufio"
	"io"
	"reflect"

	"github.com/olekukonko/tablewriter"

	"github.com/go-data-exporter/dbrelay/scanner"
	"github.com/go-data-exporter/dbrelay/tostring"
)

type tableCodec struct {
	customMapper map[reflect.Type]func(any, scanner.Metadata) tostring.String
	nullValue    string
	writeHeader  bool
	showTypes    bool
	limit        int
}

type Option func(*tableCodec)

func New(opts ...Option) *tableCodec {
	c := &tableCodec{
		customMapper: make(map[reflect.Type]func(any, scanner.Metadata) tostring.String),
		nullValue:    "NULL",
		writeHeader:  true,
		limit:        -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithCustomType[T any](fn func(v T, metadata scanner.Metadata) tostring.String) Option {
	return func(c *tableCodec) {
		var zero T
		typ := reflect.TypeOf(zero)
		if c.customMapper == nil {
			c.customMapper = make(map[reflect.Type]func(any, scanner.Metadata) tostring.String)
		}
		c.customMapper[typ] = func(v any, metadata scanner.Metadata) tostring.String {
			return fn(v.(T), metadata)
		}
	}
}

func WithCustomNULL(nullValue string) Option {
	return func(c *tableCodec) {
		c.nullValue = nullValue
	}
}

func WithHeader(writeHeader bool) Option {
	return func(c *tableCodec) {
		c.writeHeader = writeHeader
	}
}

// WithTypes adds the wire type under each column name.
func WithTypes(showTypes bool) Option {
	return func(c *tableCodec) {
		c.showTypes = showTypes
	}
}

func WithLimit(limit int) Option {
	return func(c *tableCodec) {
		c.limit = limit
	}
}

// Write buffers the whole result set, column widths depend on every row.
func (c *tableCodec) Write(rows scanner.Rows, writer io.Writer) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(writer)
	table := tablewriter.NewWriter(bw)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	if c.writeHeader {
		header := make([]string, len(cols))
		for i, col := range cols {
			header[i] = col.Name()
			if c.showTypes && col.DatabaseTypeName() != "" {
				header[i] += "\n" + col.DatabaseTypeName()
			}
		}
		table.SetHeader(header)
	}

	rowID := 0
	for c.limit < 0 || rowID < c.limit {
		if !rows.Next() {
			break
		}
		values, err := rows.ScanRow()
		if err != nil {
			return err
		}
		rowID++
		data := make([]string, len(values))
		for i := range values {
			data[i] = c.toString(values[i], scanner.Metadata{
				RowID:  rowID,
				Driver: rows.Driver(),
				Column: cols[i],
			})
		}
		table.Append(data)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	table.Render()
	return bw.Flush()
}

func (c *tableCodec) toString(v any, metadata scanner.Metadata) string {
	s := tostring.String{IsNULL: true}
	if v != nil {
		if fn, ok := c.customMapper[reflect.TypeOf(v)]; ok {
			s = fn(v, metadata)
		} else {
			s = tostring.ForType(v, metadata.Column.DatabaseTypeName())
		}
	}
	if s.IsNULL {
		return c.nullValue
	}
	return s.String
}
