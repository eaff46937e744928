// Package xmlcodec writes a result set as an XML document: one <row> per
// row, one element per non-NULL column.
package xmlcodec

import (
	"encoding/xml"
	"io"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-data-exporter/dbrelay/scanner"
	"github.com/go-data-exporter/dbrelay/tostring"
)

type xmlCodec struct {
	customMapper     map[reflect.Type]func(any, scanner.Metadata) tostring.String
	preProcessorFunc func(rowID int, row []string) ([]string, bool)
	limit            int
}

type Option func(*xmlCodec)

func New(opts ...Option) *xmlCodec {
	c := &xmlCodec{
		customMapper: make(map[reflect.Type]func(any, scanner.Metadata) tostring.String),
		limit:        -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCustomType registers a string conversion for values of type T.
func WithCustomType[T any](fn func(v T, metadata scanner.Metadata) tostring.String) Option {
	return func(c *xmlCodec) {
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

// WithPreProcessorFunc filters or rewrites rows before they are written.
func WithPreProcessorFunc(fn func(rowID int, row []string) ([]string, bool)) Option {
	return func(c *xmlCodec) {
		c.preProcessorFunc = fn
	}
}

// WithLimit caps the number of rows written. Negative means unlimited.
func WithLimit(limit int) Option {
	return func(c *xmlCodec) {
		c.limit = limit
	}
}

// Write writes nothing at all for an empty result set.
func (c *xmlCodec) Write(rows scanner.Rows, writer io.Writer) error {
	if c.limit == 0 {
		return nil
	}
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = elementName(col.Name())
	}

	w := &errWriter{w: writer}
	rowID := 0
	defer func() {
		if rowID > 0 {
			w.write("</data>\n")
		}
	}()
	for rows.Next() {
		values, err := rows.ScanRow()
		if err != nil {
			return err
		}
		row := make([]string, len(values))
		isNULL := make([]bool, len(values))
		for i := range values {
			meta := scanner.Metadata{
				RowID:  rowID + 1,
				Driver: rows.Driver(),
				Column: cols[i],
			}
			s := c.toString(values[i], meta)
			isNULL[i] = s.IsNULL
			row[i] = s.String
		}

		writeRow := true
		if c.preProcessorFunc != nil {
			row, writeRow = c.preProcessorFunc(rowID+1, row)
		}
		if !writeRow {
			continue
		}
		if rowID == 0 {
			w.write(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<data>\n")
		}
		w.write("<row>")
		for i := range row {
			if isNULL[i] {
				continue
			}
			w.write("<" + names[i] + ">")
			w.escape(row[i])
			w.write("</" + names[i] + ">")
		}
		w.write("</row>\n")
		if w.err != nil {
			return w.err
		}
		rowID++
		if c.limit >= 0 && rowID >= c.limit {
			return nil
		}
	}

	return rows.Err()
}

func (c *xmlCodec) toString(v any, metadata scanner.Metadata) tostring.String {
	if v == nil {
		return tostring.String{IsNULL: true}
	}
	if fn, ok := c.customMapper[reflect.TypeOf(v)]; ok {
		return fn(v, metadata)
	}
	return tostring.ForType(v, metadata.Column.DatabaseTypeName())
}

// elementName turns a column name into a valid XML element name. Relay
// columns can be computed expressions such as count(*).
func elementName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *errWriter) escape(s string) {
	if e.err != nil {
		return
	}
	e.err = xml.EscapeText(e.w, []byte(s))
}
