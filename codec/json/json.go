package jsoncodec

import (
	"io"
	"reflect"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/go-data-exporter/dbrelay/scanner"
	"github.com/go-data-exporter/dbrelay/tostring"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Option func(*jsonCodec)

type jsonCodec struct {
	customMapper     map[reflect.Type]func(any, scanner.Metadata) any
	preProcessorFunc func(rowID int, row map[string]any) (map[string]any, bool)
	newlineDelimited bool
	limit            int
}

func New(opts ...Option) *jsonCodec {
	c := &jsonCodec{
		customMapper: make(map[reflect.Type]func(any, scanner.Metadata) any),
		limit:        -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithPreProcessorFunc(fn func(rowID int, row map[string]any) (map[string]any, bool)) Option {
	return func(c *jsonCodec) {
		c.preProcessorFunc = fn
	}
}

// WithNewlineDelimited writes one object per line instead of an array.
func WithNewlineDelimited(isNewlineDelimited bool) Option {
	return func(c *jsonCodec) {
		c.newlineDelimited = isNewlineDelimited
	}
}

func WithCustomType[T any](fn func(v T, metadata scanner.Metadata) any) Option {
	return func(c *jsonCodec) {
		var zero T
		typ := reflect.TypeOf(zero)
		if c.customMapper == nil {
			c.customMapper = make(map[reflect.Type]func(any, scanner.Metadata) any)
		}
		c.customMapper[typ] = func(v any, metadata scanner.Metadata) any {
			return fn(v.(T), metadata)
		}
	}
}

func WithLimit(limit int) Option {
	return func(c *jsonCodec) {
		c.limit = limit
	}
}

// Write encodes each row as an object keyed by column name. An empty result
// set writes nothing in NDJSON mode and "[]" otherwise.
func (c *jsonCodec) Write(rows scanner.Rows, writer io.Writer) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	columnNames := []string{}
	for _, col := range cols {
		columnNames = append(columnNames, col.Name())
	}
	rowID := 1
	if c.limit != 0 {
		for rows.Next() {
			values, err := rows.ScanRow()
			if err != nil {
				return err
			}
			row := make(map[string]any, len(values))
			for i, col := range columnNames {
				meta := scanner.Metadata{
					RowID:  rowID,
					Driver: rows.Driver(),
					Column: cols[i],
				}
				row[col] = c.value(values[i], meta)
			}

			writeRow := true
			if c.preProcessorFunc != nil {
				row, writeRow = c.preProcessorFunc(rowID, row)
			}
			if !writeRow {
				continue
			}

			data, err := json.Marshal(row)
			if err != nil {
				return err
			}
			if !c.newlineDelimited {
				prefix := ",\n"
				if rowID == 1 {
					prefix = "[\n"
				}
				if _, err := io.WriteString(writer, prefix); err != nil {
					return err
				}
				if _, err := writer.Write(data); err != nil {
					return err
				}
			} else {
				if _, err := writer.Write(append(data, '\n')); err != nil {
					return err
				}
			}
			rowID++
			if c.limit >= 0 && rowID > c.limit {
				break
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}
	if c.newlineDelimited {
		return nil
	}
	closing := "\n]\n"
	if rowID == 1 {
		closing = "[]\n"
	}
	_, err = io.WriteString(writer, closing)
	return err
}

// value maps v through a custom mapper when one is registered. Otherwise
// bytes become text and date or time columns keep only their own part.
func (c *jsonCodec) value(v any, meta scanner.Metadata) any {
	if v == nil {
		return nil
	}
	if fn, ok := c.customMapper[reflect.TypeOf(v)]; ok {
		return fn(v, meta)
	}
	switch v := v.(type) {
	case []byte:
		return string(v)
	case time.Time:
		s := tostring.ForType(v, meta.Column.DatabaseTypeName())
		if s.IsNULL {
			return nil
		}
		return s.String
	}
	return v
}
