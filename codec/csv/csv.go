package csvcodec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/go-data-exporter/dbrelay/scanner"
	"github.com/go-data-exporter/dbrelay/tostring"
)

type csvCodec struct {
	customMapper     map[reflect.Type]func(any, string, scanner.Column) string
	preProcessorFunc func(row []string) ([]string, bool)
	delimiter        rune
	useCRLF          bool
	writeHeader      bool
	customHeader     []string
	nullValue        string
	limit            int
}

type Option func(*csvCodec)

func New(opts ...Option) *csvCodec {
	cw := &csvCodec{
		customMapper: make(map[reflect.Type]func(any, string, scanner.Column) string),
		delimiter:    ',',
		useCRLF:      false,
		writeHeader:  true,
		limit:        -1,
	}
	for _, opt := range opts {
		opt(cw)
	}
	return cw
}

func WithCustomType[T any](fn func(v T, driver string, column scanner.Column) string) Option {
	return func(cw *csvCodec) {
		var zero T
		typ := reflect.TypeOf(zero)
		if cw.customMapper == nil {
			cw.customMapper = make(map[reflect.Type]func(any, string, scanner.Column) string)
		}
		cw.customMapper[typ] = func(v any, driver string, column scanner.Column) string {
			return fn(v.(T), driver, column)
		}
	}
}

func (cs *csvCodec) Write(rows scanner.Rows, writer io.Writer) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	columnNames := []string{}
	for _, col := range cols {
		columnNames = append(columnNames, col.Name())
	}
	header := columnNames
	if cs.customHeader != nil {
		if len(cs.customHeader) != len(columnNames) {
			return errors.New("invalid header length")
		}
		header = cs.customHeader
	}
	csvWriter := csv.NewWriter(writer)
	if cs.delimiter != 0 {
		csvWriter.Comma = cs.delimiter
	}
	csvWriter.UseCRLF = cs.useCRLF

	if cs.writeHeader && len(header) != 0 {
		if err = csvWriter.Write(header); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	written := 0
	for cs.limit < 0 || written < cs.limit {
		if !rows.Next() {
			break
		}
		values, err := rows.ScanRow()
		if err != nil {
			return err
		}
		row := make([]string, len(values))
		for i := range columnNames {
			row[i] = cs.toString(values[i], rows.Driver(), cols[i])
		}
		writeRow := true
		if cs.preProcessorFunc != nil {
			row, writeRow = cs.preProcessorFunc(row)
		}
		if writeRow {
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
			written++
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return err
	}
	return rows.Err()
}

// toString renders v for its column, or the configured NULL text.
func (cs *csvCodec) toString(v any, driver string, column scanner.Column) string {
	if v == nil {
		return cs.nullValue
	}
	if fn, ok := cs.customMapper[reflect.TypeOf(v)]; ok {
		return fn(v, driver, column)
	}
	s := tostring.ForType(v, column.DatabaseTypeName())
	if s.IsNULL {
		return cs.nullValue
	}
	return s.String
}

func WithPreProcessorFunc(fn func(row []string) ([]string, bool)) Option {
	return func(cw *csvCodec) {
		cw.preProcessorFunc = fn
	}
}

func WithCustomDelimiter(delimiter rune) Option {
	return func(cw *csvCodec) {
		cw.delimiter = delimiter
	}
}

func WithCRLF(useCRLF bool) Option {
	return func(cw *csvCodec) {
		cw.useCRLF = useCRLF
	}
}

func WithHeader(writeHeader bool) Option {
	return func(cw *csvCodec) {
		cw.writeHeader = writeHeader
	}
}

func WithCustomHeader(customHeader []string) Option {
	return func(cw *csvCodec) {
		cw.customHeader = customHeader
	}
}

func WithCustomNULL(nullValue string) Option {
	return func(cw *csvCodec) {
		cw.nullValue = nullValue
	}
}

// WithLimit caps the number of rows written. Negative means unlimited.
func WithLimit(limit int) Option {
	return func(cw *csvCodec) {
		cw.limit = limit
	}
}
