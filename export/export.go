// Package export writes result sets to files and streams through a codec.
package export

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/go-data-exporter/dbrelay"
	"github.com/go-data-exporter/dbrelay/codec"
	"github.com/go-data-exporter/dbrelay/scanner"
)

type Exporter struct {
	rows  scanner.Rows
	codec codec.Codec
}

func New(rows scanner.Rows, codec codec.Codec) *Exporter {
	return &Exporter{
		rows:  rows,
		codec: codec,
	}
}

func (e *Exporter) Write(writer io.Writer) error {
	return e.codec.Write(e.rows, writer)
}

// WriteFile creates or truncates filename and writes the rows into it.
func (e *Exporter) WriteFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := e.Write(f); err != nil {
		return err
	}
	return f.Close()
}

// Separator is written before result set index (0 based) when there is more
// than one to write.
type Separator func(w io.Writer, index int) error

// QueryHeader labels each result set "=> Query N:", N counting from 1.
func QueryHeader(w io.Writer, index int) error {
	prefix := ""
	if index > 0 {
		prefix = "\n"
	}
	_, err := fmt.Fprintf(w, "%s=> Query %d:\n\n", prefix, index+1)
	return err
}

// WriteResultSets writes the active result set of cursor and every one after
// it. sep may be nil. A cursor without a result set writes nothing.
func WriteResultSets(cursor *dbrelay.Cursor, c codec.Codec, w io.Writer, sep Separator) error {
	if cursor.ResultSetIndex() < 0 {
		return nil
	}
	multi := cursor.HasNextSet() || cursor.ResultSetIndex() > 0
	for index := 0; ; index++ {
		if multi && sep != nil {
			if err := sep(w, index); err != nil {
				return err
			}
		}
		if err := c.Write(scanner.FromCursor(cursor), w); err != nil {
			return fmt.Errorf("result set %d: %w", cursor.ResultSetIndex(), err)
		}
		ok, err := cursor.NextSet()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// WriteSQLResultSets is WriteResultSets for rows opened through
// database/sql, for instance with the dbrelay driver. The rows cannot tell
// ahead whether more sets follow, so sep runs before every set.
func WriteSQLResultSets(rows *sql.Rows, driver string, c codec.Codec, w io.Writer, sep Separator) error {
	src := scanner.FromSQL(rows, driver)
	next, _ := src.(interface{ NextResultSet() bool })
	for index := 0; ; index++ {
		if sep != nil {
			if err := sep(w, index); err != nil {
				return err
			}
		}
		if err := c.Write(src, w); err != nil {
			return fmt.Errorf("result set %d: %w", index, err)
		}
		if next == nil || !next.NextResultSet() {
			return rows.Err()
		}
	}
}
