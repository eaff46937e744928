// Package dbrelay is a cursor-style client for dbrelay, an HTTP service that
// runs SQL against a backing database server and answers in JSON.
//
//	conn, err := dbrelay.Connect(ctx, "http://relay:1433/sql", dbrelay.Params{
//		Server:   "db1",
//		Database: "sales",
//		User:     "report",
//		Password: secret,
//	})
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	cur, err := conn.Cursor()
//	if err != nil {
//		return err
//	}
//	defer cur.Close()
//
//	if err := cur.Execute(ctx, "select id, total from orders", nil); err != nil {
//		return err
//	}
//	rows, err := cur.FetchAll()
//
// Each Execute is a single blocking POST; the whole response is held in
// memory until the next Execute or Close.
package dbrelay

import (
	"time"

	"github.com/go-data-exporter/dbrelay/sqlerr"
	"github.com/go-data-exporter/dbrelay/sqltype"
)

// Module level DB-API attributes.
const (
	APILevel = "2.0"
	// ThreadSafety 1: connections may be shared between goroutines, a
	// single cursor may not.
	ThreadSafety = 1
	ParamStyle   = "pyformat"
	Version      = "0.7.0"
)

// Type objects. NUMBER.Contains(col.TypeCode) tells whether a column is
// numeric; Column.Category looks the category up directly.
const (
	STRING   = sqltype.String
	BINARY   = sqltype.Binary
	NUMBER   = sqltype.Number
	DATETIME = sqltype.DateTime
	ROWID    = sqltype.RowID
)

// Error classes, see package sqlerr.
var (
	ErrError        = sqlerr.ErrError
	ErrWarning      = sqlerr.ErrWarning
	ErrInterface    = sqlerr.ErrInterface
	ErrInternal     = sqlerr.ErrInternal
	ErrDatabase     = sqlerr.ErrDatabase
	ErrOperational  = sqlerr.ErrOperational
	ErrProgramming  = sqlerr.ErrProgramming
	ErrIntegrity    = sqlerr.ErrIntegrity
	ErrData         = sqlerr.ErrData
	ErrNotSupported = sqlerr.ErrNotSupported
)

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Time returns a time of day, placed on January 1 of year 0 like the
// values of "time" columns.
func Time(hour, minute, second int) time.Time {
	return time.Date(0, time.January, 1, hour, minute, second, 0, time.UTC)
}

func Timestamp(year int, month time.Month, day, hour, minute, second int) time.Time {
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}

// DateFromTicks truncates the Unix time ticks to its UTC day.
func DateFromTicks(ticks int64) time.Time {
	t := time.Unix(ticks, 0).UTC()
	return Date(t.Year(), t.Month(), t.Day())
}

// TimeFromTicks keeps the UTC time of day of the Unix time ticks.
func TimeFromTicks(ticks int64) time.Time {
	t := time.Unix(ticks, 0).UTC()
	return Time(t.Hour(), t.Minute(), t.Second())
}

func TimestampFromTicks(ticks int64) time.Time {
	return time.Unix(ticks, 0).UTC()
}

func Binary(s string) []byte {
	return []byte(s)
}
