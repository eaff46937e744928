package dbrelay

import (
	"database/sql"

	"github.com/go-data-exporter/dbrelay/document"
	"github.com/go-data-exporter/dbrelay/sqltype"
)

// Column is one entry of Cursor.Description. DisplaySize and InternalSize
// are never reported by the relay and stay invalid.
type Column struct {
	Name         string
	TypeCode     string
	DisplaySize  sql.NullInt64
	InternalSize sql.NullInt64
	Precision    sql.NullInt64
	Scale        sql.NullInt64
}

func columnsOf(fields []document.Field) []Column {
	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = Column{
			Name:      f.Name,
			TypeCode:  f.SQLType,
			Precision: f.Precision,
			Scale:     f.Scale,
		}
	}
	return cols
}

// Category is the type object the column's wire type belongs to.
func (c Column) Category() (sqltype.Category, bool) {
	return sqltype.Lookup(c.TypeCode)
}
