package scanner

import "reflect"

// Column mirrors the parts of *sql.ColumnType the codecs use, so every source
// can describe its columns the same way. DatabaseTypeName is the relay's wire
// tag for cursor columns.
type Column interface {
	Name() string
	Length() (length int64, ok bool)
	DecimalSize() (precision, scale int64, ok bool)
	ScanType() reflect.Type
	Nullable() (nullable, ok bool)
	DatabaseTypeName() string
}

// mockColumn describes a column of in-memory data by the Go type of its
// first value.
type mockColumn struct {
	name   string
	goType reflect.Type
}

func (c *mockColumn) Name() string {
	return c.name
}

func (c *mockColumn) Length() (length int64, ok bool) {
	return 0, false
}

func (c *mockColumn) DecimalSize() (precision, scale int64, ok bool) {
	return 0, 0, false
}

func (c *mockColumn) ScanType() reflect.Type {
	return c.goType
}

func (c *mockColumn) Nullable() (nullable, ok bool) {
	return c.goType == nil, true
}

func (c *mockColumn) DatabaseTypeName() string {
	if c.goType == nil {
		return "nil"
	}
	return c.goType.String()
}
