// Package document is a read-only view over the JSON document the relay
// returns for one executed statement.
//
// A document either carries an error (`{"log": {"error": "..."}}`) or zero or
// more result sets (`{"data": [{"fields": [...], "rows": [...]}]}`). Result
// sets are addressed by position; every accessor tolerates an out-of-range
// index and returns an empty value, so callers can probe bounds freely.
package document

import (
	"database/sql"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"

	"github.com/go-data-exporter/dbrelay/sqlerr"
)

// json keeps numbers as json.Number so decimals survive with their exact
// text until the type taxonomy decides what they are.
var json = jsoniter.Config{
	EscapeHTML:             true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Field describes one column of a result set.
type Field struct {
	Name      string
	SQLType   string
	Precision sql.NullInt64
	Scale     sql.NullInt64
}

// Row maps a field name to its raw wire value: string, json.Number, bool or
// nil.
type Row map[string]any

// ResultSet is one table of a response.
type ResultSet struct {
	Fields []Field
	Rows   []Row
}

// Document is a parsed relay response.
type Document struct {
	errMsg   string
	hasError bool
	sets     []ResultSet
}

// wireField is the shape of a field entry, decoded with mapstructure.
type wireField struct {
	Name      string `mapstructure:"name"`
	SQLType   string `mapstructure:"sql_type"`
	Precision *int64 `mapstructure:"precision"`
	Scale     *int64 `mapstructure:"scale"`
}

// Parse decodes a response body.
func Parse(body []byte) (*Document, error) {
	var tree map[string]any
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, sqlerr.Wrap(sqlerr.ClassOperational, fmt.Sprintf("invalid relay response: %v", err), err)
	}
	return New(tree)
}

// New wraps an already parsed JSON tree. An empty tree is an interface
// error: the relay always answers with at least a log or a data key.
func New(tree map[string]any) (*Document, error) {
	if len(tree) == 0 {
		return nil, sqlerr.Interface("No data!")
	}

	d := &Document{}
	if log, ok := tree["log"].(map[string]any); ok {
		if msg, ok := log["error"]; ok && msg != nil {
			d.hasError = true
			d.errMsg = fmt.Sprint(msg)
			return d, nil
		}
	}

	data, _ := tree["data"].([]any)
	for i, raw := range data {
		set, err := decodeResultSet(raw)
		if err != nil {
			return nil, sqlerr.Wrap(sqlerr.ClassInterface, fmt.Sprintf("malformed result set %d: %v", i, err), err)
		}
		d.sets = append(d.sets, set)
	}
	return d, nil
}

func decodeResultSet(raw any) (ResultSet, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return ResultSet{}, fmt.Errorf("expected object, got %T", raw)
	}

	var set ResultSet
	fields, _ := obj["fields"].([]any)
	for _, f := range fields {
		var wf wireField
		if err := mapstructure.Decode(f, &wf); err != nil {
			return ResultSet{}, err
		}
		set.Fields = append(set.Fields, Field{
			Name:      wf.Name,
			SQLType:   wf.SQLType,
			Precision: nullInt(wf.Precision),
			Scale:     nullInt(wf.Scale),
		})
	}

	rows, _ := obj["rows"].([]any)
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			return ResultSet{}, fmt.Errorf("expected row object, got %T", r)
		}
		set.Rows = append(set.Rows, Row(row))
	}
	return set, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// ErrorMessage returns the relay's error text, if it reported one.
func (d *Document) ErrorMessage() (string, bool) {
	return d.errMsg, d.hasError
}

// ResultSetCount is the number of result sets. It is zero for documents
// carrying an error.
func (d *Document) ResultSetCount() int {
	if d.hasError {
		return 0
	}
	return len(d.sets)
}

// ResultSet returns the i-th result set.
func (d *Document) ResultSet(i int) (ResultSet, bool) {
	if d.hasError || i < 0 || i >= len(d.sets) {
		return ResultSet{}, false
	}
	return d.sets[i], true
}

func (d *Document) Fields(i int) []Field {
	set, _ := d.ResultSet(i)
	return set.Fields
}

func (d *Document) Names(i int) []string {
	fields := d.Fields(i)
	out := make([]string, len(fields))
	for j, f := range fields {
		out[j] = f.Name
	}
	return out
}

func (d *Document) SQLTypes(i int) []string {
	fields := d.Fields(i)
	out := make([]string, len(fields))
	for j, f := range fields {
		out[j] = f.SQLType
	}
	return out
}

// Precisions has one entry per field, invalid where the relay omitted it.
func (d *Document) Precisions(i int) []sql.NullInt64 {
	fields := d.Fields(i)
	out := make([]sql.NullInt64, len(fields))
	for j, f := range fields {
		out[j] = f.Precision
	}
	return out
}

// Scales has one entry per field, invalid where the relay omitted it.
func (d *Document) Scales(i int) []sql.NullInt64 {
	fields := d.Fields(i)
	out := make([]sql.NullInt64, len(fields))
	for j, f := range fields {
		out[j] = f.Scale
	}
	return out
}

func (d *Document) Rows(i int) []Row {
	set, _ := d.ResultSet(i)
	return set.Rows
}
