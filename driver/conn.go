package driver

import (
	"context"
	sqldriver "database/sql/driver"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/go-data-exporter/dbrelay"
	"github.com/go-data-exporter/dbrelay/sqlerr"
)

type conn struct {
	relay *dbrelay.Connection
}

var (
	_ sqldriver.Conn               = (*conn)(nil)
	_ sqldriver.ConnBeginTx        = (*conn)(nil)
	_ sqldriver.QueryerContext     = (*conn)(nil)
	_ sqldriver.ExecerContext      = (*conn)(nil)
	_ sqldriver.Pinger             = (*conn)(nil)
	_ sqldriver.Validator          = (*conn)(nil)
	_ sqldriver.NamedValueChecker  = (*conn)(nil)
	_ sqldriver.ConnPrepareContext = (*conn)(nil)
)

func (c *conn) Prepare(query string) (sqldriver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// PrepareContext does not contact the relay, statements are only sent on
// execution.
func (c *conn) PrepareContext(ctx context.Context, query string) (sqldriver.Stmt, error) {
	return &stmt{conn: c, query: query}, nil
}

func (c *conn) Close() error {
	return c.relay.Close()
}

func (c *conn) Begin() (sqldriver.Tx, error) {
	return c.BeginTx(context.Background(), sqldriver.TxOptions{})
}

func (c *conn) BeginTx(ctx context.Context, opts sqldriver.TxOptions) (sqldriver.Tx, error) {
	return tx{conn: c}, nil
}

func (c *conn) Ping(ctx context.Context) error {
	return c.relay.Ping(ctx)
}

func (c *conn) IsValid() bool {
	return !c.relay.Closed()
}

// CheckNamedValue lets decimals through unconverted so they are rendered as
// numbers rather than strings.
func (c *conn) CheckNamedValue(nv *sqldriver.NamedValue) error {
	switch nv.Value.(type) {
	case decimal.Decimal:
		return nil
	}
	return sqldriver.ErrSkip
}

func (c *conn) QueryContext(ctx context.Context, query string, args []sqldriver.NamedValue) (sqldriver.Rows, error) {
	cur, err := c.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return &rows{cursor: cur}, nil
}

func (c *conn) ExecContext(ctx context.Context, query string, args []sqldriver.NamedValue) (sqldriver.Result, error) {
	cur, err := c.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return result{}, cur.Close()
}

func (c *conn) execute(ctx context.Context, query string, args []sqldriver.NamedValue) (*dbrelay.Cursor, error) {
	cur, err := c.relay.Cursor()
	if err != nil {
		return nil, err
	}
	if err := cur.Execute(ctx, query, namedParams(args)); err != nil {
		cur.Close()
		return nil, err
	}
	return cur, nil
}

// namedParams keys named arguments by name and positional ones by their
// 1-based ordinal.
func namedParams(args []sqldriver.NamedValue) map[string]any {
	if len(args) == 0 {
		return nil
	}
	params := make(map[string]any, len(args))
	for _, a := range args {
		name := a.Name
		if name == "" {
			name = strconv.Itoa(a.Ordinal)
		}
		params[name] = a.Value
	}
	return params
}

type tx struct {
	conn *conn
}

func (t tx) Commit() error {
	return t.conn.relay.Commit()
}

func (t tx) Rollback() error {
	return sqlerr.NotSupported("rollback is not supported: statements are autocommitted")
}

type result struct{}

func (result) LastInsertId() (int64, error) {
	return 0, sqlerr.NotSupported("LastInsertId is not supported")
}

func (result) RowsAffected() (int64, error) {
	return 0, sqlerr.NotSupported("RowsAffected is not supported")
}

type stmt struct {
	conn  *conn
	query string
}

var (
	_ sqldriver.StmtQueryContext = (*stmt)(nil)
	_ sqldriver.StmtExecContext  = (*stmt)(nil)
)

func (s *stmt) Close() error {
	return nil
}

// NumInput is unknown: placeholders are named.
func (s *stmt) NumInput() int {
	return -1
}

func (s *stmt) Exec(args []sqldriver.Value) (sqldriver.Result, error) {
	return s.ExecContext(context.Background(), ordinals(args))
}

func (s *stmt) Query(args []sqldriver.Value) (sqldriver.Rows, error) {
	return s.QueryContext(context.Background(), ordinals(args))
}

func (s *stmt) ExecContext(ctx context.Context, args []sqldriver.NamedValue) (sqldriver.Result, error) {
	return s.conn.ExecContext(ctx, s.query, args)
}

func (s *stmt) QueryContext(ctx context.Context, args []sqldriver.NamedValue) (sqldriver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

func ordinals(args []sqldriver.Value) []sqldriver.NamedValue {
	named := make([]sqldriver.NamedValue, len(args))
	for i, v := range args {
		named[i] = sqldriver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}
