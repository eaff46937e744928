package dbrelay

import (
	"context"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/go-data-exporter/dbrelay/sqlerr"
)

const (
	// DefaultConnectionName tags the statements of a connection in the
	// relay's logs when Params.ConnectionName is empty.
	DefaultConnectionName = "pydbrelay"

	canaryQuery = "select 1 as a"
)

// Params are the session parameters sent with every statement.
type Params struct {
	Server         string
	Database       string
	User           string
	Password       string
	ConnectionName string
	HTTPKeepalive  int
}

// Connection holds the relay endpoint and session parameters and hands out
// cursors. The base parameters never change after Connect; every statement
// is sent with its own copy of them.
type Connection struct {
	url    string
	params Params
	base   url.Values
	opts   *options
	log    logrus.FieldLogger
	closed atomic.Bool
}

// Connect stores the parameters and checks the relay answers by running a
// canary statement. Any failure of the canary is reported as a
// DatabaseError "Unable to connect to database.", the cause is kept for
// errors.Unwrap.
func Connect(ctx context.Context, relayURL string, params Params, opts ...Option) (*Connection, error) {
	if params.ConnectionName == "" {
		params.ConnectionName = DefaultConnectionName
	}

	o := newOptions(opts)
	c := &Connection{
		url:    relayURL,
		params: params,
		base:   params.values(),
		opts:   o,
		log: o.logger.WithFields(logrus.Fields{
			"url":        relayURL,
			"connection": params.ConnectionName,
		}),
	}

	c.log.Debug("Connecting to relay")
	if err := c.ping(ctx); err != nil {
		c.log.WithField("err", err).Debug("Canary query failed")
		return nil, sqlerr.Wrap(sqlerr.ClassDatabase, "Unable to connect to database.", err)
	}
	return c, nil
}

func (p Params) values() url.Values {
	return url.Values{
		"sql_server":      {p.Server},
		"sql_database":    {p.Database},
		"sql_user":        {p.User},
		"sql_password":    {p.Password},
		"connection_name": {p.ConnectionName},
		"http_keepalive":  {strconv.Itoa(p.HTTPKeepalive)},
	}
}

// ping runs the canary on a throwaway cursor that is closed on every path.
func (c *Connection) ping(ctx context.Context) error {
	cur, err := c.Cursor()
	if err != nil {
		return err
	}
	defer cur.Close()

	if err := cur.Execute(ctx, canaryQuery, nil); err != nil {
		return err
	}
	_, err = cur.FetchOne()
	return err
}

// Ping runs the canary statement again. Unlike Connect it returns the
// underlying error as is.
func (c *Connection) Ping(ctx context.Context) error {
	return c.ping(ctx)
}

// Cursor returns a new cursor bound to the connection.
func (c *Connection) Cursor() (*Cursor, error) {
	if c.closed.Load() {
		return nil, sqlerr.New(sqlerr.ClassError, "connection is closed")
	}
	return newCursor(c), nil
}

// Close marks the connection closed. Cursors already handed out keep
// working until they are closed themselves.
func (c *Connection) Close() error {
	c.closed.Store(true)
	return nil
}

// Commit does nothing: the relay runs every statement in autocommit mode.
func (c *Connection) Commit() error {
	return nil
}

// Closed reports whether Close was called.
func (c *Connection) Closed() bool {
	return c.closed.Load()
}

func (c *Connection) URL() string {
	return c.url
}

// Params returns the session parameters, ConnectionName defaulted.
func (c *Connection) Params() Params {
	return c.params
}

// request builds the form for one statement from a private copy of the
// base parameters.
func (c *Connection) request(sql string) url.Values {
	form := make(url.Values, len(c.base)+1)
	for k, v := range c.base {
		form[k] = append([]string(nil), v...)
	}
	form.Set("sql", "-- "+c.params.ConnectionName+"\n"+sql)
	return form
}
