// Package driver registers the relay client as the database/sql driver
// "dbrelay".
//
//	db, err := sql.Open("dbrelay", "http://relay:1433/sql?sql_server=db1&sql_database=sales&sql_user=report&sql_password=secret")
//
// Statements use %(name)s placeholders: sql.Named arguments fill them by
// name, positional arguments as %(1)s, %(2)s and so on. The relay runs in
// autocommit mode, so transactions only exist to satisfy database/sql.
package driver

import (
	"context"
	"database/sql"
	sqldriver "database/sql/driver"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-data-exporter/dbrelay"
)

// DriverName is the name the driver is registered under.
const DriverName = "dbrelay"

// DSN query keys moved into dbrelay.Params.
const (
	keyServer         = "sql_server"
	keyDatabase       = "sql_database"
	keyUser           = "sql_user"
	keyPassword       = "sql_password"
	keyConnectionName = "connection_name"
	keyKeepalive      = "http_keepalive"
)

func init() {
	sql.Register(DriverName, &Driver{})
}

// Driver opens relay connections. Options apply to every connection it
// opens.
type Driver struct {
	Options []dbrelay.Option
}

var (
	_ sqldriver.Driver        = (*Driver)(nil)
	_ sqldriver.DriverContext = (*Driver)(nil)
)

func (d *Driver) Open(dsn string) (sqldriver.Conn, error) {
	c, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

func (d *Driver) OpenConnector(dsn string) (sqldriver.Connector, error) {
	relayURL, params, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &Connector{url: relayURL, params: params, opts: d.Options, driver: d}, nil
}

// ParseDSN splits a DSN into the relay URL and the session parameters. The
// parameter keys are removed from the query, other keys stay in the URL.
func ParseDSN(dsn string) (string, dbrelay.Params, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", dbrelay.Params{}, fmt.Errorf("invalid dsn: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", dbrelay.Params{}, fmt.Errorf("invalid dsn %q: relay URL needs a scheme and host", u.Redacted())
	}

	q := u.Query()
	params := dbrelay.Params{
		Server:         q.Get(keyServer),
		Database:       q.Get(keyDatabase),
		User:           q.Get(keyUser),
		Password:       q.Get(keyPassword),
		ConnectionName: q.Get(keyConnectionName),
	}
	if v := q.Get(keyKeepalive); v != "" {
		params.HTTPKeepalive, err = strconv.Atoi(v)
		if err != nil {
			return "", dbrelay.Params{}, fmt.Errorf("invalid %s %q: %w", keyKeepalive, v, err)
		}
	}
	for _, k := range []string{keyServer, keyDatabase, keyUser, keyPassword, keyConnectionName, keyKeepalive} {
		q.Del(k)
	}
	u.RawQuery = q.Encode()
	return u.String(), params, nil
}

// Connector opens connections to one relay with fixed parameters.
type Connector struct {
	url    string
	params dbrelay.Params
	opts   []dbrelay.Option
	driver sqldriver.Driver
}

// NewConnector is meant for sql.OpenDB when the parameters are not in a
// DSN.
func NewConnector(relayURL string, params dbrelay.Params, opts ...dbrelay.Option) *Connector {
	return &Connector{url: relayURL, params: params, opts: opts, driver: &Driver{Options: opts}}
}

// Connect runs the canary statement, see dbrelay.Connect.
func (c *Connector) Connect(ctx context.Context) (sqldriver.Conn, error) {
	rc, err := dbrelay.Connect(ctx, c.url, c.params, c.opts...)
	if err != nil {
		return nil, err
	}
	return &conn{relay: rc}, nil
}

func (c *Connector) Driver() sqldriver.Driver {
	return c.driver
}
