package dbrelay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-data-exporter/dbrelay/sqlerr"
)

const canaryAnswer = `{"data": [{"fields": [{"name": "a", "sql_type": "int"}], "rows": [{"a": 1}]}]}`

// relay is a fake SQL relay answering statements from a fixed table. The
// connection name comment is stripped before lookup.
type relay struct {
	*httptest.Server

	mu       sync.Mutex
	answers  map[string]string
	forms    []url.Values
	override http.HandlerFunc
}

func newRelay(t *testing.T, answers map[string]string) *relay {
	t.Helper()

	r := &relay{answers: map[string]string{canaryQuery: canaryAnswer}}
	for k, v := range answers {
		r.answers[k] = v
	}
	r.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		r.mu.Lock()
		r.forms = append(r.forms, req.PostForm)
		override := r.override
		r.mu.Unlock()

		if override != nil {
			override(w, req)
			return
		}

		stmt := req.PostForm.Get("sql")
		if i := strings.IndexByte(stmt, '\n'); i >= 0 {
			stmt = stmt[i+1:]
		}
		answer, ok := r.answers[stmt]
		if !ok {
			answer = `{"log": {"error": "unknown statement"}}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, answer)
	}))
	t.Cleanup(r.Close)
	return r
}

// serve answers every following request with h.
func (r *relay) serve(h http.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = h
}

func (r *relay) lastForm() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.forms) == 0 {
		return nil
	}
	return r.forms[len(r.forms)-1]
}

func (r *relay) requests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

func connect(t *testing.T, r *relay, params Params) *Connection {
	t.Helper()

	logger, _ := test.NewNullLogger()
	conn, err := Connect(context.Background(), r.URL, params, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestConnectRunsCanary(t *testing.T) {
	r := newRelay(t, nil)
	conn := connect(t, r, Params{Server: "db1", Database: "sales", User: "u", Password: "p"})

	require.Equal(t, 1, r.requests())
	form := r.lastForm()
	assert.Equal(t, "-- pydbrelay\nselect 1 as a", form.Get("sql"))
	assert.Equal(t, "db1", form.Get("sql_server"))
	assert.Equal(t, "sales", form.Get("sql_database"))
	assert.Equal(t, "u", form.Get("sql_user"))
	assert.Equal(t, "p", form.Get("sql_password"))
	assert.Equal(t, "pydbrelay", form.Get("connection_name"))
	assert.Equal(t, "0", form.Get("http_keepalive"))

	assert.Equal(t, DefaultConnectionName, conn.Params().ConnectionName)
	assert.Equal(t, r.URL, conn.URL())
	assert.False(t, conn.Closed())
}

func TestConnectCustomName(t *testing.T) {
	r := newRelay(t, nil)
	connect(t, r, Params{ConnectionName: "nightly", HTTPKeepalive: 1})

	form := r.lastForm()
	assert.Equal(t, "-- nightly\nselect 1 as a", form.Get("sql"))
	assert.Equal(t, "nightly", form.Get("connection_name"))
	assert.Equal(t, "1", form.Get("http_keepalive"))
}

func TestConnectCanaryFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "relay error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"log": {"error": "Login failed for user 'u'."}}`)
			},
		},
		{
			name: "http status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "<html>")
			},
		},
		{
			name: "no result set",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"data": []}`)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			logger, hook := test.NewNullLogger()
			logger.SetLevel(logrus.DebugLevel)

			conn, err := Connect(context.Background(), srv.URL, Params{Password: "hunter2"}, WithLogger(logger))
			require.Error(t, err)
			assert.Nil(t, conn)
			assert.Equal(t, "Unable to connect to database.", err.Error())
			assert.ErrorIs(t, err, ErrDatabase)
			assert.NotNil(t, errors.Unwrap(err))

			for _, e := range hook.AllEntries() {
				s, _ := e.String()
				assert.NotContains(t, s, "hunter2")
			}
		})
	}
}

func TestConnectionClose(t *testing.T) {
	r := newRelay(t, map[string]string{"select 2": canaryAnswer})
	conn := connect(t, r, Params{})

	cur, err := conn.Cursor()
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.True(t, conn.Closed())

	_, err = conn.Cursor()
	require.Error(t, err)
	assert.Equal(t, "connection is closed", err.Error())
	assert.ErrorIs(t, err, ErrError)

	// Existing cursors are left alone.
	require.NoError(t, cur.Execute(context.Background(), "select 2", nil))
}

func TestConnectionCommit(t *testing.T) {
	r := newRelay(t, nil)
	conn := connect(t, r, Params{})
	assert.NoError(t, conn.Commit())
	assert.Equal(t, 1, r.requests())
}

func TestConnectionPing(t *testing.T) {
	r := newRelay(t, nil)
	conn := connect(t, r, Params{})
	require.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, 2, r.requests())
}

func TestRequestCopiesBase(t *testing.T) {
	r := newRelay(t, nil)
	conn := connect(t, r, Params{Server: "db1"})

	first := conn.request("select 1")
	first.Set("sql_server", "tampered")
	second := conn.request("select 2")

	assert.Equal(t, "db1", second.Get("sql_server"))
	assert.Equal(t, "-- pydbrelay\nselect 2", second.Get("sql"))
	assert.Empty(t, conn.base.Get("sql"))
}

type stubTransport struct {
	bodies []string
	err    error
	forms  []url.Values
}

func (s *stubTransport) Exchange(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	s.forms = append(s.forms, form)
	if s.err != nil {
		return nil, s.err
	}
	body := s.bodies[0]
	if len(s.bodies) > 1 {
		s.bodies = s.bodies[1:]
	}
	return []byte(body), nil
}

func TestWithTransport(t *testing.T) {
	st := &stubTransport{bodies: []string{canaryAnswer}}
	conn, err := Connect(context.Background(), "relay://nowhere", Params{}, WithTransport(st))
	require.NoError(t, err)
	defer conn.Close()

	require.Len(t, st.forms, 1)
	assert.Equal(t, "-- pydbrelay\nselect 1 as a", st.forms[0].Get("sql"))
}

func TestWithTransportFailure(t *testing.T) {
	st := &stubTransport{err: errors.New("dial tcp: refused")}
	_, err := Connect(context.Background(), "relay://nowhere", Params{}, WithTransport(st))
	require.Error(t, err)

	var relayErr *sqlerr.Error
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, sqlerr.ClassDatabase, relayErr.Class)
	assert.ErrorIs(t, errors.Unwrap(err), ErrOperational)
}
