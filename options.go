package dbrelay

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/go-data-exporter/dbrelay/transport"
)

// Transport carries one statement to the relay and returns the raw JSON
// response body.
type Transport interface {
	Exchange(ctx context.Context, endpoint string, form url.Values) ([]byte, error)
}

// Option configures a Connection.
type Option func(*options)

type options struct {
	transport  Transport
	httpClient *http.Client
	retries    int
	userAgent  string
	logger     logrus.FieldLogger
}

// WithTransport replaces the HTTP transport entirely. The HTTP related
// options are ignored when it is set.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRetries retries network failures and 5xx answers n times.
func WithRetries(n int) Option {
	return func(o *options) {
		o.retries = n
	}
}

func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	if o.transport == nil {
		o.transport = transport.New(transport.Config{
			Client:    o.httpClient,
			Retries:   o.retries,
			UserAgent: o.userAgent,
			Logger:    o.logger,
		})
	}
	return o
}
