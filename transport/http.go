// Package transport performs the HTTP exchange with a SQL relay: one
// form-encoded POST per statement, answered by one JSON document.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "dbrelay-go"

// StatusError is returned when the relay answers with a status >= 400. Body
// holds the response payload, which may still be a relay error document.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("relay returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("relay returned HTTP %d: %s", e.StatusCode, body)
}

// Config controls the HTTP exchange.
type Config struct {
	// Client is the underlying HTTP client. http.DefaultClient when nil.
	Client *http.Client
	// Retries is how many times a network failure or 5xx answer is retried.
	Retries int
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// Logger receives debug traces of every exchange.
	Logger logrus.FieldLogger
}

// HTTP posts statements to a relay.
type HTTP struct {
	client    *http.Client
	retries   int
	userAgent string
	log       logrus.FieldLogger
}

// New creates an HTTP transport with defaults applied.
func New(cfg Config) *HTTP {
	t := &HTTP{
		client:    cfg.Client,
		retries:   cfg.Retries,
		userAgent: cfg.UserAgent,
		log:       cfg.Logger,
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	if t.userAgent == "" {
		t.userAgent = DefaultUserAgent
	}
	if t.log == nil {
		t.log = logrus.StandardLogger()
	}
	if t.retries < 0 {
		t.retries = 0
	}
	return t
}

// Exchange posts form to endpoint and returns the raw response body.
func (t *HTTP) Exchange(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	requestID := uuid.New().String()
	payload := form.Encode()
	log := t.log.WithFields(logrus.Fields{
		"url":        endpoint,
		"request_id": requestID,
	})

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		var err error
		body, err = t.post(ctx, endpoint, requestID, payload)
		if err == nil {
			return nil
		}

		log.WithFields(logrus.Fields{"attempt": attempt, "err": err}).Debug("Relay exchange failed")

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 0
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(t.retries)), ctx))
	if err != nil {
		return nil, err
	}

	log.WithField("bytes", len(body)).Debug("Relay exchange completed")
	return body, nil
}

func (t *HTTP) post(ctx context.Context, endpoint, requestID, payload string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: buf.Bytes()}
	}
	return buf.Bytes(), nil
}
