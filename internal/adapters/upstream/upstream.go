// Package upstream is the JSON-over-HTTP transport shared by the game API
// and killboard clients. It applies per-call timeouts, fixed headers and
// upstream metrics, and classifies failures.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/localscan/pkg/metrics"
)

// DefaultTimeout bounds every upstream call.
const DefaultTimeout = 5 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

var (
	// ErrTransport means no response was received.
	ErrTransport = errors.New("upstream transport failed")
	// ErrDecode means a response arrived but its body was not the expected JSON.
	ErrDecode = errors.New("upstream response undecodable")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.Code)
}

// Responded reports whether err (possibly nil) came after a response arrived.
func Responded(err error) bool {
	if err == nil || errors.Is(err, ErrDecode) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se)
}

// Client performs JSON requests against one upstream service.
type Client struct {
	service string
	client  *http.Client
	headers http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.headers.Set(key, value)
		}
	}
}

// New creates a Client labelled service in metrics.
func New(service string, opts ...Option) *Client {
	c := &Client{
		service: service,
		client:  &http.Client{Timeout: DefaultTimeout},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the metrics label of the client.
func (c *Client) Service() string {
	return c.service
}

// GetJSON issues a GET and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint, url string, out any) error {
	return c.do(ctx, endpoint, http.MethodGet, url, nil, out)
}

// PostJSON issues a POST with body encoded as JSON and decodes the reply into out.
func (c *Client) PostJSON(ctx context.Context, endpoint, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, endpoint, http.MethodPost, url, payload, out)
}

func (c *Client) do(ctx context.Context, endpoint, method, url string, payload []byte, out any) error {
	start := time.Now()
	outcome := metrics.OutcomeOK
	defer func() {
		metrics.RecordUpstream(c.service, endpoint, outcome, time.Since(start))
	}()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		outcome = metrics.OutcomeHTTPError
		return &StatusError{Code: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		outcome = metrics.OutcomeDecode
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
