// Package apiclient talks to the remote expenses REST API.
//
// Every call takes the caller's *session.Session explicitly. Requests pass
// through an interceptor chain (logging, error classification, credential
// attachment) before hitting the network; failures come back as typed
// errors carrying a user-facing message.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"spendtrack/internal/log"
	"spendtrack/internal/session"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"
	DefaultTimeout = 10 * time.Second
	SchemeBearer   = "Bearer"
	SchemeToken    = "Token"

	maxBodyBytes = 4 << 20
)

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	scheme     string
	logger     *log.Logger
	extra      []Interceptor
	send       Handler
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithAuthScheme selects the Authorization scheme, "Bearer" or "Token".
func WithAuthScheme(scheme string) Option {
	return func(c *Client) {
		if scheme != "" {
			c.scheme = scheme
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInterceptors appends request interceptors; they run after the
// built-in ones, closest to the network.
func WithInterceptors(is ...Interceptor) Option {
	return func(c *Client) { c.extra = append(c.extra, is...) }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		scheme:     SchemeBearer,
		logger:     log.New(log.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(log.ComponentAPI)

	chain := []Interceptor{
		LoggingInterceptor(c.logger),
		ErrorInterceptor(),
		AuthInterceptor(c.scheme),
		RequestIDInterceptor(),
	}
	c.send = Chain(c.transport, append(chain, c.extra...)...)
	return c, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) transport(call *Call) (*Response, error) {
	resp, err := c.httpClient.Do(call.Request)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read response body: %w", err)}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	public bool
}

func (c *Client) do(ctx context.Context, s *session.Session, r request) (*Response, error) {
	var payload io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, &RequestError{Err: err}
		}
		payload = bytes.NewReader(b)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, payload)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(&Call{Request: req, Session: s, Public: r.public})
}

// Ping checks that the API answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return &RequestError{Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	return nil
}

func decodeInto(resource string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &ShapeError{Resource: resource, Err: err}
	}
	return nil
}

// decodeList accepts either a bare JSON array or an object carrying the
// array under "results". Anything else is a ShapeError.
func decodeList[T any](resource string, body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &ShapeError{Resource: resource, Err: errors.New("empty body")}
	}

	raw := trimmed
	if trimmed[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, &ShapeError{Resource: resource, Err: err}
		}
		raw = bytes.TrimSpace(page.Results)
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &ShapeError{Resource: resource, Err: errors.New("no list in response")}
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ShapeError{Resource: resource, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s%d/", prefix, id)
}
