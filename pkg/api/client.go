package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 10 * time.Second
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// TokenSource returns the bearer token to attach, or "" for an anonymous call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// UnauthorizedFunc runs on every 401 before the call returns ErrUnauthorized.
type UnauthorizedFunc func(ctx context.Context)

// Client is the single configured HTTP client every access module goes through.
// One attempt per call, no retries.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedFunc
	logger         zerolog.Logger
}

type Option func(*Client)

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithUnauthorizedHandler(fn UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// With returns a copy of c bound to another token source and 401 handler.
// The underlying http.Client is shared.
func (c *Client) With(opts ...Option) *Client {
	cp := *c
	for _, o := range opts {
		o(&cp)
	}
	return &cp
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        any
	raw         io.Reader
	contentType string
}

// do sends one request and decodes a 2xx body into out (when out != nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	reqID := uuid.NewString()
	log := c.logger.With().Str("request_id", reqID).Str("method", r.method).Str("path", r.path).Logger()

	req, err := c.newRequest(ctx, r, reqID)
	if err != nil {
		return transportError(err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Dur("took", time.Since(start)).Msg("api request failed")
		return transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("api read body failed")
		return transportError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn().Int("status", resp.StatusCode).Msg("api unauthorized")
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromBody(resp.StatusCode, body)
		log.Warn().Int("status", resp.StatusCode).Str("code", apiErr.Code).Str("message", apiErr.Message).Msg("api error")
		return apiErr
	}

	log.Debug().Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("api ok")

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "unexpected response body", cause: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r request, reqID string) (*http.Request, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	switch {
	case r.raw != nil:
		body = r.raw
	case r.body != nil:
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, err
	}
	ct := r.contentType
	if ct == "" {
		ct = "application/json"
	}
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: q}, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, out)
}

func transportError(err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Message: err.Error(), cause: err}
}
