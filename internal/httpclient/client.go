// Package httpclient is the JSON-over-HTTP layer shared by the auth transport
// and the authenticated gateway. It performs exactly one round trip per call.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxErrorBody = 64 << 10

// Request describes one call relative to the client's base URL. Path is
// already escaped; segments built from ids should use url.PathEscape.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client sends JSON requests to a single backend.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

// New builds a client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{base: base, http: hc, userAgent: opts.UserAgent, logger: logger}, nil
}

// Do sends req and decodes a 2xx JSON response into out (if non-nil).
// Any failure is returned as *HTTPError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Debug("request failed",
			zap.String("method", httpReq.Method),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return &HTTPError{Status: StatusNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		zap.String("method", httpReq.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &HTTPError{Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	escaped := strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.TrimLeft(req.Path, "/")
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", req.Path, err)
	}
	u := *c.base
	u.Path = unescaped
	u.RawPath = escaped
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	return httpReq, nil
}
