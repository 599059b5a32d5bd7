// Package gateway sends authenticated API calls. A call that fails with 401
// triggers one shared token refresh and is retried exactly once.
package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/httpclient"
	"github.com/spec-kit/support-console/internal/observability"
)

// Doer sends one HTTP call and decodes the response.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
}

// TokenSource yields the current access token ("" when logged out).
type TokenSource interface {
	Access(ctx context.Context) string
}

// Refresher replaces a stale access token. Implementations coalesce
// concurrent calls and clear the session on failure.
type Refresher interface {
	Refresh(ctx context.Context, stale string) error
}

// Gateway attaches bearer credentials and recovers once from an expired
// access token.
type Gateway struct {
	http      Doer
	tokens    TokenSource
	refresher Refresher
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// New builds a gateway. logger and metrics may be nil.
func New(doer Doer, tokens TokenSource, refresher Refresher, logger *zap.Logger, metrics *observability.Metrics) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{http: doer, tokens: tokens, refresher: refresher, logger: logger, metrics: metrics}
}

// Do sends req with the current access token. Only a 401 leads to a refresh;
// every other failure is returned as is. After a successful refresh the call
// is retried once and that result is final, including a second 401. If the
// refresh fails the session has been cleared and the original 401 is returned.
func (g *Gateway) Do(ctx context.Context, req httpclient.Request, out any) error {
	token := g.tokens.Access(ctx)
	err := g.send(ctx, req, token, out)
	if !httpclient.IsUnauthorized(err) {
		return err
	}

	if refreshErr := g.refresher.Refresh(ctx, token); refreshErr != nil {
		g.metrics.RecordEvent("gateway|refresh_failed")
		g.logger.Info("session expired and could not be refreshed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(refreshErr),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	g.metrics.RecordEvent("gateway|retry")
	return g.send(ctx, req, g.tokens.Access(ctx), out)
}

// Get issues a GET with optional query parameters.
func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) error {
	return g.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT with a JSON body.
func (g *Gateway) Put(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, httpclient.Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch issues a PATCH with a JSON body.
func (g *Gateway) Patch(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, httpclient.Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE.
func (g *Gateway) Delete(ctx context.Context, path string, out any) error {
	return g.Do(ctx, httpclient.Request{Method: http.MethodDelete, Path: path}, out)
}

func (g *Gateway) send(ctx context.Context, req httpclient.Request, token string, out any) error {
	req.Header = withBearer(req.Header, token)

	start := time.Now()
	err := g.http.Do(ctx, req, out)
	status := http.StatusOK
	if err != nil {
		status = httpclient.StatusOf(err)
	}
	g.metrics.RecordRequest(req.Path, methodOrGet(req.Method), status, time.Since(start))
	return err
}

// withBearer copies caller headers and overrides Authorization with the
// gateway's token. With no token, a caller-supplied Authorization is dropped.
func withBearer(h http.Header, token string) http.Header {
	out := h.Clone()
	if out == nil {
		out = http.Header{}
	}
	out.Del("Authorization")
	if token != "" {
		out.Set("Authorization", "Bearer "+token)
	}
	return out
}

func methodOrGet(m string) string {
	if m == "" {
		return http.MethodGet
	}
	return m
}
