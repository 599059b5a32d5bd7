package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/authapi"
	"github.com/spec-kit/support-console/internal/flight"
	"github.com/spec-kit/support-console/internal/observability"
)

// TokenAPI exchanges a refresh token for a new pair.
type TokenAPI interface {
	Refresh(ctx context.Context, refreshToken string) (*authapi.TokenPair, error)
}

// Refresher rotates the stored tokens with at most one refresh in flight.
// Every component that refreshes (the gateway on a 401, the provider on an
// explicit request) must share one Refresher.
type Refresher struct {
	store   *Store
	api     TokenAPI
	slot    flight.Flight[struct{}]
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewRefresher builds a refresher over store. logger and metrics may be nil.
func NewRefresher(store *Store, api TokenAPI, logger *zap.Logger, metrics *observability.Metrics) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{store: store, api: api, logger: logger, metrics: metrics}
}

// Refresh replaces the access token stale with a fresh one. Concurrent callers
// share one refresh. If the stored access token already differs from stale,
// another caller has rotated it and no network call is made.
//
// On failure, including a failure to persist the new pair, the store is
// cleared exactly once, by the refresh itself, and every waiter receives the
// same error. A missing refresh token fails with
// authapi.ErrMissingRefreshToken without a network call.
func (r *Refresher) Refresh(ctx context.Context, stale string) error {
	_, shared, err := r.slot.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.rotate(ctx, stale)
	})
	if shared {
		r.metrics.RecordEvent("refresh|joined")
	}
	return err
}

func (r *Refresher) rotate(ctx context.Context, stale string) error {
	if current := r.store.Access(ctx); current != "" && current != stale {
		r.metrics.RecordEvent("refresh|already_rotated")
		return nil
	}

	refreshToken := r.store.RefreshToken(ctx)
	if refreshToken == "" {
		r.metrics.RecordEvent("refresh|missing_token")
		r.logger.Info("no refresh token stored; clearing session")
		r.clear(ctx)
		return authapi.ErrMissingRefreshToken
	}

	pair, err := r.api.Refresh(ctx, refreshToken)
	if err != nil {
		r.metrics.RecordEvent("refresh|failed")
		r.logger.Warn("token refresh failed; clearing session", zap.Error(err))
		r.clear(ctx)
		return err
	}

	if err := r.store.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		r.metrics.RecordEvent("refresh|persist_failed")
		r.logger.Warn("persisting refreshed tokens failed; clearing session", zap.Error(err))
		r.clear(ctx)
		return fmt.Errorf("persist refreshed tokens: %w", err)
	}
	r.metrics.RecordEvent("refresh|ok")
	r.logger.Debug("tokens refreshed")
	return nil
}

func (r *Refresher) clear(ctx context.Context) {
	if err := r.store.Clear(ctx); err != nil {
		r.logger.Warn("clear session failed", zap.Error(err))
	}
}
