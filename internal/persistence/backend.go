package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/session"
)

// OpenBackend builds the session backend selected by cfg.Session.Store.
// closeFn releases any connection the backend holds and is never nil.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (backend session.Backend, closeFn func(), err error) {
	switch cfg.Session.Store {
	case config.StoreMemory:
		return session.NewMemoryBackend(), func() {}, nil

	case config.StoreFile:
		return session.NewFileBackend(cfg.Session.FilePath, cfg.Session.PollInterval()), func() {}, nil

	case config.StoreRedis:
		r, err := NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisBackend(r.Client, logger), r.Close, nil

	case config.StorePostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		return NewPostgresBackend(pg.PoolHandle(), logger), pg.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
}
