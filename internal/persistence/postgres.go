package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/config"
)

// notifyChannel is the LISTEN/NOTIFY channel carrying "<prefix>|<origin>".
const notifyChannel = "session_changed"

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool. Unlike the file and memory
// stores, a Postgres-backed session cannot work without a DSN.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required for the postgres session store")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse POSTGRES_DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Debug("connected to postgres")
	return &Postgres{Pool: pool}, nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}

// PostgresBackend keeps session values in the session_kv table and signals
// changes with NOTIFY, so every process pointed at the same database behaves
// like a tab of one browser.
type PostgresBackend struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresBackend builds a backend over pool. The session_kv table must
// exist; see RunMigrations.
func NewPostgresBackend(pool *pgxpool.Pool, logger *zap.Logger) *PostgresBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresBackend{pool: pool, logger: logger}
}

func (b *PostgresBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.pool.QueryRow(ctx, `SELECT value FROM session_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (b *PostgresBackend) Set(ctx context.Context, key, value string) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO session_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := b.pool.Exec(ctx, `DELETE FROM session_kv WHERE key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("delete session keys: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Broadcast(ctx context.Context, prefix, origin string) error {
	_, err := b.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, prefix+"|"+origin)
	return err
}

// Watch holds a dedicated connection in LISTEN mode until stop is called or
// ctx ends. The connection is closed afterwards rather than returned to the
// pool so no LISTEN state leaks to other users.
func (b *PostgresBackend) Watch(ctx context.Context, prefix, origin string, onChange func()) (func(), error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", notifyChannel, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			_ = conn.Conn().Close(context.Background())
			conn.Release()
		}()
		for {
			n, err := conn.Conn().WaitForNotification(watchCtx)
			if err != nil {
				if watchCtx.Err() == nil {
					b.logger.Warn("session listener stopped", zap.Error(err))
				}
				return
			}
			p, o, _ := strings.Cut(n.Payload, "|")
			if o == origin || !prefixesOverlap(p, prefix) {
				continue
			}
			onChange()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func prefixesOverlap(a, b string) bool {
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}
