package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("reach redis at %s: %w", cfg.Addr, err)
	}
	logger.Debug("connected to redis", zap.String("addr", cfg.Addr))

	return &Redis{Client: client}, nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// RedisBackend stores each session value under its own key and publishes
// change signals on "<prefix>changed" with the writer's origin as payload.
type RedisBackend struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBackend builds a backend over client.
func NewRedisBackend(client *redis.Client, logger *zap.Logger) *RedisBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBackend{client: client, logger: logger}
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	return b.client.Set(ctx, key, value, 0).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.client.Del(ctx, keys...).Err()
}

func (b *RedisBackend) Broadcast(ctx context.Context, prefix, origin string) error {
	return b.client.Publish(ctx, changeChannel(prefix), origin).Err()
}

// Watch subscribes to the prefix's change channel. The subscription is
// confirmed before Watch returns.
func (b *RedisBackend) Watch(ctx context.Context, prefix, origin string, onChange func()) (func(), error) {
	ps := b.client.Subscribe(ctx, changeChannel(prefix))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", changeChannel(prefix), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	messages := ps.Channel()

	go func() {
		defer close(done)
		for {
			select {
			case <-watchCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if msg.Payload == origin {
					continue
				}
				onChange()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := ps.Close(); err != nil {
				b.logger.Debug("close session subscription", zap.Error(err))
			}
			<-done
		})
	}, nil
}

func changeChannel(prefix string) string {
	return prefix + "changed"
}
