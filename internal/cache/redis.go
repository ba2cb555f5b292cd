// Package cache owns the Redis connection used for session revocation and rate limiting.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"unnest/internal/middleware"
	"unnest/internal/observability"

	"github.com/redis/go-redis/v9"
)

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// ParseOptions accepts either a redis:// URL or a bare host:port.
func ParseOptions(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

// Connect returns a client for addr, or nil when addr is empty or the server
// cannot be reached. The application runs without Redis: sessions are then
// not revocable server-side and rate limits fail open.
func Connect(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		middleware.Logger.Info("REDIS_URL not set, continuing without Redis")
		return nil
	}

	opts, err := ParseOptions(addr)
	if err != nil {
		middleware.Logger.Warn("Redis connection warning (continuing without Redis)", "error", err.Error())
		return nil
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis connection warning (continuing without Redis)", "error", err.Error())
		_ = client.Close()
		return nil
	}

	middleware.Logger.Info("Redis connected successfully")
	return client
}
