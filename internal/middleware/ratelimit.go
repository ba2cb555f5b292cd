package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// LimitsEnabled reports whether rate limits apply in env. They are off in
// the test and development environments.
func LimitsEnabled(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "test", "development":
		return false
	}
	return true
}

// CheckRateLimit counts one attempt at resource by id and reports whether it
// is still within limit for the current window.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, env, resource, id string, limit int, window time.Duration) (bool, error) {
	allowed, _, err := hitWindow(ctx, rdb, env, resource, id, limit, window)
	return allowed, err
}

// hitWindow is CheckRateLimit plus the time left in the window.
func hitWindow(ctx context.Context, rdb *redis.Client, env, resource, id string, limit int, window time.Duration) (bool, time.Duration, error) {
	if !LimitsEnabled(env) {
		return true, 0, nil
	}
	if rdb == nil {
		return false, 0, errors.New("rate limit store not configured")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	if _, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return false, 0, err
	}

	left := ttl.Val()
	if left < 0 {
		// First hit in this window.
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
		left = window
	}
	return incr.Val() <= int64(limit), left, nil
}

// RateLimit limits a route to limit requests per window for each visitor,
// keyed by user when logged in and by IP otherwise. name groups routes under
// one counter; it defaults to the path. Store failures let requests through.
func RateLimit(rdb *redis.Client, env string, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, env, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit FailPolicy.
func RateLimitWithPolicy(rdb *redis.Client, env string, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals(LocalUserID).(uint); ok && uid != 0 {
			id = fmt.Sprintf("user:%d", uid)
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, left, err := hitWindow(c.UserContext(), rdb, env, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"resource", resource, "error", err.Error())
				return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, please try again later.")
			}
			Logger.DebugContext(c.UserContext(), "rate limit skipped", "resource", resource, "error", err.Error())
			return c.Next()
		}

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(left.Seconds()+0.5)))
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		}
		return c.Next()
	}
}
