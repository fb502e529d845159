package middleware

import (
	"context"
	"fmt"
	"log/slog"
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

// RateLimiter enforces fixed-window limits backed by Redis counters.
type RateLimiter struct {
	rdb     redis.Cmdable
	enabled bool
}

// NewRateLimiter returns a limiter. Limits are disabled for the "test",
// "development" and "stress" environments so local and load-test workflows
// are not throttled.
func NewRateLimiter(rdb redis.Cmdable, env string) *RateLimiter {
	switch strings.ToLower(env) {
	case "", "test", "development", "stress":
		return &RateLimiter{rdb: rdb, enabled: false}
	}
	return &RateLimiter{rdb: rdb, enabled: true}
}

// Enabled reports whether limits are enforced.
func (l *RateLimiter) Enabled() bool {
	return l.enabled
}

// Check reports whether resource/id is still within limit for the current window.
func (l *RateLimiter) Check(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if !l.enabled {
		return true, nil
	}
	if l.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

// Limit returns a Fiber middleware enforcing limit requests per window.
// It keys by authenticated userID when set in c.Locals("userID"), otherwise by remote IP.
func (l *RateLimiter) Limit(limit int, window time.Duration, name string) fiber.Handler {
	return l.LimitWithPolicy(limit, window, FailOpen, name)
}

// LimitWithPolicy is Limit with an explicit failure policy.
func (l *RateLimiter) LimitWithPolicy(limit int, window time.Duration, policy FailPolicy, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		resource := name
		if resource == "" {
			resource = c.Path()
		}

		allowed, err := l.Check(c.UserContext(), resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("path", c.Path()),
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
