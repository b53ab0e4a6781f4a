package middleware

import (
	"context"
	"log/slog"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// FailPolicy decides what a limited route does when Redis errors.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

const rateLimitKeyPrefix = "rl:"

// Without Redis, buckets live in this process only.
var localBuckets sync.Map

func allowLocal(key string, limit int, window time.Duration) bool {
	b, _ := localBuckets.LoadOrStore(key, rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit))
	return b.(*rate.Limiter).Allow()
}

func limitsEnforced() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return false
	default:
		return true
	}
}

// CheckRateLimit counts one hit of id against resource and reports whether
// it is still within limit per window. With Redis the count is a fixed
// window shared by every instance; without it a local token bucket is used.
// Nothing is enforced when APP_ENV is unset, "test" or "development".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if !limitsEnforced() {
		return true, nil
	}
	if limit <= 0 {
		return false, nil
	}

	key := rateLimitKeyPrefix + resource + ":" + id
	if rdb == nil {
		return allowLocal(key, limit, window), nil
	}

	hits, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if hits == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return hits <= int64(limit), nil
}

// RateLimit limits a route to limit requests per window with FailOpen.
// name labels the bucket and defaults to the request path.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit FailPolicy. Signed-in
// callers are counted per user, everyone else per client IP.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resource := c.Path()
		if len(name) > 0 && name[0] != "" {
			resource = name[0]
		}
		subject := "ip:" + c.IP()
		if uid, ok := c.Locals(LocalsUserID).(uint); ok && uid != 0 {
			subject = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		ctx := c.UserContext()
		allowed, err := CheckRateLimit(ctx, rdb, resource, subject, limit, window)
		switch {
		case err != nil && policy == FailClosed:
			Logger.WarnContext(ctx, "rate limit store unavailable, rejecting",
				slog.String("resource", resource), slog.String("error", err.Error()))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
				"code":  "RATE_LIMIT_UNAVAILABLE",
			})
		case err != nil:
			return c.Next()
		case !allowed:
			RateLimitedRequests.WithLabelValues(resource).Inc()
			c.Set(fiber.HeaderRetryAfter, retryAfter(ctx, rdb, rateLimitKeyPrefix+resource+":"+subject, window))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}

// retryAfter is the remaining window in whole seconds.
func retryAfter(ctx context.Context, rdb *redis.Client, key string, window time.Duration) string {
	wait := window
	if rdb != nil {
		if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			wait = ttl
		}
	}
	return strconv.Itoa(int(math.Ceil(wait.Seconds())))
}
