package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "bank:ratelimit:"

// MutationRateLimit caps unsafe requests per client IP within a fixed
// one-minute window. It is a no-op without Redis or with a non-positive limit
// and fails open on cache errors.
func MutationRateLimit(cache *redis.Client, perMinute int, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil || perMinute <= 0 || isSafeMethod(c.Method()) {
			return c.Next()
		}

		window := time.Now().Unix() / 60
		key := rateLimitPrefix + c.IP() + ":" + strconv.FormatInt(window, 10)

		ctx := c.UserContext()
		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit lookup failed", slog.Any("error", err))
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(ctx, key, time.Minute)
		}
		if cnt > int64(perMinute) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, "too many requests, try again later")
		}
		return c.Next()
	}
}
