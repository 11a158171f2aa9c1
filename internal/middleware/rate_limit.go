package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/openroadtours/booking-backend/internal/config"
)

// RateLimitMiddleware limits requests per client IP with a fixed window
// counter in redis. Redis outages fail open: losing rate limiting for a
// while beats refusing every reservation.
func RateLimitMiddleware(client *redis.Client, cfg config.RateLimitConfig, logger *logrus.Logger) gin.HandlerFunc {
	window := time.Duration(cfg.WindowSeconds) * time.Second

	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())

		count, err := client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			logger.WithError(err).Warn("Rate limit counter unavailable, allowing request")
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(c.Request.Context(), key, window).Err(); err != nil {
				logger.WithError(err).Warn("Failed to set rate limit window")
			}
		}

		if count > int64(cfg.Requests) {
			c.Header("Retry-After", fmt.Sprintf("%d", cfg.WindowSeconds))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests, please slow down",
				"code":    "RATE_LIMIT_EXCEEDED",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
