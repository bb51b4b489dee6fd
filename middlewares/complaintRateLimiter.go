package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/metrics"
)

const complaintLimitWindow = 24 * time.Hour

// Counter is the part of the Redis client the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// ComplaintRateLimiter caps how many complaints one citizen can file per day.
// It must run after authentication.
func ComplaintRateLimiter(store Counter, prefix string, limit int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			abort(c, apperrors.Unauthenticated("User not authenticated"))
			return
		}

		ctx := c.Request.Context()
		// Create individual key for each user
		userKey := prefix + ":" + identity.UserID.Hex()

		count, err := store.Incr(ctx, userKey).Result()
		if err != nil {
			log.Error("Redis error incrementing complaint count", zap.String("key", userKey), zap.Error(err))
			abort(c, apperrors.Storage("Something went wrong", err))
			return
		}

		// Set TTL only for the first increment
		if count == 1 {
			if err := store.Expire(ctx, userKey, complaintLimitWindow).Err(); err != nil {
				log.Error("Redis error setting TTL", zap.String("key", userKey), zap.Error(err))
				abort(c, apperrors.Storage("Something went wrong", err))
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := store.TTL(ctx, userKey).Result()
			metrics.RateLimited("complaints")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Daily complaint limit reached",
				"code":        "RATE_LIMITED",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()
	}
}
