package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/util"
	"go.uber.org/zap"
)

// Counter is a fixed-window counter; cache.RedisClient implements it
type Counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit allows max requests per window for each viewer (or client IP
// before authentication) in the named bucket. With a nil counter it is a
// pass-through. A counter failure rejects with 503 rather than letting
// traffic through unmetered.
func RateLimit(counter Counter, bucket string, max int, window time.Duration, m *metrics.Metrics, log *zap.Logger) gin.HandlerFunc {
	if counter == nil || max <= 0 {
		var once sync.Once
		return func(c *gin.Context) {
			once.Do(func() {
				log.Warn("rate limiting disabled", zap.String("bucket", bucket))
			})
			c.Next()
		}
	}

	return func(c *gin.Context) {
		subject := c.GetString(util.ContextUserID)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", bucket, subject)

		count, err := counter.IncrWindow(c.Request.Context(), key, window)
		if err != nil {
			log.Error("rate limit counter unavailable", zap.String("bucket", bucket), zap.Error(err))
			util.RespondError(c, errors.TransientStore("rate limit", err))
			return
		}

		remaining := max - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(max) {
			m.RateLimitExceeded(bucket)
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			util.RespondWithAPIError(c, errors.RateLimited(""))
			return
		}

		c.Next()
	}
}
