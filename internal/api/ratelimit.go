package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter answers whether one more request under the key fits the
// window right now.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// windowLimiter is the in-process sliding window used when no redis
// is configured. Timestamps are pruned on every check.
type windowLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	return &windowLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

func (l *windowLimiter) Allow(ctx context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	threshold := now.Add(-l.window)
	pruned := l.hits[key][:0]
	for _, hit := range l.hits[key] {
		if hit.After(threshold) {
			pruned = append(pruned, hit)
		}
	}
	if len(pruned) >= l.limit {
		l.hits[key] = pruned
		return false
	}
	l.hits[key] = append(pruned, now)
	return true
}

// redisLimiter counts requests in fixed windows via INCR/EXPIRE so the
// limit holds across instances. Redis trouble fails open.
type redisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func (l *redisLimiter) Allow(ctx context.Context, key string) bool {
	bucket := l.prefix + ":" + key
	n, err := l.rdb.Incr(ctx, bucket).Result()
	if err != nil {
		return true
	}
	if n == 1 {
		l.rdb.Expire(ctx, bucket, l.window)
	}
	return n <= int64(l.limit)
}

// NewRateLimiter picks the redis-backed limiter when a client is
// available and the in-memory one otherwise.
func NewRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) RateLimiter {
	if rdb != nil {
		return &redisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
	}
	return newWindowLimiter(limit, window)
}

// RateLimitMiddleware rejects requests over the limit with 429,
// keyed by client IP.
func RateLimitMiddleware(limiter RateLimiter, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if !limiter.Allow(c.Request.Context(), key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}
		c.Next()
	}
}
