package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a small fixed-window per-client limiter used on the
// credential endpoints (login, register, forgot-password). Buckets are keyed
// by client IP and pruned lazily on access.
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	seen   map[string]*bucket
}

type bucket struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		window: window,
		limit:  limit,
		seen:   make(map[string]*bucket),
	}
}

func (rl *RateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.seen[key]

	if !ok || now.After(b.resetAt) {
		rl.seen[key] = &bucket{count: 1, resetAt: now.Add(rl.window)}

		// opportunistic prune so the map doesn't grow unbounded
		if len(rl.seen) > 10_000 {
			for k, v := range rl.seen {
				if now.After(v.resetAt) {
					delete(rl.seen, k)
				}
			}
		}

		return true
	}

	if b.count >= rl.limit {
		return false
	}

	b.count++

	return true
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", rl.window.String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests, slow down",
				},
			})
			return
		}

		c.Next()
	}
}
