package middlewares

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WindowCounter counts hits per key inside a fixed window. Backed by redis
// when configured, by an in-process map otherwise.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (count int64, remaining time.Duration, err error)
}

type RateLimiter struct {
	counter WindowCounter
	limit   int64
	window  time.Duration
}

func NewRateLimiter(counter WindowCounter, limit int, window time.Duration) *RateLimiter {
	if counter == nil {
		counter = NewMemoryCounter()
	}

	return &RateLimiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
	}
}

// Middleware enforces the limit for a derived key.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		count, remaining, err := rl.counter.IncrWindow(c.Request.Context(), key, rl.window)

		if err != nil {
			// Counter outage must not take the API down with it.
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(remaining.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"msg":  "Too many requests, please try again shortly",
				"code": "rate_limited",
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

// MemoryCounter is the single-process fallback window counter.
type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count     int64
	windowEnd time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{buckets: make(map[string]*bucket)}
}

func (m *MemoryCounter) IncrWindow(_ context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]

	if !ok || now.After(b.windowEnd) {
		m.buckets[key] = &bucket{count: 1, windowEnd: now.Add(ttl)}
		return 1, ttl, nil
	}

	b.count++
	return b.count, time.Until(b.windowEnd), nil
}
