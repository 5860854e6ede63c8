package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter decides whether one more hit on key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// MemoryLimiter is the single-process fixed-window limiter used when no redis
// is configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]
	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(window)}
		rl.evict(now)
		return true, nil
	}

	if b.count >= limit {
		return false, nil
	}

	b.count++
	return true, nil
}

// evict drops finished windows once the map grows; caller holds mu.
func (rl *MemoryLimiter) evict(now time.Time) {
	if len(rl.clients) < 10_000 {
		return
	}
	for k, b := range rl.clients {
		if now.After(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
}

// RateLimit enforces limit hits per window for the key derived from the request.
// A limiter error lets the request through.
func RateLimit(l Limiter, scope string, limit int, window time.Duration, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)
		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		ok, err := l.Allow(c.Request.Context(), "rental:ratelimit:"+scope+":"+key, limit, window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limiter unavailable", "scope", scope, "err", err)
			c.Next()
			return
		}

		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusOK, gin.H{
				"success": false,
				"message": "Too many attempts. Please try again shortly.",
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

func KeyByUserOrIP(c *gin.Context) string {
	if actor, ok := ActorFrom(c); ok {
		return "user:" + strconv.FormatInt(actor.UserID, 10)
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
