package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/jobsync/jobsync-auth/pkg/util"
)

const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	entries   map[string]*limBucket
}

type limBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(limit rate.Limit, burst int, ttl time.Duration) *ipLimiter {
	return &ipLimiter{
		limit:     limit,
		burst:     burst,
		ttl:       ttl,
		lastSweep: time.Now(),
		entries:   make(map[string]*limBucket),
	}
}

func (l *ipLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.entries[key]
	if b == nil {
		b = &limBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = b
	}
	b.lastSeen = now

	if now.Sub(l.lastSweep) > l.ttl {
		for k, v := range l.entries {
			if now.Sub(v.lastSeen) > l.ttl {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}
	return b.lim.AllowN(now, 1)
}

// RateLimit limits credential endpoints per client IP. perMinute <= 0
// disables the limiter.
func RateLimit(perMinute, burst int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := newIPLimiter(rate.Limit(float64(perMinute)/60), burst, limiterIdleTTL)
	retryAfter := strconv.Itoa((60 + perMinute - 1) / perMinute)
	return func(c *fiber.Ctx) error {
		if !limiter.allow(c.IP()) {
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return apperrors.NewTooManyRequests("too many attempts, try again later")
		}
		return c.Next()
	}
}
