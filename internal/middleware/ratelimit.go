package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guttosm/debpulse/internal/domain/dto"
	"github.com/guttosm/debpulse/internal/logger"
)

// Default budget applied by RateLimiter when given non-positive values.
const (
	DefaultRateLimit  = 60
	DefaultRateWindow = time.Minute
)

// sweepThreshold is the client count above which idle buckets are dropped.
const sweepThreshold = 1024

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// limiter keeps one token bucket per client IP. A bucket holds limit tokens
// and refills at limit per window. State is per process; replicas behind a
// balancer each keep their own.
type limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &limiter{clients: make(map[string]*client), limit: limit, window: window, now: time.Now}
}

// allow takes one token from key's bucket.
func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= sweepThreshold {
			l.sweep(now)
		}
		cl = &client{bucket: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.bucket.AllowN(now, 1)
}

// sweep drops clients idle for a full window; their bucket is full again
// anyway. Callers hold l.mu.
func (l *limiter) sweep(now time.Time) {
	for k, v := range l.clients {
		if now.Sub(v.lastSeen) >= l.window {
			delete(l.clients, k)
		}
	}
}

// RateLimiter allows bursts of up to limit requests per client IP, refilled
// at limit per window, and answers 429 with an ErrorResponse body once a
// client runs dry.
//
// Usage:
//
//	router.Use(middleware.RateLimiter(60, time.Minute))
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return rateLimit(newLimiter(limit, window))
}

func rateLimit(l *limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.allow(ip) {
			logger.L().Warn().
				Str("request_id", GetRequestID(c)).
				Str("client_ip", ip).
				Str("path", c.Request.URL.Path).
				Msg("rate limit exceeded")
			c.Header("Retry-After", retryAfter(l.window))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate limit exceeded", nil))
			return
		}
		c.Next()
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
