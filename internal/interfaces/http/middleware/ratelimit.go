package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter counts hits per key in fixed windows
type Limiter interface {
	// Hit records one request for key and reports whether it is within the
	// limit, how many remain and when the window resets.
	Hit(ctx context.Context, key string) (allowed bool, remaining int, reset time.Duration, err error)
	Limit() int
}

// MemoryLimiter is a per-process fixed window limiter
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*memWindow
}

type memWindow struct {
	count   int
	resetAt time.Time
}

// NewMemoryLimiter allows limit requests per window per key
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, window: window, now: time.Now, windows: make(map[string]*memWindow)}
}

func (l *MemoryLimiter) Limit() int { return l.limit }

func (l *MemoryLimiter) Hit(_ context.Context, key string) (bool, int, time.Duration, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if len(l.windows) > 10000 {
			l.evict(now)
		}
		w = &memWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit, max(l.limit-w.count, 0), w.resetAt.Sub(now), nil
}

func (l *MemoryLimiter) evict(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}

// INCR and EXPIRE in one round trip so every replica shares the window
var hitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter is a fixed window limiter shared by every API replica
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter stores its counters under prefix
func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *RedisLimiter) Limit() int { return l.limit }

func (l *RedisLimiter) Hit(ctx context.Context, key string) (bool, int, time.Duration, error) {
	res, err := hitScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return true, l.limit, 0, err
	}
	if len(res) < 2 {
		return true, l.limit, 0, redis.Nil
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl <= 0 {
		ttl = l.window
	}
	return count <= l.limit, max(l.limit-count, 0), ttl, nil
}

// RateLimitKeyFunc derives the counter key of a request. An empty key falls
// back to the client IP.
type RateLimitKeyFunc func(*gin.Context) string

// KeyByIP counts per client address
func KeyByIP(c *gin.Context) string { return c.ClientIP() }

// KeyByTenantOrIP counts per resolved tenant, or per address before
// authentication.
func KeyByTenantOrIP(c *gin.Context) string {
	if id, ok := GetTenantUUID(c); ok {
		return "t:" + id.String()
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField counts per address and the lowercased JSON body field,
// so one account cannot be brute forced from many addresses sharing a NAT
// while other accounts still get through. The body is restored.
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		if c.Request.Body == nil {
			return c.ClientIP()
		}
		body, err := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil || len(body) == 0 {
			return c.ClientIP()
		}
		var payload map[string]any
		if json.Unmarshal(body, &payload) != nil {
			return c.ClientIP()
		}
		value, _ := payload[field].(string)
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// RateLimit rejects requests over the limit with 429. A limiter error lets
// the request through.
func RateLimit(limiter Limiter, keyFunc RateLimitKeyFunc, logger *zap.Logger) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = KeyByIP
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			key = c.ClientIP()
		}
		allowed, remaining, reset, err := limiter.Hit(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(max(int(reset.Round(time.Second)/time.Second), 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many requests, try again later", getRequestIDFromContext(c)))
			return
		}
		c.Next()
	}
}
