package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ok, remaining, _, err := l.Hit(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, remaining, _, _ = l.Hit(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, remaining, reset, _ := l.Hit(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, time.Minute, reset)

	ok, _, _, _ = l.Hit(ctx, "b")
	assert.True(t, ok, "keys are counted separately")

	now = now.Add(time.Minute)
	ok, remaining, _, _ = l.Hit(ctx, "a")
	assert.True(t, ok, "a new window starts after reset")
	assert.Equal(t, 1, remaining)
}

func newRateLimitedRouter(l Limiter, key RateLimitKeyFunc, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(l, key, log))
	r.POST("/login", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	r := newRateLimitedRouter(NewMemoryLimiter(1, time.Minute), nil, nil)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	var resp dto.Response
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRateLimited, resp.Error.Code)
}

func TestKeyByIPAndJSONField_PerAccountAndBodyRestored(t *testing.T) {
	r := newRateLimitedRouter(NewMemoryLimiter(1, time.Minute), KeyByIPAndJSONField("email"), nil)
	login := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := login(`{"email":"Ana@Lab.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"email":"Ana@Lab.com"}`, w.Body.String())

	assert.Equal(t, http.StatusTooManyRequests, login(`{"email":"ana@lab.com "}`).Code, "email is normalized")
	assert.Equal(t, http.StatusOK, login(`{"email":"bruno@lab.com"}`).Code)
}

func TestKeyByIPAndJSONField_FallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	key := KeyByIPAndJSONField("email")
	for _, body := range []string{"", "not json", `{"email":42}`, `{"other":"x"}`} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		c.Request.RemoteAddr = "10.1.2.3:5000"
		assert.Equal(t, "10.1.2.3", key(c), "body %q", body)
	}
}

func TestRateLimit_FailsOpenWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zapcore.WarnLevel)
	r := newRateLimitedRouter(NewRedisLimiter(client, "test", 1, time.Minute), KeyByIP, zap.New(core))

	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 3, logs.FilterMessage("Rate limiter unavailable").Len())
}
