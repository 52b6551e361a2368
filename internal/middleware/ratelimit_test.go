package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/cache"
	"github.com/emberhq/ember-api/internal/config"
	"github.com/emberhq/ember-api/internal/middleware"
)

func limiterRouter(appCtx *app.AppContext, limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping",
		func(c *gin.Context) {
			c.Set("authUser", middleware.AuthUser{ID: "user-1"})
			c.Next()
		},
		middleware.RateLimit(appCtx, "ping", limit, window),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	return r
}

func hit(router *gin.Engine) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitFixedWindow(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(cfg, nil, cache.NewRedisCache(cfg), logger)

	router := limiterRouter(appCtx, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(router))

	// the next window starts clean
	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit(router))
}

// TestRateLimitFailsOpen: a dead Redis must not take the API down with it.
func TestRateLimitFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(cfg, nil, cache.NewRedisCache(cfg), logger)

	mr.Close() // limiter backend gone

	router := limiterRouter(appCtx, 1, time.Minute)
	assert.Equal(t, http.StatusOK, hit(router))
	assert.Equal(t, http.StatusOK, hit(router))
}

func TestRateLimitRequiresAuth(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(cfg, nil, cache.NewRedisCache(cfg), logger)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping",
		middleware.RateLimit(appCtx, "ping", 1, time.Minute),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
