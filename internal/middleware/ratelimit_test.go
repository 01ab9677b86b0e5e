package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit_EnvironmentBypass(t *testing.T) {
	for _, env := range []string{"test", "development", "stress"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			for i := 0; i < 5; i++ {
				allowed, err := CheckRateLimit(context.Background(), nil, "r", "1", 1, time.Minute)
				require.NoError(t, err)
				assert.True(t, allowed)
			}
		})
	}
}

func TestCheckRateLimit_Redis(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "comments", "user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := CheckRateLimit(ctx, rdb, "comments", "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.True(t, mr.Exists("rl:comments:user:1"))
	assert.Equal(t, time.Minute, mr.TTL("rl:comments:user:1"))

	mr.FastForward(time.Minute + time.Second)
	allowed, err = CheckRateLimit(ctx, rdb, "comments", "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckRateLimit_LocalFallback(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, nil, "fallback-test", "ip:1", 2, time.Hour)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := CheckRateLimit(ctx, nil, "fallback-test", "ip:1", 2, time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = CheckRateLimit(ctx, nil, "fallback-test", "ip:2", 2, time.Hour)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLocalLimiters_EvictsIdleKeys(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLocalLimiters(time.Minute)
	l.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		assert.True(t, l.allow("rl:posts:ip:10.0.0."+strconv.Itoa(i), 5, time.Minute))
	}
	assert.Equal(t, 50, l.size())

	clock = clock.Add(30 * time.Second)
	assert.True(t, l.allow("rl:posts:ip:10.0.0.0", 5, time.Minute))
	assert.Equal(t, 50, l.size(), "keys inside their window are kept")

	clock = clock.Add(90 * time.Second)
	assert.True(t, l.allow("rl:posts:ip:192.168.1.1", 5, time.Minute))
	assert.Equal(t, 1, l.size(), "idle keys are swept")
}

func TestLocalLimiters_SweepKeepsActiveBudget(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLocalLimiters(time.Second)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("rl:comments:user:1", 2, time.Hour))
	assert.True(t, l.allow("rl:comments:user:1", 2, time.Hour))

	clock = clock.Add(2 * time.Second)
	assert.False(t, l.allow("rl:comments:user:1", 2, time.Hour))
	assert.Equal(t, 1, l.size())
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, rdb := newTestRedis(t)

	app := fiber.New()
	app.Get("/limited", RateLimit(rdb, 2, time.Minute, "limited"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitWithPolicy_RedisDown(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	app := fiber.New()
	app.Get("/open", RateLimitWithPolicy(rdb, 1, time.Minute, FailOpen), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/closed", RateLimitWithPolicy(rdb, 1, time.Minute, FailClosed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/open", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/closed", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
