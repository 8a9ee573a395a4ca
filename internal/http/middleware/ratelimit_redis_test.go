package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func testRedis(t *testing.T) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	InitRedisRateLimiter(addr, "", 0)
	if redisClient == nil {
		t.Fatalf("redis at %s not reachable", addr)
	}
}

func TestRedisRateLimitRetryAfterTracksWindow(t *testing.T) {
	testRedis(t)
	gin.SetMode(gin.TestMode)

	const window = 37 * time.Second
	redisClient.Del(context.Background(), "rl:37:10.9.9.9")

	r := gin.New()
	r.GET("/ping", RedisRateLimit(2, window), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.9.9.9:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(); rec.Code != http.StatusOK {
		t.Fatalf("first request got %d, want 200", rec.Code)
	}
	do()

	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request got %d, want 429", rec.Code)
	}
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After header %q is not a number", rec.Header().Get("Retry-After"))
	}
	if retry < 1 || retry > int(window.Seconds()) {
		t.Fatalf("retry-after %d outside the window budget %d", retry, int(window.Seconds()))
	}

	// The value counts down with the key TTL rather than repeating the
	// configured window length.
	time.Sleep(2 * time.Second)
	rec = do()
	later, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After header %q is not a number", rec.Header().Get("Retry-After"))
	}
	if later >= int(window.Seconds()) {
		t.Fatalf("retry-after %d did not shrink below the window after waiting", later)
	}
}
