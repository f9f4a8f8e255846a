package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimited(t *testing.T, scope string, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rl := NewRateLimiter(client, scope, limit, 60)
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})), mr
}

func hitFrom(h http.Handler, remoteAddr string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = remoteAddr
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_CountsDownThenBlocks(t *testing.T) {
	h, _ := newLimited(t, "auth", 3)

	for i := 0; i < 3; i++ {
		rec := hitFrom(h, "10.0.0.1:12345")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := hitFrom(h, "10.0.0.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
}

func TestRateLimiter_RemainingHeader(t *testing.T) {
	h, _ := newLimited(t, "auth", 5)

	rec := hitFrom(h, "10.0.0.2:1")
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_IPsAreIndependent(t *testing.T) {
	h, _ := newLimited(t, "auth", 2)

	hitFrom(h, "1.1.1.1:1")
	hitFrom(h, "1.1.1.1:1")
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(h, "1.1.1.1:1").Code)
	assert.Equal(t, http.StatusOK, hitFrom(h, "2.2.2.2:1").Code)
}

func TestRateLimiter_KeysAreScoped(t *testing.T) {
	h, mr := newLimited(t, "webhook", 2)

	hitFrom(h, "5.5.5.5:1")
	assert.True(t, mr.Exists("ratelimit:webhook:5.5.5.5"))
	assert.False(t, mr.Exists("ratelimit:auth:5.5.5.5"))
}

func TestRateLimiter_UsesFirstForwardedAddress(t *testing.T) {
	h, mr := newLimited(t, "auth", 2)

	hitFrom(h, "127.0.0.1:9", "X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.True(t, mr.Exists("ratelimit:auth:203.0.113.7"))
}

func TestRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	h, mr := newLimited(t, "auth", 1)
	mr.Close()

	assert.Equal(t, http.StatusOK, hitFrom(h, "3.3.3.3:1").Code)
}
