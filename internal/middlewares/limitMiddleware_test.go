package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitKeysBySourceIP(t *testing.T) {
	handler := RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/grades", nil)
		req.RemoteAddr = ip + ":40000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// Burst of 5, then the bucket is dry.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do("198.51.100.7").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do("198.51.100.7").Code)

	// A different source IP is unaffected.
	assert.Equal(t, http.StatusOK, do("198.51.100.8").Code)
}

func TestLoginRateLimiter(t *testing.T) {
	limiter := NewLoginRateLimiter(5, 15*time.Minute)

	handler := limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/admin/login", nil)
		req.RemoteAddr = ip + ":51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do("192.0.2.1").Code)
	}

	rec := do("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another source IP has its own budget.
	assert.Equal(t, http.StatusOK, do("192.0.2.2").Code)
}
