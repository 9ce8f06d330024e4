package middlewares

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"darsly/internal/apperrors"
	"darsly/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var ipVisitors = make(map[string]*visitor)
var mu sync.Mutex

func getLimiter(ip string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := ipVisitors[ip]
	if !exists {
		limiter := rate.NewLimiter(3, 5)
		v = &visitor{limiter, time.Now()}
		ipVisitors[ip] = v
	}

	v.lastSeen = time.Now()

	return v.limiter
}

// CleanupVisitors evicts idle entries from the visitor map. Started once at
// server boot.
func CleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for ip, v := range ipVisitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(ipVisitors, ip)
			}
		}
		mu.Unlock()
	}
}

// RateLimit is the general per-IP limiter applied to the whole router. It
// runs before authentication, so the source IP is the only usable key.
func RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !getLimiter(utils.ClientIP(r)).Allow() {
			apperrors.WriteError(w, apperrors.ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoginRateLimiter throttles credential-guessing on the login endpoints:
// a fixed number of attempts per source IP per window, answered with 429
// and a Retry-After hint once exhausted.
type LoginRateLimiter struct {
	attempts int
	window   time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
}

func NewLoginRateLimiter(attempts int, window time.Duration) *LoginRateLimiter {
	l := &LoginRateLimiter{
		attempts: attempts,
		window:   window,
		visitors: make(map[string]*visitor),
	}
	go l.cleanup()
	return l
}

func (l *LoginRateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		// The full burst is available up front; it refills over the window.
		limiter := rate.NewLimiter(rate.Every(l.window/time.Duration(l.attempts)), l.attempts)
		v = &visitor{limiter, time.Now()}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (l *LoginRateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)

		l.mu.Lock()
		for key, v := range l.visitors {
			if time.Since(v.lastSeen) > 2*l.window {
				delete(l.visitors, key)
			}
		}
		l.mu.Unlock()
	}
}

func (l *LoginRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := utils.ClientIP(r) + r.URL.Path
		if !l.limiterFor(key).Allow() {
			apperrors.WriteError(w, apperrors.ErrRateLimited, int(l.window.Seconds()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
