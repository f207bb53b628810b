// Package ratelimit applies per-IP token buckets to the auth routes, where
// credential stuffing is the concern. The rest of the API is left alone.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cuetube/cuetube/internal/httputil"
)

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter refills each client's bucket at a fixed rate up to a burst cap.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
	now     func() time.Time
}

func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		rate:    requestsPerSecond,
		burst:   float64(burst),
		now:     time.Now,
	}
	go l.janitor()
	return l
}

func (l *Limiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[ip]
	if !ok {
		l.buckets[ip] = &bucket{tokens: l.burst - 1, lastSeen: now}
		return true
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * l.rate
	b.lastSeen = now
	if b.tokens > l.burst {
		b.tokens = l.burst
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// janitor drops buckets idle long enough to be full again anyway.
func (l *Limiter) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		for ip, b := range l.buckets {
			if l.now().Sub(b.lastSeen) > 10*time.Minute {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware rejects over-limit clients with 429 and a Retry-After hint.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "10")
			httputil.WriteError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address with the port stripped.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
