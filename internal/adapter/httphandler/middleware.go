package httphandler

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/metrics"
	"golang.org/x/time/rate"
)

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// maxClientLimiters bounds the number of tracked client addresses.
const maxClientLimiters = 10000

type clientLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func (l *clientLimiter) get(addr string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[addr]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok = l.limiters[addr]; ok {
		return limiter
	}

	if len(l.limiters) >= maxClientLimiters {
		for evicted := range l.limiters {
			delete(l.limiters, evicted)
			break
		}
	}

	limiter = rate.NewLimiter(l.rate, l.burst)
	l.limiters[addr] = limiter
	return limiter
}

// RateLimit rejects requests over rps per client address with 429.
//
// Panics when rps or burst is not positive.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 || burst <= 0 {
		panic("RateLimit: rps and burst must be positive") // develop mistake
	}

	cl := &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}

	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			if !cl.get(addr).Allow() {
				metrics.IncThrottled()
				slog.Warn("too many requests",
					"op", "RateLimit", "addr", addr, "path", r.URL.Path,
				)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hf)
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.code = code
	rec.ResponseWriter.WriteHeader(code)
}

// Instrument records the request count and latency by route pattern.
//
// The [http.ServeMux] sets the pattern on the request it is given, so no
// handler between Instrument and the mux may replace the request.
func Instrument(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(route, rec.code, time.Since(start))
	}
	return http.HandlerFunc(hf)
}
