package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/askboard/askboard-server/internal/http/response"
	"github.com/askboard/askboard-server/internal/ratelimit"
)

// RateLimiter is the per-key token bucket used by the API.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a new rate limiter.
// rate: number of requests allowed per interval
// interval: time period for rate (e.g., time.Minute)
// burst: maximum burst size
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	// 20 per minute = 20/60 = 0.333 rps
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

const authPathPrefix = "/api/v1/auth/"

// RateLimitMiddleware limits requests by client IP. Auth routes draw from
// authLimiter; every other POST draws from writeLimiter. Reads are never
// limited. A nil limiter disables its class.
// Returns 429 Too Many Requests when limit is exceeded.
func RateLimitMiddleware(authLimiter, writeLimiter *RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := writeLimiter
			switch {
			case strings.HasPrefix(r.URL.Path, authPathPrefix):
				limiter = authLimiter
			case r.Method != http.MethodPost:
				limiter = nil
			}

			if limiter != nil {
				key := getClientIP(r)
				if !limiter.Allow(key) {
					logger.Warn("Rate limit exceeded",
						"ip", key,
						"path", r.URL.Path,
					)
					response.TooManyRequests(w, "Too many requests. Please try again later.", logger)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	// May contain multiple IPs, first is client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return stripPort(r.RemoteAddr)
}

// stripPort removes a trailing ":port" from addr, keeping IPv6 brackets
// intact when there is no port.
func stripPort(addr string) string {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 || strings.HasSuffix(addr, "]") {
		return addr
	}
	return strings.Trim(addr[:i], "[]")
}
