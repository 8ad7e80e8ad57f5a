package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/technosupport/arena-watch/internal/metrics"
	"github.com/technosupport/arena-watch/internal/ratelimit"
)

type RateLimiter interface {
	HashIP(ip string) string
	CheckRateLimit(ctx context.Context, key string, cfg ratelimit.LimitConfig) (*ratelimit.Decision, error)
}

// ClientIP strips the port from RemoteAddr, which RealIP may already have
// replaced with a bare address.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RateLimit caps requests per client IP under scope. Redis failures fail open.
func RateLimit(l RateLimiter, scope string, cfg ratelimit.LimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil || !cfg.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("rl:%s:%s", scope, l.HashIP(ClientIP(r)))

			d, err := l.CheckRateLimit(r.Context(), key, cfg)
			if err != nil {
				if errors.Is(err, ratelimit.ErrRedisUnavailable) {
					metrics.RateLimitTotal.WithLabelValues(scope, "redis_error").Inc()
				}
				log.Printf("RateLimit Redis Error (%s, Fail Open): %v", scope, err)
				next.ServeHTTP(w, r)
				return
			}

			writeRateLimitHeaders(w, d)
			if !d.Allowed {
				metrics.RateLimitTotal.WithLabelValues(scope, "blocked").Inc()
				writeError(w, http.StatusTooManyRequests, "rate_limited", ratelimit.ErrRateLimitExceeded.Error())
				return
			}
			metrics.RateLimitTotal.WithLabelValues(scope, "allowed").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	if !d.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
	}
}
