/**
 * @description
 * This file contains custom middleware for the HTTP router. The transfer endpoint
 * carries a Redis-backed per-client rate limit; when Redis is not configured the
 * middleware is a pass-through.
 *
 * @dependencies
 * - net, net/http, strings, time: Standard Go libraries.
 * - internal/app: The Redis rate limiter.
 */

package api

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fabriciomarote/capacitacion/internal/app"
)

// clientAddress extracts the caller's address, honoring X-Forwarded-For from a
// fronting proxy.
func clientAddress(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// TransferRateLimitMiddleware limits transfer submissions per client address per
// minute. A nil limiter or non-positive limit disables the check; limiter errors
// fail open so a Redis outage cannot take down transfers.
func TransferRateLimitMiddleware(limiter *app.RedisRateLimiter, perMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || perMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			count, retryAfter, err := limiter.ConsumeRateLimit(
				r.Context(), "transfer", clientAddress(r), perMinute, time.Minute)
			if err != nil {
				logger.Warn("rate limiter unavailable; allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if count > perMinute {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "too many transfer requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
