package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// Quota is a per-client request budget. Match selects the requests it
// counts; a nil Match counts every request.
type Quota struct {
	Name   string
	Limit  int
	Window time.Duration
	Match  func(r *http.Request) bool
}

// IsScan matches on-demand scans, which spend marketplace API calls.
func IsScan(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == "/api/scan"
}

// RateLimit returns middleware that charges each request against every
// matching quota, keyed by quota name and client IP. Quotas with a
// non-positive limit are ignored. Limiter failures let the request through.
func RateLimit(limiter domain.RateLimiter, logger *slog.Logger, quotas ...Quota) func(http.Handler) http.Handler {
	active := make([]Quota, 0, len(quotas))
	for _, q := range quotas {
		if q.Limit > 0 && q.Window > 0 {
			active = append(active, q)
		}
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil || len(active) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			for _, q := range active {
				if q.Match != nil && !q.Match(r) {
					continue
				}
				allowed, err := limiter.Allow(r.Context(), q.Name+":"+ip, q.Limit, q.Window)
				if err != nil {
					logger.WarnContext(r.Context(), "rate limiter unavailable",
						slog.String("quota", q.Name),
						slog.String("error", err.Error()),
					)
					continue
				}
				if !allowed {
					w.Header().Set("Content-Type", "application/json; charset=utf-8")
					w.Header().Set("Retry-After", strconv.Itoa(max(1, int(q.Window.Seconds()))))
					w.WriteHeader(http.StatusTooManyRequests)
					w.Write([]byte(`{"error":"rate limit exceeded","quota":"` + q.Name + `"}`))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first valid address in X-Forwarded-For, then
// X-Real-IP, then the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
