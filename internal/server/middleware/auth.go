package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"
)

// Keys are the accepted API credentials. Admin may call every route; Read
// is limited to GET and HEAD, which suits dashboards.
type Keys struct {
	Admin string
	Read  string
}

func (k Keys) disabled() bool { return k.Admin == "" && k.Read == "" }

type access int

const (
	accessNone access = iota
	accessRead
	accessAdmin
)

func (k Keys) grant(token string) access {
	switch {
	case token == "":
		return accessNone
	case k.Admin != "" && subtle.ConstantTimeCompare([]byte(token), []byte(k.Admin)) == 1:
		return accessAdmin
	case k.Read != "" && subtle.ConstantTimeCompare([]byte(token), []byte(k.Read)) == 1:
		return accessRead
	}
	return accessNone
}

// Auth returns middleware that checks the request token against keys. Paths
// in public and CORS preflights skip the check. With no keys configured
// every request passes.
func Auth(keys Keys, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if keys.disabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || slices.Contains(public, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := requestToken(r)
			switch keys.grant(token) {
			case accessAdmin:
			case accessRead:
				if r.Method != http.MethodGet && r.Method != http.MethodHead {
					writeAuthError(w, http.StatusForbidden, "read-only key")
					return
				}
			default:
				if token == "" {
					writeAuthError(w, http.StatusUnauthorized, "missing authentication token")
				} else {
					writeAuthError(w, http.StatusUnauthorized, "invalid authentication token")
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestToken reads a Bearer token, the X-API-Key header, or for WebSocket
// upgrades the token query parameter.
func requestToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
