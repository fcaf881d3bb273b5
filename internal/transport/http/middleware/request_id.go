package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	appCtx "github.com/devstudio/site-api/internal/pkg/context"
)

const HeaderXRequestID = "X-Request-Id"

// RequestID keeps a caller-supplied X-Request-Id when it is short printable
// ASCII and mints a UUID otherwise. It also stores the client IP so logs,
// audit entries and rate-limit keys agree on who called.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderXRequestID)
		if !usableRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderXRequestID, id)

		ctx := appCtx.WithClientIP(appCtx.WithRequestID(r.Context(), id), clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func usableRequestID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// clientIP trusts the first X-Forwarded-For hop; the API is only reachable
// through the site's own reverse proxy.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
