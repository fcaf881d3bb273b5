package audit

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	appCtx "github.com/devstudio/site-api/internal/pkg/context"
)

// Logger provides structured audit logging for account and admin events.
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// warnActions are logged at warn level so they stand out from routine traffic.
var warnActions = map[string]bool{
	"auth.login_failed": true,
	"admin.reply":       true,
}

// Record writes one audit line. Fields named "email" (or ending in "_email") are masked.
// Its signature matches the WithAudit hooks of the application services.
func (l *Logger) Record(ctx context.Context, action string, fields map[string]string) {
	ev := l.log.Info()
	if warnActions[action] {
		ev = l.log.Warn()
	}
	ev = ev.Str("action", action)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if k == "email" || strings.HasSuffix(k, "_email") {
			v = maskEmail(v)
		}
		ev = ev.Str(k, v)
	}

	if id := appCtx.GetRequestID(ctx); id != "" {
		ev = ev.Str("request_id", id)
	}
	if ip := appCtx.GetClientIP(ctx); ip != "" {
		ev = ev.Str("ip", ip)
	}
	ev.Msg("audit event")
}

// maskEmail partially masks email for privacy in logs
func maskEmail(email string) string {
	if len(email) < 5 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	switch {
	case at < 0:
		return email[:1] + "***"
	case at < 2:
		return email[:1] + "***" + email[at:]
	default:
		return email[:2] + "***" + email[at:]
	}
}
