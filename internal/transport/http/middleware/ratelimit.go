package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/devstudio/site-api/internal/domain"
	"github.com/devstudio/site-api/internal/logger"
	appCtx "github.com/devstudio/site-api/internal/pkg/context"
)

// RateLimiter is satisfied by the redis fixed-window limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

type FixedWindowConfig struct {
	RouteKey string
	Limit    int
	Window   time.Duration
}

// RateLimitFixedWindow allows Limit requests per caller per Window on one
// route. Callers are the signed-in user when known, the client IP otherwise.
// If the limiter errors the request goes through.
func RateLimitFixedWindow(limiter RateLimiter, cfg FixedWindowConfig, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.RouteKey == "" {
		cfg.RouteKey = "unknown"
	}

	return func(next http.Handler) http.Handler {
		if limiter == nil || cfg.Limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := bucketKey(cfg.RouteKey, caller(r), time.Now(), cfg.Window)

			ok, retry, err := limiter.Allow(r.Context(), key, cfg.Limit, cfg.Window)
			switch {
			case err != nil:
				l := logger.WithCtx(r.Context(), zlog.Logger)
				l.Warn().Err(err).Str("route", cfg.RouteKey).Msg("rate limiter unavailable; request allowed")
			case !ok:
				if retry > 0 {
					w.Header().Set("Retry-After", retryAfterSeconds(retry))
				}
				writeErr(w, r, domain.ErrRateLimited(cfg.RouteKey))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bucketKey is "rl:<route>:<caller>:<window index>". The index rolls over
// with the window so stale buckets simply expire.
func bucketKey(route, who string, now time.Time, window time.Duration) string {
	secs := max(int64(window/time.Second), 1)
	return strings.Join([]string{"rl", route, who, strconv.FormatInt(now.Unix()/secs, 10)}, ":")
}

func caller(r *http.Request) string {
	if uid, ok := UserIDFromContext(r.Context()); ok {
		return "u:" + uid
	}
	if ip := appCtx.GetClientIP(r.Context()); ip != "" {
		return "ip:" + ip
	}
	return "ip:" + clientIP(r)
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(int(math.Round(d.Seconds())), 1))
}
