package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	appCtx "github.com/devstudio/site-api/internal/pkg/context"
)

var Logger zerolog.Logger

func Init(service string) {
	InitWithWriter(os.Stdout, service)
}

// InitWithWriter builds the process logger from LOG_LEVEL and LOG_FORMAT (json|console).
func InitWithWriter(w io.Writer, service string) {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if os.Getenv("LOG_FORMAT") != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	Logger = ctx.Logger().Level(level)

	zlog.Logger = Logger
}

// WithCtx tags base with the request id and client ip found in ctx.
func WithCtx(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	id, ip := appCtx.GetRequestID(ctx), appCtx.GetClientIP(ctx)
	if id == "" && ip == "" {
		return base
	}
	lc := base.With()
	if id != "" {
		lc = lc.Str("request_id", id)
	}
	if ip != "" {
		lc = lc.Str("client_ip", ip)
	}
	return lc.Logger()
}
