// Command mailer consumes queued mail from RabbitMQ and delivers it over SMTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/devstudio/site-api/internal/bootstrap"
	"github.com/devstudio/site-api/internal/logger"
)

const stopTimeout = 15 * time.Second

type builder func() (bootstrap.Worker, func(), error)

// Run returns the process exit code. The worker's Start only launches its
// supervisor, so Run blocks on the signal channel, not on Start.
func Run(build builder, sigCh <-chan os.Signal, lg zerolog.Logger) int {
	w, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		lg.Error().Err(err).Msg("mail worker failed to start")
		return 1
	}
	lg.Info().Msg("mail worker running")

	sig := <-sigCh
	lg.Info().Str("signal", sig.String()).Msg("stopping mail worker")

	stopCtx, stop := context.WithTimeout(context.Background(), stopTimeout)
	defer stop()

	code := 0
	if err := w.Stop(stopCtx); err != nil {
		lg.Error().Err(err).Msg("mail worker did not stop cleanly")
		code = 1
	}
	lg.Info().Int("exit_code", code).Msg("shutdown complete")
	return code
}

func main() {
	logger.Init("site-mailer")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	os.Exit(Run(bootstrap.NewMailer, sigCh, zlog.Logger))
}
