// Command api serves the site HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/devstudio/site-api/internal/bootstrap"
	"github.com/devstudio/site-api/internal/logger"
)

const defaultShutdownWait = 15 * time.Second

// httpServer is what Run needs from the wired server; tests inject a fake.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
	Addr() string

	// Drain blocks until in-flight background work (verification mails) is done.
	Drain()
	ShutdownWait() time.Duration
}

type realServer struct{ s *bootstrap.Server }

func (r realServer) ListenAndServe() error              { return r.s.ListenAndServe() }
func (r realServer) Shutdown(ctx context.Context) error { return r.s.Shutdown(ctx) }
func (r realServer) Close() error                       { return r.s.Close() }
func (r realServer) Addr() string                       { return r.s.Addr }
func (r realServer) ShutdownWait() time.Duration        { return r.s.ShutdownWait }

func (r realServer) Drain() {
	if r.s.Drain != nil {
		r.s.Drain()
	}
}

type serverBuilder func() (httpServer, func(), error)

// Run serves until a signal arrives or the listener fails and returns the
// process exit code. Cleanup always runs last, after in-flight requests and
// queued verification mail are done.
func Run(build serverBuilder, sigCh <-chan os.Signal, lg zerolog.Logger) int {
	srv, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	serveErr := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", srv.Addr()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		lg.Error().Err(err).Msg("listener failed")
		return 1
	case sig := <-sigCh:
		lg.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdown(srv, lg)
	lg.Info().Msg("shutdown complete")
	return 0
}

// shutdown stops accepting requests, then waits for background mail, both
// within one ShutdownWait budget.
func shutdown(srv httpServer, lg zerolog.Logger) {
	wait := srv.ShutdownWait()
	if wait <= 0 {
		wait = defaultShutdownWait
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed; closing connections")
		_ = srv.Close()
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		srv.Drain()
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		lg.Warn().Dur("waited", wait).Msg("verification mail still pending at exit")
	}
}

func buildFromBootstrap() (httpServer, func(), error) {
	srv, cleanup, err := bootstrap.NewServer()
	if err != nil {
		return nil, nil, err
	}
	return realServer{srv}, cleanup, nil
}

func main() {
	logger.Init("site-api")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	os.Exit(Run(buildFromBootstrap, sigCh, zlog.Logger))
}
