package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// stubServer records the lifecycle calls Run makes, in order.
type stubServer struct {
	mu  sync.Mutex
	log []string

	serveErr    error
	shutdownErr error
	drain       func()
	wait        time.Duration
}

func (s *stubServer) record(ev string) {
	s.mu.Lock()
	s.log = append(s.log, ev)
	s.mu.Unlock()
}

func (s *stubServer) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func (s *stubServer) ListenAndServe() error {
	s.record("serve")
	return s.serveErr
}

func (s *stubServer) Shutdown(context.Context) error {
	s.record("shutdown")
	return s.shutdownErr
}

func (s *stubServer) Close() error {
	s.record("close")
	return nil
}

func (s *stubServer) Addr() string { return "127.0.0.1:0" }

func (s *stubServer) Drain() {
	s.record("drain")
	if s.drain != nil {
		s.drain()
	}
}

func (s *stubServer) ShutdownWait() time.Duration { return s.wait }

func runWith(t *testing.T, srv *stubServer, signal bool) int {
	t.Helper()
	sig := make(chan os.Signal, 1)
	if signal {
		sig <- os.Interrupt
	}
	return Run(func() (httpServer, func(), error) {
		return srv, func() { srv.record("cleanup") }, nil
	}, sig, zerolog.Nop())
}

func TestRun_BuildError(t *testing.T) {
	sig := make(chan os.Signal, 1)
	code := Run(func() (httpServer, func(), error) {
		return nil, nil, errors.New("config: JWT_SECRET missing")
	}, sig, zerolog.Nop())

	assert.Equal(t, 1, code)
}

func TestRun_Lifecycle(t *testing.T) {
	cases := []struct {
		name   string
		srv    *stubServer
		signal bool
		code   int
		// serve runs on its own goroutine and may land anywhere, so it is
		// left out of the ordered calls
		want []string
	}{
		{
			name:   "signal drains mail before cleanup",
			srv:    &stubServer{serveErr: http.ErrServerClosed},
			signal: true,
			want:   []string{"shutdown", "drain", "cleanup"},
		},
		{
			name:   "failed shutdown forces close",
			srv:    &stubServer{serveErr: http.ErrServerClosed, shutdownErr: errors.New("deadline")},
			signal: true,
			want:   []string{"shutdown", "close", "drain", "cleanup"},
		},
		{
			name: "listener crash skips shutdown and drain",
			srv:  &stubServer{serveErr: errors.New("bind: address in use")},
			code: 1,
			want: []string{"cleanup"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, runWith(t, tc.srv, tc.signal))

			var ordered []string
			for _, c := range tc.srv.calls() {
				if c != "serve" {
					ordered = append(ordered, c)
				}
			}
			assert.Equal(t, tc.want, ordered)
		})
	}
}

func TestRun_StuckDrainIsBoundedByShutdownWait(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	srv := &stubServer{
		serveErr: http.ErrServerClosed,
		wait:     50 * time.Millisecond,
		drain:    func() { <-release },
	}

	start := time.Now()
	assert.Equal(t, 0, runWith(t, srv, true))
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, srv.calls(), "cleanup")
}
