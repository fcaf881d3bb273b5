package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	silent := chimw.NewWrapResponseWriter(httptest.NewRecorder(), req.ProtoMajor)
	if got := statusOf(silent); got != http.StatusOK {
		t.Fatalf("nothing written: status = %d", got)
	}

	ww := chimw.NewWrapResponseWriter(httptest.NewRecorder(), req.ProtoMajor)
	ww.WriteHeader(http.StatusTeapot)
	_, _ = ww.Write([]byte("abc"))
	if got := statusOf(ww); got != http.StatusTeapot {
		t.Fatalf("status = %d", got)
	}
	if ww.BytesWritten() != 3 {
		t.Fatalf("bytes = %d", ww.BytesWritten())
	}
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	c := httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/things/{id}", "202")
	before := testutil.ToFloat64(c)

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/things/"+id, nil))
	}

	if got := testutil.ToFloat64(c) - before; got != 2 {
		t.Fatalf("counter delta = %v, want 2", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	for k, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := rr.Header().Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestAccessLog_PassesThrough(t *testing.T) {
	t.Parallel()

	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusServiceUnavailable || rr.Body.String() != "down" {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	t.Parallel()

	c := httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "200")
	before := testutil.ToFloat64(c)

	// outside a chi router there is no route pattern
	Metrics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/verify/secret-token", nil))

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Fatalf("counter delta = %v, want 1", got)
	}
}
