package router

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devstudio/site-api/internal/domain"
	"github.com/devstudio/site-api/internal/transport/http/middleware"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	Signup(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	OAuth(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	Profile(w http.ResponseWriter, r *http.Request)
}

type SiteHandler interface {
	Contact(w http.ResponseWriter, r *http.Request)
	ActiveAds(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)

	Messages(w http.ResponseWriter, r *http.Request)
	Users(w http.ResponseWriter, r *http.Request)
	Ads(w http.ResponseWriter, r *http.Request)
	CreateAd(w http.ResponseWriter, r *http.Request)
	UpdateAd(w http.ResponseWriter, r *http.Request)
	Reply(w http.ResponseWriter, r *http.Request)
}

type UploadHandler interface {
	Profile(w http.ResponseWriter, r *http.Request)
}

// RateLimits are per route, per caller, per window.
type RateLimits struct {
	Enabled bool
	Signup  int
	Login   int
	Contact int
	Window  time.Duration
}

type Deps struct {
	Health HealthHandler
	Auth   AuthHandler
	Site   SiteHandler
	Upload UploadHandler

	AuthMW  func(http.Handler) http.Handler
	AdminMW func(http.Handler) http.Handler

	WriteErr middleware.WriteErrFunc

	// Limiter backs the fixed-window limits; nil falls back to in-process httprate.
	Limiter    middleware.RateLimiter
	RateLimits RateLimits

	CORSOrigins []string
	// UploadDir is served at /uploads/* when set (local storage backend).
	UploadDir string
}

func New(deps Deps) (http.Handler, error) {
	switch {
	case deps.Health == nil:
		return nil, fmt.Errorf("nil Health handler")
	case deps.Auth == nil:
		return nil, fmt.Errorf("nil Auth handler")
	case deps.Site == nil:
		return nil, fmt.Errorf("nil Site handler")
	case deps.Upload == nil:
		return nil, fmt.Errorf("nil Upload handler")
	case deps.AuthMW == nil:
		return nil, fmt.Errorf("nil Auth middleware")
	case deps.AdminMW == nil:
		return nil, fmt.Errorf("nil Admin middleware")
	case deps.WriteErr == nil:
		return nil, fmt.Errorf("nil error writer")
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderXRequestID},
		ExposedHeaders:   []string{middleware.HeaderXRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		deps.WriteErr(w, r, domain.New(domain.KindNotFound, "route_not_found", "Not found"))
	})

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	if deps.UploadDir != "" {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir)))
		r.Handle("/uploads/*", noDirListing(files))
	}

	limit := limiterFor(deps)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", deps.Site.Status)

		r.Route("/auth", func(r chi.Router) {
			r.With(limit("signup", deps.RateLimits.Signup)).Post("/signup", deps.Auth.Signup)
			r.With(limit("login", deps.RateLimits.Login)).Post("/login", deps.Auth.Login)
			r.With(limit("oauth", deps.RateLimits.Login)).Post("/oauth/{provider}", deps.Auth.OAuth)
			r.Get("/verify/{token}", deps.Auth.Verify)
			r.With(deps.AuthMW).Get("/profile", deps.Auth.Profile)
		})

		r.With(limit("contact", deps.RateLimits.Contact)).Post("/contact", deps.Site.Contact)
		r.Get("/ads", deps.Site.ActiveAds)

		r.With(deps.AuthMW).Post("/uploads/profile", deps.Upload.Profile)

		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.AuthMW)
			r.Use(deps.AdminMW)

			r.Get("/messages", deps.Site.Messages)
			r.Get("/users", deps.Site.Users)
			r.Get("/ads", deps.Site.Ads)
			r.Post("/ads", deps.Site.CreateAd)
			r.Put("/ads/{id}", deps.Site.UpdateAd)
			r.Post("/reply", deps.Site.Reply)
		})
	})

	return r, nil
}

// limiterFor returns a per-route middleware factory. Redis-backed limits are
// shared across replicas; the httprate fallback is per process.
func limiterFor(deps Deps) func(route string, n int) func(http.Handler) http.Handler {
	rl := deps.RateLimits
	return func(route string, n int) func(http.Handler) http.Handler {
		if !rl.Enabled || n <= 0 {
			return passthrough
		}
		if deps.Limiter != nil {
			return middleware.RateLimitFixedWindow(deps.Limiter, middleware.FixedWindowConfig{
				RouteKey: route,
				Limit:    n,
				Window:   rl.Window,
			}, deps.WriteErr)
		}
		return httprate.Limit(n, rl.Window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				deps.WriteErr(w, r, domain.ErrRateLimited(route))
			}),
		)
	}
}

func passthrough(next http.Handler) http.Handler { return next }

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
