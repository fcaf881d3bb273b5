package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/devstudio/site-api/internal/application/auth"
	"github.com/devstudio/site-api/internal/application/mail"
	"github.com/devstudio/site-api/internal/application/profile"
	"github.com/devstudio/site-api/internal/application/site"
	"github.com/devstudio/site-api/internal/audit"
	"github.com/devstudio/site-api/internal/config"
	"github.com/devstudio/site-api/internal/domain"
	"github.com/devstudio/site-api/internal/infrastructure/db/postgres"
	"github.com/devstudio/site-api/internal/infrastructure/email"
	"github.com/devstudio/site-api/internal/infrastructure/memory"
	"github.com/devstudio/site-api/internal/infrastructure/messaging/rabbitmq"
	"github.com/devstudio/site-api/internal/infrastructure/oauth"
	"github.com/devstudio/site-api/internal/infrastructure/redis"
	"github.com/devstudio/site-api/internal/infrastructure/security"
	"github.com/devstudio/site-api/internal/infrastructure/storage"
	http_handlers "github.com/devstudio/site-api/internal/transport/http/handlers"
	"github.com/devstudio/site-api/internal/transport/http/middleware"
	"github.com/devstudio/site-api/internal/transport/http/response"
	"github.com/devstudio/site-api/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

// Server is the wired HTTP server plus what shutdown needs to drain.
type Server struct {
	*http.Server

	// Drain waits for background verification mails. Call after Shutdown.
	Drain func()

	ShutdownWait time.Duration
}

func NewServer() (*Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(dsn string, debug bool) (*sql.DB, error)

	NewRedis func(addr, password string, db int, opts ...redis.Option) RedisClient

	NewQueueMailer func(url, exchange string) (QueueMailer, error)

	NewS3 func(ctx context.Context, cfg storage.S3Config) (*storage.S3Store, error)

	NewRouter func(router.Deps) (http.Handler, error)

	Logger zerolog.Logger
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

type QueueMailer interface {
	mail.Mailer
	Close() error
}

// userStore is the account store every service shares.
type userStore interface {
	auth.UserRepo
	site.UserLister
	profile.UserRepo
}

type fileStore interface {
	profile.FileStore
	Ping(ctx context.Context) error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*Server, func(), error) {
	lg := deps.Logger

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}
	checks := map[string]http_handlers.Checker{}

	// 1) stores
	var (
		users    userStore
		contacts site.ContactRepo
		ads      site.AdRepo
	)
	switch cfg.Store {
	case "memory":
		lg.Warn().Msg("using in-memory store; data is lost on restart")
		users = memory.NewUserRepo()
		contacts = memory.NewContactRepo()
		ads = memory.NewAdRepo()
	default:
		db, err := deps.NewDB(cfg.DatabaseURL, cfg.DBDebug)
		if err != nil {
			return fail(err)
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = postgres.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("ensure schema: %w", err))
		}

		users = postgres.NewUserRepo(db)
		contacts = postgres.NewContactRepo(db)
		ads = postgres.NewAdRepo(db)
		checks["db"] = func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return domain.ErrDBUnavailable(err)
			}
			return nil
		}
	}

	// 2) redis (best-effort)
	var redisCli *redis.Client
	if cfg.RedisEnabled && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithKeyPrefix(cfg.RedisKeyPrefix))
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable; falling back to in-process rate limiting")
			_ = c.Close()
		} else {
			lg.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			checks["redis"] = c.Ping
			if rc, ok := c.(*redis.Client); ok {
				redisCli = rc
			}
		}
	}

	// 3) mailer
	var mailer mail.Mailer
	switch cfg.MailTransport {
	case "smtp":
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
			Insecure: cfg.SMTPInsecure,
		}, lg)
	case "queue":
		pub, err := deps.NewQueueMailer(cfg.RabbitURL, cfg.MailExchange)
		if err != nil {
			if cfg.Env != "dev" {
				return fail(err)
			}
			lg.Warn().Err(err).Msg("rabbitmq unavailable; mail goes to the log")
			mailer = email.NewLogSender(lg, "")
		} else {
			cleanupFns = append(cleanupFns, func() { _ = pub.Close() })
			mailer = pub
		}
	default:
		mailer = email.NewLogSender(lg, cfg.MailFakeFail)
	}

	// 4) file storage
	var files fileStore
	uploadDir := ""
	switch cfg.UploadBackend {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		s3, err := deps.NewS3(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
		if err == nil {
			err = s3.EnsureBucket(ctx)
		}
		cancel()
		if err != nil {
			return fail(fmt.Errorf("object storage: %w", err))
		}
		files = s3
	default:
		local, err := storage.NewLocalStore(cfg.UploadDir, cfg.ServerURL)
		if err != nil {
			return fail(err)
		}
		files = local
		uploadDir = local.Dir()
	}
	checks["storage"] = files.Ping

	// 5) security
	lg.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt signer")
	hasher := security.NewPasswordHasher(
		security.NewArgon2Hasher(security.DefaultArgon2Params()),
		security.NewBcryptHasher(12),
	)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)

	// 6) services
	rec := audit.New(lg)

	authSvc := auth.NewService(users, hasher, signer, mailer, auth.Config{
		AdminEmails: domain.ParseAdminAllowList(cfg.AdminEmails),
		FrontendURL: cfg.VerifyBaseURL(),
		SessionTTL:  cfg.SessionTTL,
		AsyncMail:   cfg.AsyncMail,
	}).WithAudit(rec.Record).WithLogger(lg)
	if cfg.OAuthVerifyTokens {
		authSvc = authSvc.WithIdentityVerifier(oauth.NewVerifier())
	}

	siteSvc := site.NewService(contacts, ads, users, mailer).WithAudit(rec.Record).WithLogger(lg)
	profileSvc := profile.NewService(users, files).WithAudit(rec.Record).WithLogger(lg)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		n, err := siteSvc.SeedDefaultAds(ctx)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("seed ads: %w", err))
		}
		if n > 0 {
			lg.Info().Int("count", n).Msg("seeded default ads")
		}
	}

	// 7) handlers + middleware
	authMW := middleware.Auth(signer, authSvc, response.WriteError)
	adminMW := middleware.RequireRole(domain.RoleAdmin, response.WriteError)

	var limiter middleware.RateLimiter
	if redisCli != nil {
		limiter = redis.NewFixedWindowLimiter(redisCli)
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health: http_handlers.NewHealthHandler(checks),
		Auth:   http_handlers.NewAuthHandler(authSvc),
		Site:   http_handlers.NewSiteHandler(siteSvc),
		Upload: http_handlers.NewUploadHandler(profileSvc, cfg.MaxUploadBytes),

		AuthMW:   authMW,
		AdminMW:  adminMW,
		WriteErr: response.WriteError,

		Limiter: limiter,
		RateLimits: router.RateLimits{
			Enabled: cfg.RLEnabled,
			Signup:  cfg.RLSignupLimit,
			Login:   cfg.RLLoginLimit,
			Contact: cfg.RLContactLimit,
			Window:  cfg.RLWindow,
		},

		CORSOrigins: cfg.FrontendURLs,
		UploadDir:   uploadDir,
	})
	if err != nil {
		return fail(err)
	}

	// 9) server
	srv := &Server{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      mux,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
		Drain:        authSvc.Wait,
		ShutdownWait: cfg.ShutdownWait,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	lg := zlog.Logger
	return Deps{
		LoadConfig: config.Load,
		NewDB: func(dsn string, debug bool) (*sql.DB, error) {
			return config.OpenDB(dsn, debug, lg)
		},
		NewRedis: func(addr, password string, db int, opts ...redis.Option) RedisClient {
			return redis.New(addr, password, db, opts...)
		},
		NewQueueMailer: func(url, exchange string) (QueueMailer, error) {
			return rabbitmq.NewMailPublisher(url, exchange, lg)
		},
		NewS3: func(ctx context.Context, c storage.S3Config) (*storage.S3Store, error) {
			return storage.NewS3Store(ctx, c, lg)
		},
		NewRouter: router.New,
		Logger:    lg,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
