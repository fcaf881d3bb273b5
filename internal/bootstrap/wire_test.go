package bootstrap

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devstudio/site-api/internal/config"
	"github.com/devstudio/site-api/internal/infrastructure/redis"
	"github.com/devstudio/site-api/internal/infrastructure/storage"
	"github.com/devstudio/site-api/internal/transport/http/router"
)

// --------------------------
// helpers
// --------------------------

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:            "dev",
		HTTPAddr:       ":0",
		ServerURL:      "http://localhost:4000",
		FrontendURLs:   []string{"http://localhost:5173"},
		JWTSecret:      "test-secret",
		JWTIssuer:      "site-api",
		SessionTTL:     time.Hour,
		AdminEmails:    "boss@example.com",
		Store:          "memory",
		MailTransport:  "log",
		UploadBackend:  "local",
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
		RLEnabled:      true,
		RLSignupLimit:  100,
		RLLoginLimit:   100,
		RLContactLimit: 100,
		RLWindow:       time.Minute,
	}
}

func testDeps(cfg *config.Config) Deps {
	return Deps{
		LoadConfig: func() (*config.Config, error) { return cfg, nil },
		NewDB: func(string, bool) (*sql.DB, error) {
			return nil, errors.New("no database in unit tests")
		},
		NewQueueMailer: func(string, string) (QueueMailer, error) {
			return nil, errors.New("no broker in unit tests")
		},
		NewS3: func(context.Context, storage.S3Config) (*storage.S3Store, error) {
			return nil, errors.New("no object storage in unit tests")
		},
		NewRouter: router.New,
		Logger:    zerolog.Nop(),
	}
}

type fakeRedis struct {
	pingErr error
	closed  int
}

func (f *fakeRedis) Ping(context.Context) error { return f.pingErr }
func (f *fakeRedis) Close() error               { f.closed++; return nil }

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func oauthToken(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/auth/oauth/google", "", map[string]string{
		"email": email, "firstName": "Ann", "lastName": "Lee",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.NotEmpty(t, out.Data.Token)
	return out.Data.Token
}

// --------------------------
// tests
// --------------------------

func TestNewServer_ConfigLoadFails(t *testing.T) {
	t.Parallel()

	deps := testDeps(nil)
	deps.LoadConfig = func() (*config.Config, error) { return nil, errors.New("missing JWT_SECRET") }

	srv, cleanup, err := NewServerWithDeps(deps)
	require.Error(t, err)
	assert.Nil(t, srv)
	assert.Nil(t, cleanup)
}

func TestNewServer_DBConnectFails(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.Store = "postgres"
	cfg.DatabaseURL = "postgres://invalid:5432/db"

	srv, cleanup, err := NewServerWithDeps(testDeps(cfg))
	require.Error(t, err)
	assert.Nil(t, srv)
	assert.Nil(t, cleanup)
}

func TestNewServer_RedisUnavailable_FallsBack(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.RedisEnabled = true
	cfg.RedisAddr = "localhost:1"

	rc := &fakeRedis{pingErr: errors.New("connection refused")}
	deps := testDeps(cfg)
	deps.NewRedis = func(string, string, int, ...redis.Option) RedisClient { return rc }

	srv, cleanup, err := NewServerWithDeps(deps)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, 1, rc.closed, "failed client must be closed right away")
	rr := do(t, srv.Handler, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestNewServer_RedisHealthy_ClosedOnCleanup(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.RedisEnabled = true

	rc := &fakeRedis{}
	deps := testDeps(cfg)
	deps.NewRedis = func(string, string, int, ...redis.Option) RedisClient { return rc }

	_, cleanup, err := NewServerWithDeps(deps)
	require.NoError(t, err)
	assert.Equal(t, 0, rc.closed)
	cleanup()
	assert.Equal(t, 1, rc.closed)
}

func TestNewServer_QueueUnavailable(t *testing.T) {
	t.Parallel()

	t.Run("dev falls back to log mailer", func(t *testing.T) {
		t.Parallel()
		cfg := memoryConfig(t)
		cfg.MailTransport = "queue"

		srv, cleanup, err := NewServerWithDeps(testDeps(cfg))
		require.NoError(t, err)
		require.NotNil(t, srv)
		cleanup()
	})

	t.Run("prod fails fast", func(t *testing.T) {
		t.Parallel()
		cfg := memoryConfig(t)
		cfg.Env = "prod"
		cfg.MailTransport = "queue"

		srv, cleanup, err := NewServerWithDeps(testDeps(cfg))
		require.Error(t, err)
		assert.Nil(t, srv)
		assert.Nil(t, cleanup)
	})
}

func TestNewServer_S3Fails(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.UploadBackend = "s3"
	cfg.S3Bucket = "uploads"

	_, _, err := NewServerWithDeps(testDeps(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object storage")
}

func TestNewServer_RouterFails_RunsCleanup(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.RedisEnabled = true

	rc := &fakeRedis{}
	deps := testDeps(cfg)
	deps.NewRedis = func(string, string, int, ...redis.Option) RedisClient { return rc }
	deps.NewRouter = func(router.Deps) (http.Handler, error) { return nil, errors.New("boom") }

	_, _, err := NewServerWithDeps(deps)
	require.Error(t, err)
	assert.Equal(t, 1, rc.closed)
}

func TestNewServer_Cleanup_Idempotent(t *testing.T) {
	t.Parallel()

	srv, cleanup, err := NewServerWithDeps(testDeps(memoryConfig(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = srv.Shutdown(ctx)
	srv.Drain()

	cleanup()
	cleanup()
}

func TestNewServer_SeedsAds(t *testing.T) {
	t.Parallel()

	srv, cleanup, err := NewServerWithDeps(testDeps(memoryConfig(t)))
	require.NoError(t, err)
	defer cleanup()

	rr := do(t, srv.Handler, http.MethodGet, "/api/ads", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out.Data, 3)
}

// Missing credentials are 401; a valid non-admin account is 403.
func TestNewServer_AdminAccess(t *testing.T) {
	t.Parallel()

	srv, cleanup, err := NewServerWithDeps(testDeps(memoryConfig(t)))
	require.NoError(t, err)
	defer cleanup()
	h := srv.Handler

	rr := do(t, h, http.MethodGet, "/api/admin/messages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	user := oauthToken(t, h, "ann@example.com")
	rr = do(t, h, http.MethodGet, "/api/admin/messages", user, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	admin := oauthToken(t, h, "Boss@Example.com")
	rr = do(t, h, http.MethodGet, "/api/admin/messages", admin, nil)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/api/auth/profile", user, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewServer_UnverifiedLoginForbidden(t *testing.T) {
	t.Parallel()

	srv, cleanup, err := NewServerWithDeps(testDeps(memoryConfig(t)))
	require.NoError(t, err)
	defer cleanup()
	h := srv.Handler

	rr := do(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"firstName": "Ann", "lastName": "Lee", "email": "ann@example.com", "password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "Str0ng!pass",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "email_not_verified")
}
