package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string // dev / staging / prod

	// HTTP
	HTTPAddr         string
	ServerURL        string   // public base for /uploads links
	FrontendURLs     []string // CORS origins; the first one builds verification links
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownWait     time.Duration

	// Auth
	JWTSecret         string
	JWTIssuer         string
	SessionTTL        time.Duration
	AdminEmails       string
	OAuthVerifyTokens bool
	AsyncMail         bool

	// Store: "postgres" or "memory"
	Store       string
	DatabaseURL string
	DBDebug     bool

	// Redis (rate limiting, mail dedup)
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// RedisKeyPrefix namespaces limiter buckets and mail dedup keys.
	RedisKeyPrefix string

	// Mail: "log", "smtp" or "queue"
	MailTransport   string
	MailFakeFail    string // log transport only: "", "transient", "permanent"
	MailSentTTL     time.Duration
	RabbitURL       string
	MailExchange    string
	MailQueue       string
	MailPrefetch    int
	MailMaxAttempts int
	MailConsumerTag string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTimeout  time.Duration
	SMTPInsecure bool

	// Uploads: "local" or "s3"
	UploadBackend   string
	UploadDir       string
	MaxUploadBytes  int64
	S3Endpoint      string
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	S3Bucket        string
	S3UsePathStyle  bool
	S3PublicBaseURL string

	// Rate limiting
	RLEnabled      bool
	RLSignupLimit  int
	RLLoginLimit   int
	RLContactLimit int
	RLWindow       time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnvFirst([]string{"APP_ENV", "ENV"}, "dev"),
	}
	if cfg.Env == "dev" {
		_ = godotenv.Load()
	}

	port := getEnv("PORT", "4000")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":"+port)
	cfg.ServerURL = strings.TrimRight(getEnv("SERVER_URL", "http://localhost:"+port), "/")
	cfg.FrontendURLs = splitList(getEnv("FRONTEND_URL", "http://localhost:5173"))
	if len(cfg.FrontendURLs) == 0 {
		return nil, fmt.Errorf("FRONTEND_URL has no usable entries")
	}

	var err error
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	// uploads of up to 6 x 50 MiB need a generous write window
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ShutdownWait, err = getDuration("SHUTDOWN_WAIT", 10*time.Second); err != nil {
		return nil, err
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "site-api")
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	cfg.AdminEmails = getEnv("ADMIN_EMAILS", "")
	cfg.OAuthVerifyTokens = getBool("OAUTH_VERIFY_TOKENS", false)
	cfg.AsyncMail = getBool("ASYNC_MAIL", false)

	cfg.Store = strings.ToLower(getEnv("STORE", "postgres"))
	cfg.DatabaseURL = getEnvFirst([]string{"DATABASE_URL", "DB_ADDR"}, "")
	cfg.DBDebug = getBool("DB_DEBUG", false)
	switch cfg.Store {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("missing required env var: DATABASE_URL")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown STORE %q (want postgres or memory)", cfg.Store)
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisEnabled = getBool("REDIS_ENABLED", cfg.RedisAddr != "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getInt("REDIS_DB", 0)
	cfg.RedisKeyPrefix = getEnv("REDIS_KEY_PREFIX", "")
	if cfg.RedisEnabled && cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	// Guard: prevent the classic "REDIS_ADDR=localhost:6379 OTHER=..." parsing issue
	if strings.Contains(cfg.RedisAddr, " ") {
		return nil, fmt.Errorf("bad REDIS_ADDR (contains spaces): %q", cfg.RedisAddr)
	}

	if err := loadMail(cfg); err != nil {
		return nil, err
	}
	if err := loadUploads(cfg); err != nil {
		return nil, err
	}

	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLSignupLimit = getInt("RL_SIGNUP_LIMIT", 10)
	cfg.RLLoginLimit = getInt("RL_LOGIN_LIMIT", 20)
	cfg.RLContactLimit = getInt("RL_CONTACT_LIMIT", 5)
	if cfg.RLWindow, err = getDuration("RL_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadMail(cfg *Config) error {
	var err error
	cfg.MailTransport = strings.ToLower(getEnv("MAIL_TRANSPORT", "log"))
	cfg.MailFakeFail = strings.ToLower(getEnv("MAIL_FAKE_FAIL", ""))
	if cfg.MailSentTTL, err = getDuration("MAIL_SENT_TTL", 24*time.Hour); err != nil {
		return err
	}

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.MailExchange = getEnv("RABBIT_EXCHANGE", "site.mail")
	cfg.MailQueue = getEnv("RABBIT_QUEUE", "site-api.mail")
	cfg.MailPrefetch = getInt("RABBIT_PREFETCH", 10)
	cfg.MailMaxAttempts = getInt("MAIL_MAX_ATTEMPTS", 5)
	cfg.MailConsumerTag = getEnv("RABBIT_CONSUMER_TAG", "site-mailer")

	cfg.SMTPHost = getEnv("SMTP_HOST", "")
	cfg.SMTPPort = getInt("SMTP_PORT", 587)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", getEnv("SMTP_USER", ""))
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", getEnv("SMTP_PASS", ""))
	cfg.SMTPFrom = getEnv("SMTP_FROM", cfg.SMTPUsername)
	if cfg.SMTPTimeout, err = getDuration("SMTP_TIMEOUT", 10*time.Second); err != nil {
		return err
	}
	cfg.SMTPInsecure = getBool("SMTP_INSECURE", false)

	switch cfg.MailTransport {
	case "log":
	case "smtp":
		if cfg.SMTPHost == "" {
			return fmt.Errorf("smtp transport selected but missing SMTP_HOST")
		}
	case "queue":
		if cfg.RabbitURL == "" {
			return fmt.Errorf("queue transport selected but missing RABBIT_URL")
		}
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q (want log, smtp or queue)", cfg.MailTransport)
	}
	return nil
}

func loadUploads(cfg *Config) error {
	cfg.UploadBackend = strings.ToLower(getEnv("UPLOAD_BACKEND", "local"))
	cfg.UploadDir = getEnv("UPLOAD_DIR", "uploads")
	cfg.MaxUploadBytes = int64(getInt("MAX_UPLOAD_MB", 50)) << 20

	cfg.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.S3Region = getEnv("S3_REGION", "us-east-1")
	cfg.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", "")
	cfg.S3SecretKey = getEnv("S3_SECRET_ACCESS_KEY", "")
	cfg.S3Bucket = getEnv("S3_BUCKET", "")
	cfg.S3UsePathStyle = getBool("S3_USE_PATH_STYLE", cfg.S3Endpoint != "")
	cfg.S3PublicBaseURL = strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/")

	switch cfg.UploadBackend {
	case "local":
	case "s3":
		if cfg.S3Bucket == "" {
			return fmt.Errorf("s3 upload backend selected but missing S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown UPLOAD_BACKEND %q (want local or s3)", cfg.UploadBackend)
	}
	return nil
}

// VerifyBaseURL is where verification links point.
func (c *Config) VerifyBaseURL() string {
	return strings.TrimRight(c.FrontendURLs[0], "/")
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFirst(keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n := def
	_, _ = fmt.Sscanf(v, "%d", &n)
	if n < 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
