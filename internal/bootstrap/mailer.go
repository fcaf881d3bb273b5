package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/devstudio/site-api/internal/application/mail"
	"github.com/devstudio/site-api/internal/config"
	"github.com/devstudio/site-api/internal/infrastructure/email"
	"github.com/devstudio/site-api/internal/infrastructure/messaging/rabbitmq"
	"github.com/devstudio/site-api/internal/infrastructure/redis"
)

// Worker is the cmd/mailer lifecycle: Start consumes, Stop drains.
type Worker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type MailerDeps struct {
	LoadConfig func() (*config.Config, error)
	NewRedis   func(addr, password string, db int, opts ...redis.Option) *redis.Client
	NewWorker  func(cfg rabbitmq.ConsumerConfig, h rabbitmq.Handler) Worker
	Logger     zerolog.Logger
}

func NewMailer() (Worker, func(), error) {
	lg := zlog.Logger
	return NewMailerWithDeps(MailerDeps{
		LoadConfig: config.Load,
		NewRedis:   redis.New,
		NewWorker: func(cfg rabbitmq.ConsumerConfig, h rabbitmq.Handler) Worker {
			return rabbitmq.NewMailConsumer(cfg, h, lg)
		},
		Logger: lg,
	})
}

// NewMailerWithDeps wires the queue consumer to the real sender. SMTP is used
// when SMTP_HOST is set; otherwise mails are only logged.
func NewMailerWithDeps(deps MailerDeps) (Worker, func(), error) {
	lg := deps.Logger

	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.RabbitURL == "" {
		return nil, nil, errors.New("RABBIT_URL is required for the mail worker")
	}

	var cleanupFns []func()

	var sender mail.Mailer
	if cfg.SMTPHost != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
			Insecure: cfg.SMTPInsecure,
		}, lg)
	} else {
		lg.Warn().Msg("SMTP_HOST not set; mails are logged only")
		sender = email.NewLogSender(lg, cfg.MailFakeFail)
	}

	// dedup is best-effort; without redis a redelivery may send twice
	var sent mail.SentStore
	if cfg.RedisEnabled && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithKeyPrefix(cfg.RedisKeyPrefix))
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()
		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable; delivery dedup disabled")
			_ = c.Close()
		} else {
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			sent = redis.NewSentStore(c)
		}
	}

	deliverer := mail.NewDeliverer(sender, sent, cfg.MailSentTTL, lg)

	w := deps.NewWorker(rabbitmq.ConsumerConfig{
		RabbitURL:   cfg.RabbitURL,
		Exchange:    cfg.MailExchange,
		Queue:       cfg.MailQueue,
		Prefetch:    cfg.MailPrefetch,
		Tag:         cfg.MailConsumerTag,
		MaxAttempts: cfg.MailMaxAttempts,
	}, deliverer)

	return w, func() { runCleanup(cleanupFns) }, nil
}
