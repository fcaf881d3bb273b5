package mail

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SentStore remembers which queued messages already went out, so a
// redelivered queue message is not mailed twice.
type SentStore interface {
	// Seen returns true if key already marked as sent.
	Seen(ctx context.Context, key string) (bool, error)

	// MarkSent marks key as sent with TTL (idempotent).
	MarkSent(ctx context.Context, key string, ttl time.Duration) error
}

// Deliverer is what the mail worker runs for every queued message.
type Deliverer struct {
	sender Mailer
	sent   SentStore // nil => disabled
	ttl    time.Duration
	lg     zerolog.Logger
}

func NewDeliverer(sender Mailer, sent SentStore, ttl time.Duration, lg zerolog.Logger) *Deliverer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deliverer{
		sender: sender,
		sent:   sent,
		ttl:    ttl,
		lg:     lg.With().Str("component", "mail_deliverer").Logger(),
	}
}

// Deliver sends m unless messageID was already delivered.
// An empty messageID skips deduplication.
func (d *Deliverer) Deliver(ctx context.Context, messageID string, m Message) error {
	key := ""
	if messageID != "" {
		key = "mail:sent:" + messageID
	}

	if d.sent != nil && key != "" {
		seen, err := d.sent.Seen(ctx, key)
		if err != nil {
			return err
		}
		if seen {
			d.lg.Info().Str("message_id", messageID).Str("kind", m.Kind).Msg("idempotent skip (already sent)")
			return nil
		}
	}

	if err := d.sender.Send(ctx, m); err != nil {
		return err
	}

	if d.sent != nil && key != "" {
		if err := d.sent.MarkSent(ctx, key, d.ttl); err != nil {
			d.lg.Warn().Err(err).Str("key", key).Msg("idempotency mark failed (send already succeeded)")
			return nil
		}
	}

	d.lg.Info().Str("message_id", messageID).Str("kind", m.Kind).Msg("mail delivered")
	return nil
}
