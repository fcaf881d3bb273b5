package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/devstudio/site-api/internal/application/mail"
	"github.com/devstudio/site-api/internal/domain"
)

const publishWait = 2 * time.Second

// MailPublisher is the mail.Mailer behind MAIL_TRANSPORT=queue. Send returns
// once the broker has confirmed the message; cmd/mailer does the delivery.
type MailPublisher struct {
	url      string
	exchange string
	lg       zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	out  *confirmChannel
}

// NewMailPublisher connects eagerly so a bad RABBIT_URL fails at startup.
func NewMailPublisher(url, exchange string, lg zerolog.Logger) (*MailPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &MailPublisher{
		url:      url,
		exchange: exchange,
		lg:       lg.With().Str("component", "mail_publisher").Logger(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.dial(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *MailPublisher) Send(ctx context.Context, m mail.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, publishWait)
		defer cancel()
	}

	id := uuid.NewString()
	key := routingKey(m.Kind)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		if err := p.dial(); err != nil {
			return domain.ErrRabbitUnavailable(err)
		}
	}

	err = p.out.Publish(ctx, p.exchange, key, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		// an unroutable message leaves the channel healthy; anything else may not
		if !errors.Is(err, errUnroutable) {
			p.hangUp()
		}
		return domain.ErrRabbitUnavailable(err)
	}

	p.lg.Debug().Str("routing_key", key).Str("message_id", id).Msg("mail queued")
	return nil
}

func (p *MailPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hangUp()
	return nil
}

// dial and hangUp expect p.mu to be held.
func (p *MailPublisher) dial() error {
	p.hangUp()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	out, err := newConfirmChannel(ch, publishWait)
	if err != nil {
		_ = conn.Close()
		return err
	}

	p.conn, p.out = conn, out
	return nil
}

func (p *MailPublisher) hangUp() {
	if p.conn != nil {
		// closing the connection closes its channels
		_ = p.conn.Close()
	}
	p.conn, p.out = nil, nil
}
