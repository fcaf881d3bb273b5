package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/devstudio/site-api/internal/application/mail"
)

// Handler is the app-layer contract the consumer calls for each message.
type Handler interface {
	Deliver(ctx context.Context, messageID string, m mail.Message) error
}

type ConsumerConfig struct {
	RabbitURL   string
	Exchange    string
	Queue       string
	Prefetch    int
	Tag         string
	MaxAttempts int
}

const (
	defaultMaxAttempts = 5
	movePublishWait    = 250 * time.Millisecond
)

// MailConsumer is the cmd/mailer side of MAIL_TRANSPORT=queue. It owns one
// connection with a consume channel and a confirm-mode channel used to park
// failed deliveries on retry tiers or the DLQ.
type MailConsumer struct {
	url         string
	topo        topology
	prefetch    int
	tag         string
	maxAttempts int

	lg      zerolog.Logger
	handler Handler

	mu      sync.Mutex
	running bool
	done    chan struct{}
	conn    *amqp.Connection
	pub     amqpPublisher
}

func NewMailConsumer(cfg ConsumerConfig, h Handler, lg zerolog.Logger) *MailConsumer {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &MailConsumer{
		url:         cfg.RabbitURL,
		topo:        topology{exchange: cfg.Exchange, queue: cfg.Queue},
		prefetch:    cfg.Prefetch,
		tag:         cfg.Tag,
		maxAttempts: cfg.MaxAttempts,
		handler:     h,
		lg:          lg.With().Str("component", "mail_consumer").Logger(),
	}
}

// Start returns immediately. A supervisor goroutine keeps the consumer
// connected, backing off between attempts, until Stop or ctx ends.
func (c *MailConsumer) Start(ctx context.Context) error {
	if c.handler == nil {
		return errors.New("mail consumer: nil handler")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true
	c.done = make(chan struct{})
	go c.supervise(ctx, c.done)
	return nil
}

// Stop closes the connection, which ends the consume loop, and waits for
// the supervisor to exit.
func (c *MailConsumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	done := c.done
	c.mu.Unlock()

	c.disconnect()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func reconnectBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // never give up
	b.Reset()
	return b
}

func (c *MailConsumer) supervise(ctx context.Context, done chan struct{}) {
	defer func() {
		c.disconnect()
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		close(done)
	}()

	bo := reconnectBackoff()
	for c.isRunning() && ctx.Err() == nil {
		deliveries, err := c.connect()
		if err != nil {
			if isPreconditionFailed(err) {
				c.lg.Error().Err(err).Msg("queue topology conflicts with the broker; delete the mismatched resources and restart")
				return
			}
			wait := bo.NextBackOff()
			c.lg.Error().Err(err).Dur("backoff", wait).Msg("rabbitmq connect failed")
			if !sleepCtx(ctx, wait) {
				return
			}
			continue
		}

		bo.Reset()
		c.consume(ctx, deliveries)
		if ctx.Err() != nil || !c.isRunning() {
			return
		}

		wait := bo.NextBackOff()
		c.lg.Warn().Dur("backoff", wait).Msg("deliveries closed; reconnecting")
		c.disconnect()
		if !sleepCtx(ctx, wait) {
			return
		}
	}
}

func (c *MailConsumer) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *MailConsumer) connect() (<-chan amqp.Delivery, error) {
	c.disconnect()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	fail := func(err error) (<-chan amqp.Delivery, error) {
		_ = conn.Close()
		return nil, err
	}

	in, err := conn.Channel()
	if err != nil {
		return fail(fmt.Errorf("consume channel: %w", err))
	}
	if err := c.topo.declare(in); err != nil {
		return fail(err)
	}
	if c.prefetch > 0 {
		if err := in.Qos(c.prefetch, 0, false); err != nil {
			return fail(fmt.Errorf("qos: %w", err))
		}
	}
	deliveries, err := in.Consume(c.topo.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("consume %s: %w", c.topo.queue, err))
	}

	outCh, err := conn.Channel()
	if err != nil {
		return fail(fmt.Errorf("publish channel: %w", err))
	}
	out, err := newConfirmChannel(outCh, movePublishWait)
	if err != nil {
		return fail(err)
	}

	c.mu.Lock()
	c.conn, c.pub = conn, out
	c.mu.Unlock()

	c.lg.Info().
		Str("exchange", c.topo.exchange).
		Str("queue", c.topo.queue).
		Int("prefetch", c.prefetch).
		Int("max_attempts", c.maxAttempts).
		Msg("mail consumer ready")
	return deliveries, nil
}

func (c *MailConsumer) disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn, c.pub = nil, nil
}

func (c *MailConsumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			start := time.Now()
			out, err := c.dispatch(ctx, d)
			settle(d, out)

			ev := c.lg.Debug()
			if err != nil {
				ev = c.lg.Warn().Err(err)
			}
			ev.Str("routing_key", d.RoutingKey).
				Str("message_id", d.MessageId).
				Str("outcome", out.String()).
				Dur("took", time.Since(start)).
				Msg("delivery settled")
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
