package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	errUnroutable  = errors.New("rabbitmq: message unroutable")
	errUnconfirmed = errors.New("rabbitmq: publish not confirmed")
)

// amqpPublisher is the slice of a confirm-mode channel the consumer needs to
// move deliveries between queues. Tests swap in a recorder.
type amqpPublisher interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error
}

// confirmChannel publishes mandatory messages and waits until the broker
// either acks them or hands them back as unroutable.
type confirmChannel struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	confirms <-chan amqp.Confirmation
	returns  <-chan amqp.Return
	wait     time.Duration
}

func newConfirmChannel(ch *amqp.Channel, wait time.Duration) (*confirmChannel, error) {
	if ch == nil {
		return nil, errors.New("rabbitmq: nil channel")
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("confirm mode: %w", err)
	}
	// listeners must be registered after Confirm
	return &confirmChannel{
		ch:       ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 8)),
		returns:  ch.NotifyReturn(make(chan amqp.Return, 8)),
		wait:     wait,
	}, nil
}

func (c *confirmChannel) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropStale()

	if err := c.ch.PublishWithContext(ctx, exchange, key, true, false, msg); err != nil {
		return fmt.Errorf("publish %s/%s: %w", exchange, key, err)
	}

	timer := time.NewTimer(c.wait)
	defer timer.Stop()

	select {
	case r := <-c.returns:
		return returned(r)
	case conf := <-c.confirms:
		// basic.return is sent before the ack of an unroutable mandatory message
		select {
		case r := <-c.returns:
			return returned(r)
		default:
		}
		if !conf.Ack {
			return fmt.Errorf("%w: nack tag=%d %s/%s", errUnconfirmed, conf.DeliveryTag, exchange, key)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: nothing within %s", errUnconfirmed, c.wait)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dropStale discards confirms and returns left over from a publish that
// timed out, so they are not matched to the next one.
func (c *confirmChannel) dropStale() {
	for {
		select {
		case <-c.confirms:
		case <-c.returns:
		default:
			return
		}
	}
}

func returned(r amqp.Return) error {
	return fmt.Errorf("%w: %s/%s code=%d %s", errUnroutable, r.Exchange, r.RoutingKey, r.ReplyCode, r.ReplyText)
}
