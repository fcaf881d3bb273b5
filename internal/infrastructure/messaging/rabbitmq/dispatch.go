package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/devstudio/site-api/internal/application/mail"
)

const (
	hdrAttempt   = "x-attempt"
	hdrOrigKey   = "x-orig-routing-key"
	hdrError     = "x-error"
	hdrDLQReason = "x-dlq-reason"
)

// outcome is how a delivery is settled with the broker.
type outcome int

const (
	// ack: delivered, dropped, or already moved to a retry tier or the DLQ.
	ack outcome = iota
	// requeue: could not be moved anywhere; the broker redelivers it.
	requeue
	// reject: nack without requeue; the main queue dead-letters it to the DLQ.
	reject
)

func (o outcome) String() string {
	switch o {
	case ack:
		return "ack"
	case requeue:
		return "requeue"
	default:
		return "reject"
	}
}

func settle(d amqp.Delivery, o outcome) {
	switch o {
	case ack:
		_ = d.Ack(false)
	case requeue:
		_ = d.Nack(false, true)
	default:
		_ = d.Nack(false, false)
	}
}

// dispatch decodes d and hands it to the handler. The returned error is only
// for logging; the outcome already says what to do with the delivery.
func (c *MailConsumer) dispatch(ctx context.Context, d amqp.Delivery) (outcome, error) {
	rk := strings.TrimSpace(d.RoutingKey)
	if !strings.HasPrefix(rk, routingKeyPrefix) {
		// unknown traffic on the exchange must not block the queue
		c.lg.Warn().Str("routing_key", clip(rk, 100)).Msg("unknown routing key; dropped")
		return ack, nil
	}

	var m mail.Message
	if err := json.Unmarshal(d.Body, &m); err != nil {
		return c.park(ctx, d, "bad_json", err)
	}
	if err := m.Validate(); err != nil {
		return c.park(ctx, d, "invalid_message", err)
	}

	err := c.handler.Deliver(ctx, d.MessageId, m)
	switch {
	case err == nil:
		return ack, nil
	case ctx.Err() != nil:
		// shutting down; hand it back untouched
		return requeue, err
	case isPermanent(err):
		return c.park(ctx, d, "non_retriable", err)
	}

	done := attemptOf(d.Headers)
	if done >= c.maxAttempts {
		return c.park(ctx, d, "max_attempts_exceeded", err)
	}
	return c.retry(ctx, d, done+1, err)
}

// retry parks d on the delay tier for its next attempt. The original routing
// key is kept so the message comes back to the main queue.
func (c *MailConsumer) retry(ctx context.Context, d amqp.Delivery, next int, cause error) (outcome, error) {
	tier := tierFor(next)
	h := annotated(d, cause)
	h[hdrAttempt] = int64(next)

	if err := c.move(ctx, tier.exchange(), d.RoutingKey, d, h); err != nil {
		return stuck(d, errors.Join(cause, err))
	}
	c.lg.Warn().Err(cause).
		Int("attempt", next).
		Str("tier", tier.name).
		Str("message_id", d.MessageId).
		Msg("delivery failed; scheduled retry")
	return ack, nil
}

// park moves d to the final DLQ with the reason attached.
func (c *MailConsumer) park(ctx context.Context, d amqp.Delivery, reason string, cause error) (outcome, error) {
	h := annotated(d, cause)
	h[hdrDLQReason] = reason

	if err := c.move(ctx, finalExchange, finalRoutingKey, d, h); err != nil {
		return stuck(d, errors.Join(cause, err))
	}
	c.lg.Error().Err(cause).
		Str("reason", reason).
		Str("message_id", d.MessageId).
		Msg("delivery dead-lettered")
	return ack, nil
}

// stuck settles a delivery that could not be moved. A first failure is
// requeued; a redelivered one is rejected so the broker dead-letters it
// instead of looping.
func stuck(d amqp.Delivery, err error) (outcome, error) {
	if d.Redelivered {
		return reject, err
	}
	return requeue, err
}

func (c *MailConsumer) move(ctx context.Context, exchange, key string, d amqp.Delivery, h amqp.Table) error {
	c.mu.Lock()
	pub := c.pub
	c.mu.Unlock()
	if pub == nil {
		return errors.New("no publish channel")
	}
	return pub.Publish(ctx, exchange, key, amqp.Publishing{
		ContentType:   d.ContentType,
		DeliveryMode:  amqp.Persistent,
		MessageId:     d.MessageId,
		CorrelationId: d.CorrelationId,
		Timestamp:     time.Now(),
		Headers:       h,
		Body:          d.Body,
	})
}

func annotated(d amqp.Delivery, cause error) amqp.Table {
	h := make(amqp.Table, len(d.Headers)+3)
	for k, v := range d.Headers {
		h[k] = v
	}
	h[hdrOrigKey] = d.RoutingKey
	if cause != nil {
		h[hdrError] = clip(cause.Error(), 512)
	}
	return h
}

// attemptOf reads the retry counter. Numbers may come back from the broker
// as any integer width, or as a string when set by hand.
func attemptOf(h amqp.Table) int {
	switch v := h[hdrAttempt].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

func isPermanent(err error) bool {
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
