package rabbitmq

import (
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "site.mail"
	DefaultQueue    = "site-api.mail"

	// routing keys are "mail.<kind>"
	routingKeyPrefix = "mail."

	finalExchange   = "site.mail.dlx.final"
	finalRoutingKey = "mail.final.dlq"
)

// retryTier is one delay stage. A message parked on its queue expires after
// delay and dead-letters back to the main exchange with its routing key.
type retryTier struct {
	name  string
	delay time.Duration
}

var retryTiers = []retryTier{
	{name: "10s", delay: 10 * time.Second},
	{name: "1m", delay: time.Minute},
	{name: "10m", delay: 10 * time.Minute},
}

// tierFor picks the stage for the nth retry. Retries past the last stage stay on it.
func tierFor(attempt int) retryTier {
	return retryTiers[min(max(attempt, 1), len(retryTiers))-1]
}

func (t retryTier) exchange() string         { return "site.mail.dlx." + t.name }
func (t retryTier) queue(main string) string { return main + ".retry." + t.name }

func dlqName(main string) string { return main + ".dlq" }

func routingKey(kind string) string {
	if kind == "" {
		kind = "generic"
	}
	return routingKeyPrefix + kind
}

type queueSpec struct {
	name, exchange, bindKey string
	args                    amqp.Table
}

// topology is everything the consumer relies on. Declaring it is idempotent
// as long as the arguments match what already exists on the broker.
type topology struct {
	exchange string
	queue    string
}

func (tp topology) exchanges() []string {
	out := []string{tp.exchange, finalExchange}
	for _, t := range retryTiers {
		out = append(out, t.exchange())
	}
	return out
}

func (tp topology) queues() []queueSpec {
	out := []queueSpec{
		{
			name: tp.queue, exchange: tp.exchange, bindKey: routingKeyPrefix + "#",
			// a nack without requeue still ends up on the DLQ
			args: amqp.Table{
				"x-dead-letter-exchange":    finalExchange,
				"x-dead-letter-routing-key": finalRoutingKey,
			},
		},
		{name: dlqName(tp.queue), exchange: finalExchange, bindKey: finalRoutingKey},
	}
	for _, t := range retryTiers {
		out = append(out, queueSpec{
			name: t.queue(tp.queue), exchange: t.exchange(), bindKey: "#",
			args: amqp.Table{
				"x-message-ttl":          t.delay.Milliseconds(),
				"x-dead-letter-exchange": tp.exchange,
			},
		})
	}
	return out
}

func (tp topology) declare(ch *amqp.Channel) error {
	for _, ex := range tp.exchanges() {
		if err := ch.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}
	for _, q := range tp.queues() {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
		if err := ch.QueueBind(q.name, q.bindKey, q.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q.name, err)
		}
	}
	return nil
}

// isPreconditionFailed matches the 406 the broker sends when a declare
// conflicts with an existing queue or exchange. Reconnecting will not fix it.
func isPreconditionFailed(err error) bool {
	var ae *amqp.Error
	if errors.As(err, &ae) && ae.Code == amqp.PreconditionFailed {
		return true
	}
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "PRECONDITION_FAILED")
}
