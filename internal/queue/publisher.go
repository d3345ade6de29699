package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// breakerFailures is the number of consecutive failed publishes that opens
// the breaker.
const breakerFailures = 3

// Publisher sends DatasetEvents to QueueName. Each call dials the broker,
// so a Publisher holds no connection state and is safe for concurrent use.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
//
// Publishes go through a circuit breaker: once the broker has refused
// breakerFailures times in a row, calls fail fast with gobreaker.ErrOpenState
// until the cooldown elapses.
type Publisher struct {
	url string
	log zerolog.Logger
	cb  *gobreaker.CircuitBreaker[struct{}]
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return newPublisher(url, log, 30*time.Second)
}

func newPublisher(url string, log zerolog.Logger, cooldown time.Duration) *Publisher {
	p := &Publisher{url: url, log: log}
	p.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "rabbitmq-publish",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("rabbitmq: breaker state changed")
		},
	})
	return p
}

// State reports the breaker state ("closed", "open" or "half-open").
func (p *Publisher) State() string { return p.cb.State().String() }

// Publish marshals ev and publishes it as a persistent message through the
// default exchange.
func (p *Publisher) Publish(ctx context.Context, ev DatasetEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: marshal event failed")
		return err
	}
	_, err = p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.send(ctx, ev, body)
	})
	if err != nil {
		p.log.Warn().Err(err).Str("type", ev.Type).Msg("rabbitmq: publish failed")
		return err
	}
	p.log.Debug().Str("type", ev.Type).Str("dataset_id", ev.DatasetID).Msg("event published")
	return nil
}

func (p *Publisher) send(ctx context.Context, ev DatasetEvent, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	return ch.PublishWithContext(ctx, "", QueueName, false, false, pub)
}
