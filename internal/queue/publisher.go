package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Publisher sends reservation events to RabbitMQ.  Each publish opens its own
// connection so a broker outage never leaves a stale channel behind; errors
// are logged and returned so callers can ignore them.
type Publisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
}

// defaultDialTimeout caps the TCP connect plus AMQP handshake.
const defaultDialTimeout = 5 * time.Second

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, queue: ReservationCreatedQueue, dialTimeout: defaultDialTimeout}
}

// PublishReservationCreated publishes ev as a persistent JSON message.
func (p *Publisher) PublishReservationCreated(ctx context.Context, ev ReservationCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.publish(ctx, body); err != nil {
		log.Warn().Err(err).Uint64("reservation_id", ev.ReservationID).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}

// dialBudget is the dial timeout shortened to ctx's deadline.
func (p *Publisher) dialBudget(ctx context.Context) (time.Duration, error) {
	budget := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		budget = min(budget, time.Until(dl))
	}
	if budget <= 0 {
		return 0, context.DeadlineExceeded
	}
	return budget, ctx.Err()
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {
	budget, err := p.dialBudget(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	// connect and handshake must finish within the ctx deadline
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Dial:      amqp.DefaultDial(budget),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}
