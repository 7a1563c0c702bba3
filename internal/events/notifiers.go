package events

import (
	"context"
	"errors"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// LogNotifier writes every event as a structured log line.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("event_id", event.ID).
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", event.Payload).
		Msg("domain event")
	return nil
}

// Publisher is the subset of *amqp.Channel used by AMQPNotifier.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes events to a topic exchange using the event topic as
// routing key.
type AMQPNotifier struct {
	Channel  Publisher
	Exchange string
	Timeout  time.Duration
}

func (n *AMQPNotifier) Notify(ctx context.Context, event Event) error {
	if n == nil || n.Channel == nil {
		return errors.New("events: amqp channel not configured")
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return n.Channel.PublishWithContext(ctx,
		n.Exchange,  // exchange
		event.Topic, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Type:         event.Topic,
			Body:         event.Payload,
		},
	)
}

// AMQPConnection owns the broker connection and the channel the notifier
// publishes on.
type AMQPConnection struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialAMQP connects to url and declares a durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPConnection, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("events: amqp url is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &AMQPConnection{conn: conn, ch: ch}, nil
}

// Notifier returns an AMQPNotifier bound to the connection's channel.
func (c *AMQPConnection) Notifier(exchange string) *AMQPNotifier {
	return &AMQPNotifier{Channel: c.ch, Exchange: exchange}
}

func (c *AMQPConnection) Close() error {
	if c == nil || c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	if c.ch != nil && !c.ch.IsClosed() {
		_ = c.ch.Close()
	}
	return c.conn.Close()
}
