// Package amqp forwards ledger events to a RabbitMQ topic exchange so other
// processes can follow changes.
package amqp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// Channel is the part of *amqp091.Channel the publisher uses
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher implements events.Publisher on an AMQP exchange. The routing key
// is the event type, e.g. "transaction.created".
type Publisher struct {
	conn     *amqp091.Connection
	channel  Channel
	exchange string
	mu       sync.Mutex
}

var _ events.Publisher = (*Publisher)(nil)

// NewPublisher dials the broker and declares a durable topic exchange
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	p := NewPublisherWithChannel(channel, exchange)
	p.conn = conn
	return p, nil
}

// NewPublisherWithChannel wraps an already opened channel
func NewPublisherWithChannel(channel Channel, exchange string) *Publisher {
	return &Publisher{channel: channel, exchange: exchange}
}

// Publish sends the event to the exchange. Failures are logged; the ledger
// change that produced the event has already been stored.
func (p *Publisher) Publish(ctx context.Context, event events.Event) {
	body, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("event_type", event.Type).Msg("Failed to serialize event")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.channel.PublishWithContext(
		ctx,
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.Timestamp,
			Type:         event.Type,
			Body:         body,
		},
	)
	p.mu.Unlock()

	if err != nil {
		log.Error().
			Err(err).
			Str("exchange", p.exchange).
			Str("event_type", event.Type).
			Msg("Failed to publish event")
		return
	}

	log.Debug().
		Str("exchange", p.exchange).
		Str("event_type", event.Type).
		Msg("Published event")
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close AMQP channel")
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
