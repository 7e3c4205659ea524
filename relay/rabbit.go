// Package relay publishes committed circulation events to downstream
// consumers. The relay is advisory: it runs after the journal append
// succeeded and a broker failure never fails or blocks the command.
package relay

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/shell"
)

// Routing keys by event type. Unknown event types fall back to
// "circulation.event".
const (
	routingKeyFallback = "circulation.event"

	routingKeyBookPublished      = "circulation.book.published"
	routingKeyBookStockSet       = "circulation.book.stock_set"
	routingKeyBookWithdrawn      = "circulation.book.withdrawn"
	routingKeyBookBorrowed       = "circulation.book.borrowed"
	routingKeyBookReturned       = "circulation.book.returned"
	routingKeyReaderRegistered   = "circulation.reader.registered"
	routingKeyReaderDeregistered = "circulation.reader.deregistered"
)

// RabbitRelay publishes committed events to a RabbitMQ topic exchange.
// It implements shell.CommitListener.
type RabbitRelay struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	logger     shell.Logger
}

// NewRabbitRelay connects to the broker and declares the topic exchange.
// An empty URL disables the relay: the returned nil relay is safe to use.
func NewRabbitRelay(url string, exchange string, logger shell.Logger) (*RabbitRelay, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitRelay{connection: conn, channel: channel, exchange: exchange, logger: logger}, nil
}

// Close shuts the relay down. Safe to call on a nil (disabled) relay.
func (r *RabbitRelay) Close() error {
	if r == nil || r.connection == nil {
		return nil
	}

	return r.connection.Close()
}

// OnCommit implements shell.CommitListener. Fire and forget: publish errors
// are logged and dropped, the commit already happened.
func (r *RabbitRelay) OnCommit(ctx context.Context, event core.DomainEvent) {
	if r == nil || r.channel == nil {
		return
	}

	body, err := jsoniter.ConfigFastest.Marshal(event)
	if err != nil {
		r.logWarn("marshaling committed event for relay failed", "event_type", event.EventType(), "error", err.Error())
		return
	}

	publishErr := r.channel.PublishWithContext(ctx, r.exchange, RoutingKeyFor(event), false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        event.EventType(),
		Body:        body,
		Timestamp:   time.Now(),
	})
	if publishErr != nil {
		r.logWarn("publishing committed event failed", "event_type", event.EventType(), "error", publishErr.Error())
	}
}

// RoutingKeyFor maps a domain event to its topic routing key.
func RoutingKeyFor(event core.DomainEvent) string {
	switch event.EventType() {
	case core.BookPublishedEventType:
		return routingKeyBookPublished
	case core.BookStockSetEventType:
		return routingKeyBookStockSet
	case core.BookWithdrawnEventType:
		return routingKeyBookWithdrawn
	case core.BookCopyBorrowedEventType:
		return routingKeyBookBorrowed
	case core.BookCopyReturnedEventType:
		return routingKeyBookReturned
	case core.ReaderRegisteredEventType:
		return routingKeyReaderRegistered
	case core.ReaderDeregisteredEventType:
		return routingKeyReaderDeregistered
	default:
		return routingKeyFallback
	}
}

func (r *RabbitRelay) logWarn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

var _ shell.CommitListener = (*RabbitRelay)(nil)
