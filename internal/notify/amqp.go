package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"hrportal/pkg/platform/audit"
)

// AMQPSink publishes outbox entries to a durable topic exchange. The routing
// key is "<aggregate_type>.<event_type>" so consumers can bind per event.
type AMQPSink struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	confirms chan amqp.Confirmation
	exchange string
	timeout  time.Duration
	logger   *slog.Logger
	closed   bool
}

func NewAMQPSink(url, exchange string, logger *slog.Logger) (*AMQPSink, error) {
	if exchange == "" {
		return nil, errors.New("amqp: exchange is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp: declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp: enable confirms: %w", err)
	}
	s := &AMQPSink{
		conn:     conn,
		ch:       ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 256)),
		exchange: exchange,
		timeout:  10 * time.Second,
		logger:   logger,
	}
	logger.Info("amqp sink ready", "exchange", exchange)
	return s, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

// RoutingKey builds the topic routing key for an entry.
func RoutingKey(e audit.OutboxEntry) string {
	return e.AggregateType + "." + e.EventType
}

// Publish sends every entry and waits for broker confirms. streadway has no
// context-aware publish, so ctx only bounds the wait for confirms.
func (s *AMQPSink) Publish(ctx context.Context, entries []audit.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	for _, e := range entries {
		err := s.ch.Publish(s.exchange, RoutingKey(e), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID.String(),
			Timestamp:    e.CreatedAt,
			Type:         e.EventType,
			Headers: amqp.Table{
				HeaderAggregateType: e.AggregateType,
				"aggregate_id":      e.AggregateID,
			},
			Body: e.Payload,
		})
		if err != nil {
			return fmt.Errorf("amqp: publish %s: %w", e.ID, err)
		}
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	nacked := 0
	for range entries {
		select {
		case c, ok := <-s.confirms:
			if !ok {
				return errors.New("amqp: channel closed while waiting for confirms")
			}
			if !c.Ack {
				nacked++
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return errors.New("amqp: timed out waiting for confirms")
		}
	}
	if nacked > 0 {
		return fmt.Errorf("amqp: broker rejected %d of %d messages", nacked, len(entries))
	}
	return nil
}

func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.ch.Close(); err != nil {
		s.logger.Warn("amqp channel close failed", "error", err)
	}
	return s.conn.Close()
}
