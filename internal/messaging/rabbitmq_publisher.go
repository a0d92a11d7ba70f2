package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shreyakodukula/parking/internal/domain"
)

const (
	BookingExchangeName = "parking_bookings"
	BookingExchangeType = "topic"
)

// SetupRabbitMQ dials the broker with a few retries and declares the booking exchange.
func SetupRabbitMQ(url string) (*amqp.Connection, *amqp.Channel, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		slog.Warn("rabbitmq connect failed", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		BookingExchangeName,
		BookingExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQPublisher struct {
	ch amqpChannel
}

func NewRabbitMQPublisher(ch amqpChannel) *RabbitMQPublisher {
	return &RabbitMQPublisher{ch: ch}
}

// Publish routes by event type, e.g. booking.created.
func (p *RabbitMQPublisher) Publish(ctx context.Context, event domain.BookingEvent) error {
	body, err := encodeEvent(event)
	if err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx,
		BookingExchangeName,
		string(event.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq publish booking event %s: %w", event.ID, err)
	}
	return nil
}
