package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/crediblehealth/clinic-console/internal/core/ports"
)

// QueuePublisher pushes interview invitations onto a RabbitMQ queue instead
// of sending them inline. A Consumer on the other end performs the actual
// SMTP delivery.
type QueuePublisher struct {
	channel *amqp091.Channel
	queue   string
}

// NewQueuePublisher opens a channel on the given connection and declares the
// invitation queue.
func NewQueuePublisher(conn *amqp091.Connection, queue string) (*QueuePublisher, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}

	return &QueuePublisher{channel: channel, queue: queue}, nil
}

// Send publishes the invitation as a persistent JSON message.
func (p *QueuePublisher) Send(ctx context.Context, inv ports.InterviewInvitation) error {
	body, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode invitation: %w", err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
	}

	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish invitation: %w", err)
	}
	return nil
}

// Close releases the underlying channel.
func (p *QueuePublisher) Close() error {
	return p.channel.Close()
}

// Consumer drains the invitation queue and hands each message to a notifier
// for delivery. Failed deliveries are nacked without requeue so a poisoned
// message cannot wedge the queue.
type Consumer struct {
	channel  *amqp091.Channel
	queue    string
	notifier ports.InterviewNotifier
	log      zerolog.Logger
}

func NewConsumer(conn *amqp091.Connection, queue string, notifier ports.InterviewNotifier, log zerolog.Logger) (*Consumer, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}

	return &Consumer{channel: channel, queue: queue, notifier: notifier, log: log}, nil
}

// Run consumes messages until the context is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return c.channel.Close()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp091.Delivery) {
	var inv ports.InterviewInvitation
	if err := json.Unmarshal(d.Body, &inv); err != nil {
		c.log.Error().Err(err).Msg("discarding malformed invitation message")
		_ = d.Nack(false, false)
		return
	}

	if err := c.notifier.Send(ctx, inv); err != nil {
		c.log.Error().Err(err).Str("recipient", inv.RecipientEmail).Msg("invitation delivery failed")
		_ = d.Nack(false, false)
		return
	}

	c.log.Info().Str("recipient", inv.RecipientEmail).Msg("invitation delivered")
	_ = d.Ack(false)
}
