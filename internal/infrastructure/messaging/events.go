package messaging

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// NotificationCreatedEvent is broadcast whenever a notification row is
// written; the gateway's push channel consumes it to update unread counts.
type NotificationCreatedEvent struct {
	UserID      uint      `json:"userId"`
	Kind        string    `json:"kind"`
	Text        string    `json:"text"`
	UnreadCount int64     `json:"unreadCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Publisher is the fire-and-forget event channel. Implementations never make
// the caller wait on broker confirms.
type Publisher interface {
	PublishNotificationCreated(event NotificationCreatedEvent)
}

type amqpPublisher struct {
	rmq    *RabbitMQ
	logger *logger.Logger
}

func NewPublisher(rmq *RabbitMQ, logger *logger.Logger) Publisher {
	return &amqpPublisher{rmq: rmq, logger: logger}
}

func (p *amqpPublisher) PublishNotificationCreated(event NotificationCreatedEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	err = p.rmq.Channel.Publish(
		DefaultExchange,
		NotificationCreatedKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("failed to publish event",
			zap.String("routingKey", NotificationCreatedKey),
			zap.Error(err),
		)
	}
}

// NopPublisher drops events. Used when the broker is not configured and by
// tests.
type NopPublisher struct{}

func (NopPublisher) PublishNotificationCreated(event NotificationCreatedEvent) {}

// Consumer delivers notification events to a handler until the context is
// cancelled.
type Consumer struct {
	rmq    *RabbitMQ
	logger *logger.Logger
}

func NewConsumer(rmq *RabbitMQ, logger *logger.Logger) *Consumer {
	return &Consumer{rmq: rmq, logger: logger}
}

func (c *Consumer) ConsumeNotifications(ctx context.Context, queueName string, handle func(NotificationCreatedEvent)) error {
	name, err := c.rmq.declareAndBindQueue(queueName, []string{NotificationCreatedKey}, DefaultExchange)
	if err != nil {
		return err
	}

	deliveries, err := c.rmq.Channel.Consume(
		name,  // queue
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					c.logger.Warn("notification delivery channel closed")
					return
				}

				var event NotificationCreatedEvent
				if err := json.Unmarshal(delivery.Body, &event); err != nil {
					c.logger.Error("failed to decode notification event", zap.Error(err))
					continue
				}
				handle(event)
			}
		}
	}()

	return nil
}
