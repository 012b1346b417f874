package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"couponhub/pkg/rabbitmq"
)

// Catalog event routing keys.
const (
	EventStoreCreated   = "store.created"
	EventStoreUpdated   = "store.updated"
	EventStoreDeleted   = "store.deleted"
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// Event is the message body published for every catalog mutation.
type Event struct {
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

// EventPublisher delivers catalog events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange, using the
// event type as routing key.
type AMQPPublisher struct {
	client *rabbitmq.Client
}

func NewAMQPPublisher(client *rabbitmq.Client) *AMQPPublisher {
	return &AMQPPublisher{client: client}
}

func (p *AMQPPublisher) Publish(_ context.Context, event Event) error {
	return p.client.PublishJSON(event.Type, event)
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// publish sends an event and only logs failures: the mutation already
// succeeded and must not be reported as failed.
func publish(ctx context.Context, pub EventPublisher, logger *zap.Logger, eventType, id string, payload any) {
	event := Event{Type: eventType, ID: id, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := pub.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish catalog event",
			zap.String("type", eventType),
			zap.String("id", id),
			zap.Error(err))
	}
}
