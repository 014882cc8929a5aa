package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"BizBooksPlatform/pkg/rabbitmq"
)

// Publisher is the subset of *rabbitmq.Producer the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, body []byte, options ...rabbitmq.PublishOption) error
}

// RabbitMQNotifier publishes events with routing key "<prefix>.<type>".
type RabbitMQNotifier struct {
	publisher Publisher
	prefix    string
}

func NewRabbitMQNotifier(publisher Publisher, routingPrefix string) *RabbitMQNotifier {
	return &RabbitMQNotifier{publisher: publisher, prefix: routingPrefix}
}

func (n *RabbitMQNotifier) RoutingKey(eventType EventType) string {
	if n.prefix == "" {
		return string(eventType)
	}
	return n.prefix + "." + string(eventType)
}

func (n *RabbitMQNotifier) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	err = n.publisher.Publish(ctx, body,
		rabbitmq.WithRoutingKey(n.RoutingKey(event.Type)),
		rabbitmq.WithMessageID(event.ID),
		rabbitmq.WithHeaders(amqp091.Table{"event_type": string(event.Type)}),
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	return nil
}
