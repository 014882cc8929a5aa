package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Producer publishes persistent JSON messages and waits for broker confirms.
type Producer struct {
	conn   *Connection
	config *Config

	mu             sync.Mutex
	confirms       chan amqp091.Confirmation
	confirmTimeout time.Duration
}

// NewProducer puts the channel into confirm mode.
func NewProducer(conn *Connection, config *Config) (*Producer, error) {
	if conn == nil || conn.Channel() == nil {
		return nil, fmt.Errorf("rabbitmq channel is not initialized")
	}
	if err := conn.Channel().Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable confirm mode: %w", err)
	}

	return &Producer{
		conn:           conn,
		config:         config,
		confirms:       conn.Channel().NotifyPublish(make(chan amqp091.Confirmation, 1)),
		confirmTimeout: 10 * time.Second,
	}, nil
}

// Publish sends body and blocks until the broker acks it. Publishes are
// serialized so each confirm matches its message.
func (p *Producer) Publish(ctx context.Context, body []byte, options ...PublishOption) error {
	opts := &PublishOptions{
		Exchange:   p.config.Exchange,
		RoutingKey: p.config.RoutingKey,
	}
	for _, option := range options {
		option(opts)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    opts.MessageID,
		Headers:      opts.Headers,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.conn.Channel().PublishWithContext(ctx, opts.Exchange, opts.RoutingKey, opts.Mandatory, false, msg); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	timer := time.NewTimer(p.confirmTimeout)
	defer timer.Stop()

	select {
	case confirm, ok := <-p.confirms:
		if !ok {
			return fmt.Errorf("rabbitmq channel closed while waiting for confirmation")
		}
		if !confirm.Ack {
			return fmt.Errorf("message rejected by broker")
		}
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for confirmation: %w", ctx.Err())
	case <-timer.C:
		return fmt.Errorf("timeout waiting for confirmation")
	}

	return nil
}

type PublishOptions struct {
	Exchange   string
	RoutingKey string
	Mandatory  bool
	MessageID  string
	Headers    amqp091.Table
}

type PublishOption func(*PublishOptions)

func WithExchange(exchange string) PublishOption {
	return func(opts *PublishOptions) {
		opts.Exchange = exchange
	}
}

func WithRoutingKey(routingKey string) PublishOption {
	return func(opts *PublishOptions) {
		opts.RoutingKey = routingKey
	}
}

func WithMandatory(mandatory bool) PublishOption {
	return func(opts *PublishOptions) {
		opts.Mandatory = mandatory
	}
}

func WithMessageID(id string) PublishOption {
	return func(opts *PublishOptions) {
		opts.MessageID = id
	}
}

func WithHeaders(headers amqp091.Table) PublishOption {
	return func(opts *PublishOptions) {
		opts.Headers = headers
	}
}
