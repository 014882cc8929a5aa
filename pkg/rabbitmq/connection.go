package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"BizBooksPlatform/pkg/connection"
	"BizBooksPlatform/pkg/logger"
)

// Connection is one AMQP connection with a single publishing channel.
type Connection struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	Retry      connection.RetryConfig
}

func NewConfig(url, exchange, routingKey string) *Config {
	return &Config{
		URL:        url,
		Exchange:   exchange,
		RoutingKey: routingKey,
		Retry:      connection.DefaultRetryConfig(),
	}
}

// Connect dials the broker, opens a channel and declares the durable topic
// exchange the producer publishes to.
func Connect(ctx context.Context, config *Config, log logger.Logger) (*Connection, error) {
	var result *Connection

	err := connection.WithRetry(ctx, config.Retry, func(ctx context.Context) error {
		conn, err := amqp091.Dial(config.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}

		channel, err := conn.Channel()
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to open channel: %w", err)
		}

		if config.Exchange != "" {
			if err := channel.ExchangeDeclare(config.Exchange, "topic", true, false, false, false, nil); err != nil {
				channel.Close()
				conn.Close()
				return fmt.Errorf("failed to declare exchange %s: %w", config.Exchange, err)
			}
		}

		result = &Connection{conn: conn, channel: channel}
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		log.Warn("rabbitmq connection attempt failed",
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", delay),
			logger.Error(err))
	})
	if err != nil {
		return nil, err
	}

	log.Info("connected to rabbitmq", logger.String("exchange", config.Exchange))
	return result, nil
}

func (c *Connection) Close() error {
	var connErr, channelErr error
	if c.channel != nil {
		channelErr = c.channel.Close()
	}
	if c.conn != nil {
		connErr = c.conn.Close()
	}
	if channelErr != nil {
		return channelErr
	}
	return connErr
}

func (c *Connection) Channel() *amqp091.Channel {
	return c.channel
}

// HealthCheck fails once the broker connection has been closed.
func (c *Connection) HealthCheck(_ context.Context) error {
	if c.conn == nil || c.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	return nil
}
