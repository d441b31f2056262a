package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"biryani-club/internal/logger"
	"biryani-club/internal/models"
)

// Publisher sends notifications to the fanout exchange.
type Publisher struct {
	conn    *Connection
	logger  *logger.Logger
	timeout time.Duration
}

func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:    conn,
		logger:  log,
		timeout: 10 * time.Second,
	}
}

// Notify publishes msg as a persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, msg *models.NotificationMessage) error {
	return p.publish(ctx, NotificationsExchange, "", msg)
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, message interface{}) error {
	requestID := logger.RequestIDFrom(ctx)

	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp091.Persistent,
		Timestamp:     time.Now(),
		CorrelationId: requestID,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(ctx, exchange, routingKey, false, false, publishing)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", exchange),
			requestID, err, map[string]interface{}{
				"exchange":    exchange,
				"routing_key": routingKey,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		requestID, map[string]interface{}{
			"exchange":     exchange,
			"message_size": len(body),
		})

	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
