package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"biryani-club/internal/logger"
	"biryani-club/internal/messaging"
	"biryani-club/internal/models"
)

// Store persists notifications addressed to a user.
type Store interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
}

// Sink records a notification and prints it for the operator. It is the
// consuming end of the notification exchange and, in single-process mode,
// the notifier itself.
type Sink struct {
	store  Store
	out    io.Writer
	logger *logger.Logger
}

func NewSink(store Store, out io.Writer, log *logger.Logger) *Sink {
	return &Sink{store: store, out: out, logger: log}
}

// Notify stores msg for its user, if any, and prints it.
func (s *Sink) Notify(ctx context.Context, msg *models.NotificationMessage) error {
	n := msg.Notification
	if n.UserID != nil {
		if err := s.store.SaveNotification(ctx, &n); err != nil {
			return fmt.Errorf("failed to save notification: %w", err)
		}
	}

	fmt.Fprintln(s.out, Format(msg))

	s.logger.Info("notification_displayed", "Notification displayed to user", logger.RequestIDFrom(ctx), map[string]interface{}{
		"order_id":   msg.OrderID,
		"new_status": msg.NewStatus,
		"type":       n.Kind,
	})
	return nil
}

// Format renders one console line per notification.
func Format(msg *models.NotificationMessage) string {
	ts := msg.Timestamp.Format("2006-01-02 15:04:05")
	n := msg.Notification

	icon := "📋"
	switch n.Kind {
	case models.NotificationSuccess:
		icon = "✅"
	case models.NotificationWarning:
		icon = "⚠️"
	case models.NotificationError:
		icon = "❌"
	}

	line := fmt.Sprintf("%s [%s] %s: %s", icon, ts, n.Title, n.Message)
	if msg.EstimatedDelivery != nil && msg.NewStatus != models.StatusDelivered {
		line += fmt.Sprintf(" Estimated delivery: %s", msg.EstimatedDelivery.Format("15:04"))
	}
	return line
}

// Subscriber feeds the notifications queue into a Sink.
type Subscriber struct {
	consumer *messaging.Consumer
	sink     *Sink
	logger   *logger.Logger
}

func NewSubscriber(consumer *messaging.Consumer, sink *Sink, log *logger.Logger) *Subscriber {
	return &Subscriber{consumer: consumer, sink: sink, logger: log}
}

// Run consumes until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.Handle)

	s.logger.Info("graceful_shutdown", "Notification subscriber stopped", requestID, nil)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handle decodes one queue message. Undecodable bodies are discarded.
func (s *Subscriber) Handle(ctx context.Context, body []byte) error {
	var msg models.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", messaging.ErrDiscard, err)
	}
	return s.sink.Notify(ctx, &msg)
}
