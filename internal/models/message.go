package models

import (
	"fmt"
	"time"
)

// NotificationMessage is the wire envelope published on the notifications
// exchange. Order fields are set for status updates only.
type NotificationMessage struct {
	Notification      Notification `json:"notification"`
	OrderID           string       `json:"order_id,omitempty"`
	OldStatus         OrderStatus  `json:"old_status,omitempty"`
	NewStatus         OrderStatus  `json:"new_status,omitempty"`
	EstimatedDelivery *time.Time   `json:"estimated_delivery,omitempty"`
	Timestamp         time.Time    `json:"timestamp"`
}

// NewStatusUpdateMessage builds the notification for an order moving from
// old to its current status.
func NewStatusUpdateMessage(order *Order, old OrderStatus, at time.Time) *NotificationMessage {
	n := Notification{
		UserID:    order.UserID,
		Title:     fmt.Sprintf("Order %s Updated", order.ID),
		Message:   fmt.Sprintf("Your order status has been updated to: %s", order.Status.DisplayName()),
		Kind:      NotificationInfo,
		CreatedAt: at,
	}

	switch order.Status {
	case StatusDelivered:
		n.Title = fmt.Sprintf("Order %s Delivered!", order.ID)
		n.Message = "Your order has been delivered successfully. Enjoy your meal!"
		n.Kind = NotificationSuccess
	case StatusCancelled:
		n.Kind = NotificationWarning
	}

	return &NotificationMessage{
		Notification:      n,
		OrderID:           order.ID,
		OldStatus:         old,
		NewStatus:         order.Status,
		EstimatedDelivery: order.EstimatedDelivery,
		Timestamp:         at,
	}
}

// NewOrderPlacedMessage announces a freshly placed order.
func NewOrderPlacedMessage(order *Order, at time.Time) *NotificationMessage {
	return &NotificationMessage{
		Notification: Notification{
			UserID:    order.UserID,
			Title:     fmt.Sprintf("Order %s Placed", order.ID),
			Message:   fmt.Sprintf("We received your order of ₹%d. You earned %d loyalty points.", order.Total, order.LoyaltyPointsEarned),
			Kind:      NotificationSuccess,
			CreatedAt: at,
		},
		OrderID:   order.ID,
		NewStatus: order.Status,
		Timestamp: at,
	}
}

// NewMessage wraps a free-standing notification.
func NewMessage(n Notification, at time.Time) *NotificationMessage {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = at
	}
	return &NotificationMessage{Notification: n, Timestamp: at}
}
