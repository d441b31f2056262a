package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type TicketCategory string

const (
	TicketOrderIssue   TicketCategory = "order_issue"
	TicketPaymentIssue TicketCategory = "payment_issue"
	TicketFeedback     TicketCategory = "feedback"
	TicketOther        TicketCategory = "other"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

var ticketRank = map[TicketStatus]int{
	TicketOpen:       0,
	TicketInProgress: 1,
	TicketResolved:   2,
	TicketClosed:     3,
}

// CanMoveTo allows forward moves only; closed is terminal.
func (s TicketStatus) CanMoveTo(to TicketStatus) bool {
	from, ok := ticketRank[s]
	if !ok {
		return false
	}
	target, ok := ticketRank[to]
	return ok && target > from
}

// SupportTicket is a customer complaint or question handled by staff.
type SupportTicket struct {
	ID            string         `json:"ticket_id"`
	UserID        *int64         `json:"user_id,omitempty"`
	CustomerName  string         `json:"customer_name"`
	CustomerPhone string         `json:"customer_phone"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	OrderID       *string        `json:"order_id,omitempty"`
	Category      TicketCategory `json:"category"`
	Subject       string         `json:"subject"`
	Description   string         `json:"description"`
	Status        TicketStatus   `json:"status"`
	Priority      TicketPriority `json:"priority"`
	AdminNotes    string         `json:"admin_notes,omitempty"`
	Compensated   bool           `json:"compensated"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
}

// GenerateTicketID formats ids as TK followed by six digits.
func GenerateTicketID(n int) string {
	return fmt.Sprintf("TK%06d", n%1000000)
}

// Validate checks a new ticket and fills defaults.
func (t *SupportTicket) Validate() error {
	t.CustomerName = strings.TrimSpace(t.CustomerName)
	t.Subject = strings.TrimSpace(t.Subject)
	t.Description = strings.TrimSpace(t.Description)

	required := []struct {
		field string
		value string
	}{
		{"customer_name", t.CustomerName},
		{"customer_phone", t.CustomerPhone},
		{"subject", t.Subject},
		{"description", t.Description},
	}
	for _, r := range required {
		if r.value == "" {
			return ValidationError{Field: r.field, Message: r.field + " is required"}
		}
	}

	switch t.Category {
	case TicketOrderIssue, TicketPaymentIssue, TicketFeedback, TicketOther:
	default:
		return ValidationError{Field: "category", Message: "unknown ticket category"}
	}

	if t.CustomerEmail != "" {
		if _, err := mail.ParseAddress(t.CustomerEmail); err != nil {
			return ValidationError{Field: "customer_email", Message: "invalid email address"}
		}
	}

	switch t.Priority {
	case "":
		t.Priority = PriorityMedium
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
	default:
		return ValidationError{Field: "priority", Message: "unknown priority"}
	}

	return nil
}
