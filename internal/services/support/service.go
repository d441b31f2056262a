package support

import (
	"context"
	"fmt"
	"time"

	"biryani-club/internal/logger"
	"biryani-club/internal/models"
)

type Store interface {
	NextTicketSequence(ctx context.Context) (int, error)
	SaveTicket(ctx context.Context, t *models.SupportTicket) error
	LoadTicket(ctx context.Context, id string) (*models.SupportTicket, error)
	UpdateTicket(ctx context.Context, t *models.SupportTicket, from models.TicketStatus) error
	MarkTicketCompensated(ctx context.Context, id string, at time.Time) error
	ReleaseTicketCompensation(ctx context.Context, id string) error
	ListTickets(ctx context.Context, status models.TicketStatus) ([]models.SupportTicket, error)
	CountTickets(ctx context.Context, status models.TicketStatus) (int, error)
}

// Rewards covers the compensation path: a guaranteed draw tied to the
// complained-about order, turned into a coupon for the customer.
type Rewards interface {
	SpinGuaranteed(ctx context.Context, orderID string) (models.Reward, error)
	IssueCoupon(ctx context.Context, reward models.Reward, userID *int64) (*models.Coupon, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg *models.NotificationMessage) error
}

type Service struct {
	store    Store
	rewards  Rewards
	notifier Notifier
	now      func() time.Time
	logger   *logger.Logger
}

func NewService(store Store, rewards Rewards, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		rewards:  rewards,
		notifier: notifier,
		now:      time.Now,
		logger:   log,
	}
}

// Create validates and opens a new ticket.
func (s *Service) Create(ctx context.Context, ticket models.SupportTicket) (*models.SupportTicket, error) {
	if err := ticket.Validate(); err != nil {
		return nil, err
	}

	seq, err := s.store.NextTicketSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate ticket number: %w", err)
	}

	now := s.now().UTC()
	ticket.ID = models.GenerateTicketID(seq)
	ticket.Status = models.TicketOpen
	ticket.Compensated = false
	ticket.ResolvedAt = nil
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	if err := s.store.SaveTicket(ctx, &ticket); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	s.logger.Info("ticket_created", fmt.Sprintf("Support ticket %s opened", ticket.ID), logger.RequestIDFrom(ctx), map[string]interface{}{
		"ticket_id": ticket.ID,
		"category":  ticket.Category,
		"priority":  ticket.Priority,
	})
	return &ticket, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.SupportTicket, error) {
	return s.store.LoadTicket(ctx, id)
}

// List returns tickets newest first. An empty status lists all of them.
func (s *Service) List(ctx context.Context, status models.TicketStatus) ([]models.SupportTicket, error) {
	return s.store.ListTickets(ctx, status)
}

// CountOpen returns how many tickets are waiting for staff.
func (s *Service) CountOpen(ctx context.Context) (int, error) {
	return s.store.CountTickets(ctx, models.TicketOpen)
}

// UpdateStatus moves a ticket forward. Resolving or closing stamps the
// resolution time, and the owning user is told about the change.
func (s *Service) UpdateStatus(ctx context.Context, id string, to models.TicketStatus, adminNotes string) (*models.SupportTicket, error) {
	ticket, err := s.store.LoadTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	from := ticket.Status
	if !from.CanMoveTo(to) {
		return nil, fmt.Errorf("%w: ticket %s -> %s", models.ErrInvalidTransition, from, to)
	}

	now := s.now().UTC()
	ticket.Status = to
	ticket.UpdatedAt = now
	if adminNotes != "" {
		ticket.AdminNotes = adminNotes
	}
	if (to == models.TicketResolved || to == models.TicketClosed) && ticket.ResolvedAt == nil {
		ticket.ResolvedAt = &now
	}

	if err := s.store.UpdateTicket(ctx, ticket, from); err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, ticket, models.Notification{
		Title:   fmt.Sprintf("Ticket %s Updated", ticket.ID),
		Message: fmt.Sprintf("Your support ticket is now %s.", to),
		Kind:    models.NotificationInfo,
	})
	return ticket, nil
}

// Compensate issues a guaranteed reward coupon for an order complaint.
// Each ticket is compensated at most once.
func (s *Service) Compensate(ctx context.Context, id string) (*models.Coupon, error) {
	ticket, err := s.store.LoadTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Category != models.TicketOrderIssue || ticket.OrderID == nil {
		return nil, models.ValidationError{Field: "order_id", Message: "only order issues with an order can be compensated"}
	}
	if ticket.Compensated {
		return nil, fmt.Errorf("%w: ticket %s already compensated", models.ErrInvalidTransition, id)
	}

	reward, err := s.rewards.SpinGuaranteed(ctx, *ticket.OrderID)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkTicketCompensated(ctx, id, s.now().UTC()); err != nil {
		return nil, err
	}

	coupon, err := s.rewards.IssueCoupon(ctx, reward, ticket.UserID)
	if err != nil {
		requestID := logger.RequestIDFrom(ctx)
		s.logger.Error("coupon_issue_failed", "Compensation coupon could not be issued", requestID, err, map[string]interface{}{
			"ticket_id": id,
			"reward":    reward.Name,
		})
		if relErr := s.store.ReleaseTicketCompensation(ctx, id); relErr != nil {
			s.logger.Error("compensation_release_failed", "Failed to reopen ticket for compensation", requestID, relErr, map[string]interface{}{
				"ticket_id": id,
			})
		}
		return nil, err
	}

	s.logger.Info("ticket_compensated", fmt.Sprintf("Ticket %s compensated with %s", id, reward.Name), logger.RequestIDFrom(ctx), map[string]interface{}{
		"ticket_id": id,
		"order_id":  *ticket.OrderID,
		"reward":    reward.Name,
	})

	s.notifyOwner(ctx, ticket, models.Notification{
		Title:   "We're sorry!",
		Message: fmt.Sprintf("Here is a coupon for %s: %s", reward.Name, coupon.Code),
		Kind:    models.NotificationSuccess,
	})
	return coupon, nil
}

func (s *Service) notifyOwner(ctx context.Context, ticket *models.SupportTicket, n models.Notification) {
	if ticket.UserID == nil {
		return
	}
	n.UserID = ticket.UserID
	if err := s.notifier.Notify(ctx, models.NewMessage(n, s.now().UTC())); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to notify ticket owner", logger.RequestIDFrom(ctx), err, map[string]interface{}{
			"ticket_id": ticket.ID,
		})
	}
}
