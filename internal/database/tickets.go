package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"biryani-club/internal/models"
)

func (db *DB) NextTicketSequence(ctx context.Context) (int, error) {
	var n int64
	if err := db.Pool.QueryRow(ctx, NextTicketSequenceSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to get next ticket number: %w", err)
	}
	return int(n), nil
}

func (db *DB) SaveTicket(ctx context.Context, t *models.SupportTicket) error {
	_, err := db.Pool.Exec(ctx, InsertTicketSQL,
		t.ID, t.UserID, t.CustomerName, t.CustomerPhone, t.CustomerEmail,
		t.OrderID, string(t.Category), t.Subject, t.Description, string(t.Status), string(t.Priority),
		t.AdminNotes, t.Compensated, t.CreatedAt, t.UpdatedAt, t.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

func (db *DB) LoadTicket(ctx context.Context, id string) (*models.SupportTicket, error) {
	t, err := scanTicket(db.Pool.QueryRow(ctx, GetTicketSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrTicketNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	return t, nil
}

// UpdateTicket writes the staff-editable fields while the stored status is
// still from.
func (db *DB) UpdateTicket(ctx context.Context, t *models.SupportTicket, from models.TicketStatus) error {
	tag, err := db.Pool.Exec(ctx, UpdateTicketSQL,
		t.ID, string(from), string(t.Status), string(t.Priority), t.AdminNotes, t.UpdatedAt, t.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if err := db.ticketExists(ctx, t.ID); err != nil {
		return err
	}
	return fmt.Errorf("%w: ticket %s changed concurrently", models.ErrInvalidTransition, t.ID)
}

func (db *DB) MarkTicketCompensated(ctx context.Context, id string, at time.Time) error {
	tag, err := db.Pool.Exec(ctx, MarkTicketCompensatedSQL, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark ticket compensated: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if err := db.ticketExists(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: ticket %s already compensated", models.ErrInvalidTransition, id)
}

// ReleaseTicketCompensation undoes MarkTicketCompensated when the coupon
// could not be issued.
func (db *DB) ReleaseTicketCompensation(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, ReleaseTicketCompensationSQL, id)
	if err != nil {
		return fmt.Errorf("failed to release ticket compensation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ticketExists(ctx, id)
	}
	return nil
}

func (db *DB) CountTickets(ctx context.Context, status models.TicketStatus) (int, error) {
	var n int
	if err := db.Pool.QueryRow(ctx, CountTicketsSQL, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}

func (db *DB) ListTickets(ctx context.Context, status models.TicketStatus) ([]models.SupportTicket, error) {
	rows, err := db.Pool.Query(ctx, ListTicketsSQL, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

func (db *DB) ticketExists(ctx context.Context, id string) error {
	var exists bool
	if err := db.Pool.QueryRow(ctx, TicketExistsSQL, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up ticket: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", models.ErrTicketNotFound, id)
	}
	return nil
}

func scanTicket(row pgx.Row) (*models.SupportTicket, error) {
	var (
		t                          models.SupportTicket
		category, status, priority string
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.CustomerName, &t.CustomerPhone, &t.CustomerEmail,
		&t.OrderID, &category, &t.Subject, &t.Description, &status, &priority, &t.AdminNotes,
		&t.Compensated, &t.CreatedAt, &t.UpdatedAt, &t.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Category = models.TicketCategory(category)
	t.Status = models.TicketStatus(status)
	t.Priority = models.TicketPriority(priority)
	return &t, nil
}
