package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"biryani-club/internal/models"
)

func (db *DB) NextOrderSequence(ctx context.Context, day time.Time) (int64, error) {
	var seq int64
	dayStart := day.UTC().Truncate(24 * time.Hour)
	if err := db.Pool.QueryRow(ctx, NextOrderSequenceSQL, dayStart).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to get next order sequence: %w", err)
	}
	return seq, nil
}

func (db *DB) SaveOrder(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	_, err = db.Pool.Exec(ctx, InsertOrderSQL,
		o.ID, o.UserID, o.CustomerName, o.CustomerPhone, o.DeliveryAddress,
		string(o.PaymentMethod), items, o.Subtotal, o.Discount, o.Total, string(o.Status),
		o.LoyaltyPointsEarned, o.CouponCode, o.SpinUsed, o.EstimatedDelivery, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (db *DB) LoadOrderByID(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(db.Pool.QueryRow(ctx, GetOrderByIDSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return o, nil
}

func (db *DB) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return db.queryOrders(ctx, ListOrdersByUserSQL, userID)
}

// ListOrders returns one page of orders and the number of orders matching
// status. An empty status matches every order.
func (db *DB) ListOrders(ctx context.Context, status models.OrderStatus, page int) ([]models.Order, int, error) {
	var total int
	if err := db.Pool.QueryRow(ctx, CountOrdersSQL, string(status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * models.OrdersPageSize
	orders, err := db.queryOrders(ctx, ListOrdersSQL, string(status), models.OrdersPageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (db *DB) ListOrdersByCourier(ctx context.Context, courierID int64, status models.OrderStatus) ([]models.Order, error) {
	return db.queryOrders(ctx, ListOrdersByCourierSQL, courierID, string(status))
}

func (db *DB) OrderStats(ctx context.Context) (models.OrderStats, error) {
	var st models.OrderStats
	err := db.Pool.QueryRow(ctx, OrderStatsSQL).Scan(
		&st.TotalOrders, &st.PendingOrders, &st.DeliveredOrders, &st.TotalRevenue,
	)
	if err != nil {
		return st, fmt.Errorf("failed to load order stats: %w", err)
	}
	return st, nil
}

func (db *DB) queryOrders(ctx context.Context, sql string, args ...any) ([]models.Order, error) {
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus applies the transition only while the order is still
// in from. A lost race surfaces as ErrInvalidTransition. A nil courier
// keeps the current delivery person.
func (db *DB) UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, eta *time.Time, courier *int64, at time.Time) error {
	tag, err := db.Pool.Exec(ctx, UpdateOrderStatusSQL, id, string(from), string(to), eta, courier, at)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, err := db.LoadOrderByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: order %s is %s, not %s", models.ErrInvalidTransition, id, current.Status, from)
}

func (db *DB) MarkSpinUsed(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, MarkSpinUsedSQL, id)
	if err != nil {
		return fmt.Errorf("failed to mark spin used: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, err := db.LoadOrderByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != models.StatusDelivered {
		return models.ErrOrderNotDelivered
	}
	return models.ErrSpinAlreadyUsed
}

// ReleaseSpin gives a claimed spin back. Releasing an unclaimed spin is a
// no-op.
func (db *DB) ReleaseSpin(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, ReleaseSpinSQL, id)
	if err != nil {
		return fmt.Errorf("failed to release spin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := db.LoadOrderByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) SaveOrderRating(ctx context.Context, id string, rating int, feedback string) error {
	tag, err := db.Pool.Exec(ctx, SaveOrderRatingSQL, id, rating, feedback)
	if err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := db.LoadOrderByID(ctx, id); err != nil {
		return err
	}
	return models.ErrOrderNotDelivered
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o              models.Order
		payment, state string
		items          []byte
		rating         *int16
	)

	err := row.Scan(
		&o.ID, &o.UserID, &o.CustomerName, &o.CustomerPhone, &o.DeliveryAddress,
		&payment, &items, &o.Subtotal, &o.Discount, &o.Total, &state, &o.LoyaltyPointsEarned,
		&o.CouponCode, &o.SpinUsed, &o.EstimatedDelivery, &rating, &o.Feedback, &o.DeliveryPersonID,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	o.PaymentMethod = models.PaymentMethod(payment)
	o.Status = models.OrderStatus(state)
	if rating != nil {
		r := int(*rating)
		o.Rating = &r
	}
	return &o, nil
}
