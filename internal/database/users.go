package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"biryani-club/internal/models"
)

func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	addresses := u.Addresses
	if addresses == nil {
		addresses = []string{}
	}

	err := db.Pool.QueryRow(ctx, InsertUserSQL,
		u.Username, u.FullName, u.Phone, u.LoyaltyPoints, addresses, u.IsBanned).Scan(&u.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: username %s taken", models.ErrInvalidInput, u.Username)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (db *DB) LoadUser(ctx context.Context, id int64) (*models.User, error) {
	return loadUser(ctx, db.Pool, GetUserSQL, id)
}

func (db *DB) UpdateUserLoyaltyPoints(ctx context.Context, id int64, delta int) error {
	return db.execUser(ctx, AddLoyaltyPointsSQL, id, delta)
}

func (db *DB) SetUserBanned(ctx context.Context, id int64, banned bool) error {
	return db.execUser(ctx, SetUserBannedSQL, id, banned)
}

// AddUserAddress appends address unless an equivalent one is saved. The
// row lock keeps concurrent checkouts from adding the same address twice.
func (db *DB) AddUserAddress(ctx context.Context, id int64, address string) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		u, err := loadUser(ctx, tx, GetUserForUpdateSQL, id)
		if err != nil {
			return err
		}
		if u.HasAddress(address) {
			return nil
		}
		if _, err := tx.Exec(ctx, AppendUserAddressSQL, id, strings.TrimSpace(address)); err != nil {
			return fmt.Errorf("failed to add address: %w", err)
		}
		return nil
	})
}

func (db *DB) execUser(ctx context.Context, sql string, id int64, arg interface{}) error {
	tag, err := db.Pool.Exec(ctx, sql, id, arg)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", models.ErrUserNotFound, id)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadUser(ctx context.Context, q querier, sql string, id int64) (*models.User, error) {
	var u models.User
	err := q.QueryRow(ctx, sql, id).Scan(
		&u.ID, &u.Username, &u.FullName, &u.Phone, &u.LoyaltyPoints, &u.Addresses, &u.IsBanned)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}
