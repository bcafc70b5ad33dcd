package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// User is a profile. CoreInformation is the single free-text paragraph of
// durable facts about the user; it is only ever replaced whole.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	CoreInformation string    `json:"core_information"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type userRow struct {
	ID              string `db:"id"`
	Username        string `db:"username"`
	CoreInformation string `db:"core_information"`
	CreatedAt       int64  `db:"created_at"`
	UpdatedAt       int64  `db:"updated_at"`
}

func (r userRow) user() *User {
	return &User{
		ID:              r.ID,
		Username:        r.Username,
		CoreInformation: r.CoreInformation,
		CreatedAt:       time.UnixMilli(r.CreatedAt),
		UpdatedAt:       time.UnixMilli(r.UpdatedAt),
	}
}

// CreateUser registers a user with an empty profile.
func (db *DB) CreateUser(ctx context.Context, id, username string) (*User, error) {
	existing, err := db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("user %q: %w", id, ErrExists)
	}

	now := time.Now().UnixMilli()
	row := userRow{ID: id, Username: username, CreatedAt: now, UpdatedAt: now}
	_, err = db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, core_information, created_at, updated_at)
		VALUES (:id, :username, :core_information, :created_at, :updated_at)
	`, row)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return row.user(), nil
}

// GetUser returns a user by ID, or nil if not found.
func (db *DB) GetUser(ctx context.Context, id string) (*User, error) {
	var row userRow
	err := db.GetContext(ctx, &row, `
		SELECT id, username, core_information, created_at, updated_at
		FROM users WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return row.user(), nil
}

// UpdateCoreInformation replaces the user's core information wholesale.
func (db *DB) UpdateCoreInformation(ctx context.Context, id, text string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE users SET core_information = ?, updated_at = ? WHERE id = ?
	`, text, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update core information: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	return nil
}
