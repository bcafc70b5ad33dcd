package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Location is a position reported by the user's device.
type Location struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"timestamp"`
}

type locationRow struct {
	ID         string  `db:"id"`
	UserID     string  `db:"user_id"`
	Latitude   float64 `db:"latitude"`
	Longitude  float64 `db:"longitude"`
	RecordedAt int64   `db:"recorded_at"`
}

func (r locationRow) location() Location {
	return Location{
		ID:         r.ID,
		UserID:     r.UserID,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		RecordedAt: time.UnixMilli(r.RecordedAt),
	}
}

// AddLocation records a position.
func (db *DB) AddLocation(ctx context.Context, l *Location) error {
	if l.ID == "" {
		l.ID = ulid.Make().String()
	}
	if l.RecordedAt.IsZero() {
		l.RecordedAt = time.Now()
	}
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO locations (id, user_id, latitude, longitude, recorded_at)
		VALUES (:id, :user_id, :latitude, :longitude, :recorded_at)
	`, locationRow{
		ID:         l.ID,
		UserID:     l.UserID,
		Latitude:   l.Latitude,
		Longitude:  l.Longitude,
		RecordedAt: l.RecordedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// LatestLocation returns the most recent position, or nil if none exist.
func (db *DB) LatestLocation(ctx context.Context, userID string) (*Location, error) {
	var row locationRow
	err := db.GetContext(ctx, &row, `
		SELECT id, user_id, latitude, longitude, recorded_at
		FROM locations WHERE user_id = ?
		ORDER BY recorded_at DESC, id DESC LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest location: %w", err)
	}
	l := row.location()
	return &l, nil
}

// ListLocations returns one page of positions, newest first.
func (db *DB) ListLocations(ctx context.Context, userID string, page, size int) ([]Location, error) {
	var rows []locationRow
	err := db.SelectContext(ctx, &rows, `
		SELECT id, user_id, latitude, longitude, recorded_at
		FROM locations WHERE user_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	locs := make([]Location, len(rows))
	for i, r := range rows {
		locs[i] = r.location()
	}
	return locs, nil
}
