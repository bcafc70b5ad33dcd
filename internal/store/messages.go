package store

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Channel separates the regular conversation from the cognitive game.
type Channel string

const (
	ChannelChat Channel = "chat"
	ChannelGame Channel = "game"
)

// Message is one side of a turn. Messages are append-only.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Channel   Channel   `json:"channel"`
	Text      string    `json:"text"`
	FromUser  bool      `json:"from_user"`
	CreatedAt time.Time `json:"timestamp"`
}

type messageRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Channel   string `db:"channel"`
	Text      string `db:"text"`
	FromUser  bool   `db:"from_user"`
	CreatedAt int64  `db:"created_at"`
}

func (r messageRow) message() Message {
	return Message{
		ID:        r.ID,
		UserID:    r.UserID,
		Channel:   Channel(r.Channel),
		Text:      r.Text,
		FromUser:  r.FromUser,
		CreatedAt: time.UnixMilli(r.CreatedAt),
	}
}

// AddMessage appends a message, filling in ID and CreatedAt when unset.
func (db *DB) AddMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Channel == "" {
		m.Channel = ChannelChat
	}

	_, err := db.NamedExecContext(ctx, `
		INSERT INTO messages (id, user_id, channel, text, from_user, created_at)
		VALUES (:id, :user_id, :channel, :text, :from_user, :created_at)
	`, messageRow{
		ID:        m.ID,
		UserID:    m.UserID,
		Channel:   string(m.Channel),
		Text:      m.Text,
		FromUser:  m.FromUser,
		CreatedAt: m.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// RecentMessages returns up to n messages for the user, newest first.
func (db *DB) RecentMessages(ctx context.Context, userID string, ch Channel, n int) ([]Message, error) {
	return db.ListMessages(ctx, userID, ch, 0, n)
}

// ListMessages returns one page of messages, newest first.
func (db *DB) ListMessages(ctx context.Context, userID string, ch Channel, page, size int) ([]Message, error) {
	var rows []messageRow
	// ULIDs are monotonic, so id breaks ties between messages in the same millisecond.
	err := db.SelectContext(ctx, &rows, `
		SELECT id, user_id, channel, text, from_user, created_at
		FROM messages
		WHERE user_id = ? AND channel = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, string(ch), size, page*size)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	msgs := make([]Message, len(rows))
	for i, r := range rows {
		msgs[i] = r.message()
	}
	return msgs, nil
}

// DeleteMessage removes a message from the given channel.
func (db *DB) DeleteMessage(ctx context.Context, ch Channel, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM messages WHERE id = ? AND channel = ?", id, string(ch))
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("message %q: %w", id, ErrNotFound)
	}
	return nil
}
