package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/oklog/ulid/v2"
)

// Memory is a short-term snippet held for the recall service. Embedding is
// nil until an embedder has produced one; Model names the embedder.
type Memory struct {
	ID         string
	UserID     string
	Text       string
	RecordedAt time.Time
	Embedding  []float64
	Model      string
}

type memoryRow struct {
	ID         string `db:"id"`
	UserID     string `db:"user_id"`
	Text       string `db:"text"`
	RecordedAt int64  `db:"recorded_at"`
	Embedding  []byte `db:"embedding"`
	Model      string `db:"model"`
}

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	if len(buf) == 0 {
		return nil
	}
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// AddMemory stores a snippet without an embedding.
func (db *DB) AddMemory(ctx context.Context, m *Memory) error {
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now()
	}
	var blob []byte
	if m.Embedding != nil {
		blob = encodeEmbedding(m.Embedding)
	}
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO memories (id, user_id, text, recorded_at, embedding, model)
		VALUES (:id, :user_id, :text, :recorded_at, :embedding, :model)
	`, memoryRow{
		ID:         m.ID,
		UserID:     m.UserID,
		Text:       m.Text,
		RecordedAt: m.RecordedAt.UnixMilli(),
		Embedding:  blob,
		Model:      m.Model,
	})
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// UserMemories returns the user's snippets oldest first, optionally bounded
// by an inclusive time window.
func (db *DB) UserMemories(ctx context.Context, userID string, from, to *time.Time) ([]Memory, error) {
	query := `SELECT id, user_id, text, recorded_at, embedding, model FROM memories WHERE user_id = ?`
	args := []any{userID}
	if from != nil {
		query += ` AND recorded_at >= ?`
		args = append(args, from.UnixMilli())
	}
	if to != nil {
		query += ` AND recorded_at <= ?`
		args = append(args, to.UnixMilli())
	}
	query += ` ORDER BY recorded_at ASC, id ASC`

	var rows []memoryRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("user memories: %w", err)
	}
	mems := make([]Memory, len(rows))
	for i, r := range rows {
		mems[i] = Memory{
			ID:         r.ID,
			UserID:     r.UserID,
			Text:       r.Text,
			RecordedAt: time.UnixMilli(r.RecordedAt),
			Embedding:  decodeEmbedding(r.Embedding),
			Model:      r.Model,
		}
	}
	return mems, nil
}

// SaveMemoryVector stores or replaces the embedding for a memory.
func (db *DB) SaveMemoryVector(ctx context.Context, id string, embedding []float64, model string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE memories SET embedding = ?, model = ? WHERE id = ?
	`, encodeEmbedding(embedding), model, id)
	if err != nil {
		return fmt.Errorf("save memory vector: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("memory %q: %w", id, ErrNotFound)
	}
	return nil
}
