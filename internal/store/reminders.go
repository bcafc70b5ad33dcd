package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
)

// Tag categorizes a reminder. The set is closed.
type Tag string

const (
	TagMedication  Tag = "MEDICATION"
	TagAppointment Tag = "APPOINTMENT"
	TagEvent       Tag = "EVENT"
	TagTask        Tag = "TASK"
	TagPersonal    Tag = "PERSONAL"
	TagWork        Tag = "WORK"
	TagFinance     Tag = "FINANCE"
	TagHealth      Tag = "HEALTH"
	TagTravel      Tag = "TRAVEL"
	TagSocial      Tag = "SOCIAL"
	TagEducation   Tag = "EDUCATION"
	TagLeisure     Tag = "LEISURE"
	TagOther       Tag = "OTHER"
)

// AllTags lists every tag in prompt order.
var AllTags = []Tag{
	TagMedication, TagAppointment, TagEvent, TagTask, TagPersonal, TagWork,
	TagFinance, TagHealth, TagTravel, TagSocial, TagEducation, TagLeisure, TagOther,
}

// ParseTag maps a token to a tag, case-insensitively. Anything else is OTHER.
func ParseTag(s string) Tag {
	t := Tag(strings.ToUpper(strings.TrimSpace(s)))
	if lo.Contains(AllTags, t) {
		return t
	}
	return TagOther
}

// ParseTags splits a comma-separated tag list. Unknown tokens become OTHER,
// duplicates are dropped keeping first appearance, and an empty list is {OTHER}.
func ParseTags(raw string) []Tag {
	tokens := lo.Filter(strings.Split(raw, ","), func(s string, _ int) bool {
		return strings.TrimSpace(s) != ""
	})
	if len(tokens) == 0 {
		return []Tag{TagOther}
	}
	return lo.Uniq(lo.Map(tokens, func(s string, _ int) Tag { return ParseTag(s) }))
}

func joinTags(tags []Tag) string {
	if len(tags) == 0 {
		return string(TagOther)
	}
	return strings.Join(lo.Map(tags, func(t Tag, _ int) string { return string(t) }), ",")
}

// Status is a reminder's completion state.
type Status string

const (
	StatusIncomplete Status = "INCOMPLETE"
	StatusComplete   Status = "COMPLETE"
)

// ParseStatus accepts either status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusIncomplete:
		return StatusIncomplete, true
	case StatusComplete:
		return StatusComplete, true
	}
	return "", false
}

// Reminder is a scheduled task. DueAt is always an absolute time.
type Reminder struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	DueAt       time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Tags        []Tag     `json:"tags"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReminderPatch holds the fields to change; nil fields are left alone.
type ReminderPatch struct {
	Title       *string
	DueAt       *time.Time
	Description *string
	Tags        []Tag
	Status      *Status
}

type reminderRow struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	Title       string `db:"title"`
	DueAt       int64  `db:"due_at"`
	Description string `db:"description"`
	Tags        string `db:"tags"`
	Status      string `db:"status"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r reminderRow) reminder() Reminder {
	return Reminder{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		DueAt:       time.UnixMilli(r.DueAt).UTC(),
		Description: r.Description,
		Tags:        ParseTags(r.Tags),
		Status:      Status(r.Status),
		CreatedAt:   time.UnixMilli(r.CreatedAt),
		UpdatedAt:   time.UnixMilli(r.UpdatedAt),
	}
}

func toReminderRow(r *Reminder) reminderRow {
	return reminderRow{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		DueAt:       r.DueAt.UnixMilli(),
		Description: r.Description,
		Tags:        joinTags(r.Tags),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.UnixMilli(),
		UpdatedAt:   r.UpdatedAt.UnixMilli(),
	}
}

const reminderColumns = `id, user_id, title, due_at, description, tags, status, created_at, updated_at`

// CreateReminder stores a new reminder. ID, status and timestamps are filled
// in when unset.
func (db *DB) CreateReminder(ctx context.Context, r *Reminder) error {
	if r.DueAt.IsZero() {
		return errors.New("create reminder: due time required")
	}
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	if r.Status == "" {
		r.Status = StatusIncomplete
	}
	if len(r.Tags) == 0 {
		r.Tags = []Tag{TagOther}
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now

	_, err := db.NamedExecContext(ctx, `
		INSERT INTO reminders (`+reminderColumns+`)
		VALUES (:id, :user_id, :title, :due_at, :description, :tags, :status, :created_at, :updated_at)
	`, toReminderRow(r))
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

// GetReminder returns a reminder by ID, or nil if not found.
func (db *DB) GetReminder(ctx context.Context, id string) (*Reminder, error) {
	var row reminderRow
	err := db.GetContext(ctx, &row, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	r := row.reminder()
	return &r, nil
}

// UpcomingReminders returns up to n reminders due strictly after now,
// soonest first.
func (db *DB) UpcomingReminders(ctx context.Context, userID string, now time.Time, n int) ([]Reminder, error) {
	var rows []reminderRow
	err := db.SelectContext(ctx, &rows, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE user_id = ? AND due_at > ?
		ORDER BY due_at ASC, id ASC
		LIMIT ?
	`, userID, now.UnixMilli(), n)
	if err != nil {
		return nil, fmt.Errorf("upcoming reminders: %w", err)
	}
	return lo.Map(rows, func(r reminderRow, _ int) Reminder { return r.reminder() }), nil
}

// ListReminders returns one page of the user's reminders, soonest first.
func (db *DB) ListReminders(ctx context.Context, userID string, page, size int) ([]Reminder, error) {
	var rows []reminderRow
	err := db.SelectContext(ctx, &rows, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE user_id = ?
		ORDER BY due_at ASC, id ASC
		LIMIT ? OFFSET ?
	`, userID, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return lo.Map(rows, func(r reminderRow, _ int) Reminder { return r.reminder() }), nil
}

// UpdateReminder applies the non-nil fields of patch and returns the result.
func (db *DB) UpdateReminder(ctx context.Context, id string, patch ReminderPatch) (*Reminder, error) {
	r, err := db.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("reminder %q: %w", id, ErrNotFound)
	}

	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.DueAt != nil {
		r.DueAt = *patch.DueAt
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Tags != nil {
		r.Tags = lo.Uniq(patch.Tags)
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	r.UpdatedAt = time.Now()

	_, err = db.NamedExecContext(ctx, `
		UPDATE reminders SET title = :title, due_at = :due_at, description = :description,
			tags = :tags, status = :status, updated_at = :updated_at
		WHERE id = :id
	`, toReminderRow(r))
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return r, nil
}

// DeleteReminder removes a reminder.
func (db *DB) DeleteReminder(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("reminder %q: %w", id, ErrNotFound)
	}
	return nil
}
