package engine

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lazypower/companion/internal/llm"
	"github.com/lazypower/companion/internal/store"
)

// ReminderCandidate is one record parsed from a reminder completion, before
// its date is resolved.
type ReminderCandidate struct {
	Title       string
	Date        string
	Description string
	Tags        string
}

type reminderField int

const (
	fieldTask reminderField = iota
	fieldDate
	fieldDescription
	fieldTags
)

var reminderPrefixes = []struct {
	prefix string
	field  reminderField
}{
	{"task:", fieldTask},
	{"date:", fieldDate},
	{"description:", fieldDescription},
	{"tags:", fieldTags},
}

// reminderDraft accumulates fields until the record is complete. Description
// is optional; a record closes as soon as task, date and tags have all been
// seen, whatever their order.
type reminderDraft struct {
	ReminderCandidate
	hasTask, hasDate, hasTags bool
}

func (d *reminderDraft) set(f reminderField, value string) {
	switch f {
	case fieldTask:
		d.Title, d.hasTask = value, true
	case fieldDate:
		d.Date, d.hasDate = value, true
	case fieldDescription:
		d.Description = value
	case fieldTags:
		d.Tags, d.hasTags = value, true
	}
}

func (d *reminderDraft) complete() bool {
	return d.hasTask && d.hasDate && d.hasTags
}

// ParseReminders reads Task/Date/Description/Tags records from a completion.
// Prefixes match case-insensitively; list markers and bold markup around a
// prefix are ignored, and lines that match no prefix are skipped. A
// Description that arrives after its record's Tags line belongs to the next
// record.
func ParseReminders(completion string) []ReminderCandidate {
	var out []ReminderCandidate
	var draft reminderDraft

	for _, line := range strings.Split(completion, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•# \t")
		line = strings.ReplaceAll(line, "**", "")

		for _, p := range reminderPrefixes {
			if len(line) >= len(p.prefix) && strings.EqualFold(line[:len(p.prefix)], p.prefix) {
				draft.set(p.field, strings.TrimSpace(line[len(p.prefix):]))
				break
			}
		}

		if draft.complete() {
			out = append(out, draft.ReminderCandidate)
			draft = reminderDraft{}
		}
	}
	return out
}

// Accepted reminder date layouts, tried in order. Date-only values are due
// at noon UTC.
var reminderLayouts = []struct {
	layout string
	noon   bool
}{
	{time.RFC3339, false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", true},
}

// ResolveDate turns a reminder date into an absolute time.
func ResolveDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range reminderLayouts {
		t, err := time.ParseInLocation(l.layout, s, time.UTC)
		if err != nil {
			continue
		}
		if l.noon {
			t = t.Add(12 * time.Hour)
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ReminderExtractor turns utterances into stored reminders.
type ReminderExtractor struct {
	db     *store.DB
	llm    llm.Client
	logger *log.Logger
	now    func() time.Time
}

// Extract asks the model for reminders in utterance and stores every one
// whose date resolves. It never fails: generation errors, unparsable dates
// and store errors are logged and the affected reminders skipped.
func (x *ReminderExtractor) Extract(ctx context.Context, userID, utterance string) []store.Reminder {
	prompt := llm.ReminderPrompt(x.now().Format("2006-01-02"), utterance)
	resp, err := x.llm.Complete(ctx, prompt)
	if err != nil {
		x.logger.Error("reminder extraction failed", "user", userID, "err", err)
		return nil
	}

	content := strings.TrimSpace(resp.Content)
	x.logger.Debug("reminder completion", "user", userID, "completion", content)
	if isNone(content) {
		return nil
	}

	var saved []store.Reminder
	for _, c := range ParseReminders(content) {
		if c.Title == "" {
			x.logger.Warn("reminder without title dropped", "user", userID, "date", c.Date)
			continue
		}
		due, ok := ResolveDate(c.Date)
		if !ok {
			x.logger.Warn("reminder date unparsable", "user", userID, "title", c.Title, "date", c.Date)
			continue
		}

		r := store.Reminder{
			UserID:      userID,
			Title:       c.Title,
			DueAt:       due,
			Description: c.Description,
			Tags:        store.ParseTags(c.Tags),
			Status:      store.StatusIncomplete,
		}
		if err := x.db.CreateReminder(ctx, &r); err != nil {
			x.logger.Error("save reminder failed", "user", userID, "title", c.Title, "err", err)
			continue
		}
		x.logger.Debug("reminder saved", "user", userID, "id", r.ID, "due", r.DueAt)
		saved = append(saved, r)
	}
	return saved
}
