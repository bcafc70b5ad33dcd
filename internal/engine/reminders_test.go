package engine

import (
	"bytes"
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/companion/internal/config"
	"github.com/lazypower/companion/internal/logging"
	"github.com/lazypower/companion/internal/store"
)

func TestParseRemindersSingle(t *testing.T) {
	got := ParseReminders("Task: Doctor\nDate: 2025-03-01\nDescription: Checkup\nTags: HEALTH, APPOINTMENT\n")
	require.Len(t, got, 1)
	assert.Equal(t, ReminderCandidate{
		Title: "Doctor", Date: "2025-03-01", Description: "Checkup", Tags: "HEALTH, APPOINTMENT",
	}, got[0])
}

func TestParseRemindersMultipleAndMarkup(t *testing.T) {
	completion := `Here are your reminders:

- **Task:** Pick up prescription
- **Date:** 2025-03-02 09:30
- **Description:** Blood pressure pills
- **Tags:** MEDICATION

TASK: Call Rosa
date: 2025-03-03
tags: SOCIAL
Description: Ask about the trip`

	got := ParseReminders(completion)
	require.Len(t, got, 2)
	assert.Equal(t, "Pick up prescription", got[0].Title)
	assert.Equal(t, "2025-03-02 09:30", got[0].Date)
	assert.Equal(t, "Blood pressure pills", got[0].Description)
	assert.Equal(t, "MEDICATION", got[0].Tags)

	// Description after Tags starts the next record, which never completes.
	assert.Equal(t, "Call Rosa", got[1].Title)
	assert.Empty(t, got[1].Description)
}

func TestParseRemindersIncomplete(t *testing.T) {
	assert.Empty(t, ParseReminders("Task: Doctor\nDescription: no date here"))
	assert.Empty(t, ParseReminders("none"))
	assert.Empty(t, ParseReminders(""))
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-03-01", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"2025-03-01 09:30", time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), true},
		{" 2025-03-01T18:00:00+02:00 ", time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC), true},
		{"next Tuesday", time.Time{}, false},
		{"2025-13-45", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ResolveDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestExtractRemindersStoresRecord(t *testing.T) {
	f := newFixture(t, script{replies: map[string]string{
		markReminder: "Task: Doctor\nDate: 2025-03-01\nDescription: Checkup\nTags: HEALTH, APPOINTMENT\n",
	}})
	ctx := context.Background()

	saved := f.engine.Reminders.Extract(ctx, "alice", "I have a checkup on March 1st")
	require.Len(t, saved, 1)

	stored, err := f.db.GetReminder(ctx, saved[0].ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Doctor", stored.Title)
	assert.Equal(t, "Checkup", stored.Description)
	assert.True(t, stored.DueAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, []store.Tag{store.TagHealth, store.TagAppointment}, stored.Tags)
	assert.Equal(t, store.StatusIncomplete, stored.Status)
}

func TestExtractRemindersWithTime(t *testing.T) {
	f := newFixture(t, script{replies: map[string]string{
		markReminder: "Task: Pharmacy\nDate: 2025-03-01 09:30\nDescription: Refill\nTags: MEDICATION",
	}})

	saved := f.engine.Reminders.Extract(context.Background(), "alice", "pharmacy at half nine on the first")
	require.Len(t, saved, 1)
	assert.True(t, saved[0].DueAt.Equal(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)))
}

func TestExtractRemindersDropsBadRecords(t *testing.T) {
	f := newFixture(t, script{replies: map[string]string{
		markReminder: "Task: Garbled\nDate: sometime soonish\nDescription: ?\nTags: OTHER\n" +
			"Task: \nDate: 2025-03-04\nDescription: no title\nTags: OTHER\n" +
			"Task: Good one\nDate: 2025-03-05\nDescription: ok\nTags: TASK\n",
	}})

	saved := f.engine.Reminders.Extract(context.Background(), "alice", "lots to do")
	require.Len(t, saved, 1)
	assert.Equal(t, "Good one", saved[0].Title)
}

func TestExtractRemindersTagFallback(t *testing.T) {
	f := newFixture(t, script{replies: map[string]string{
		markReminder: "Task: Mystery\nDate: 2025-03-01\nDescription: x\nTags: FOO\n" +
			"Task: Blank\nDate: 2025-03-02\nDescription: y\nTags:\n",
	}})

	saved := f.engine.Reminders.Extract(context.Background(), "alice", "two things")
	require.Len(t, saved, 2)
	assert.Equal(t, []store.Tag{store.TagOther}, saved[0].Tags)
	assert.Equal(t, []store.Tag{store.TagOther}, saved[1].Tags)
}

func TestExtractRemindersNone(t *testing.T) {
	for _, completion := range []string{"none", "None.", `"none"`} {
		var logs bytes.Buffer
		logger := logging.NewWithWriter(&logs, config.LoggingConfig{Level: "warn"})
		f := newLoggedFixture(t, script{replies: map[string]string{markReminder: completion}}, logger)
		assert.Empty(t, f.engine.Reminders.Extract(context.Background(), "alice", "how are you?"), completion)

		list, err := f.db.ListReminders(context.Background(), "alice", 0, 10)
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.Empty(t, logs.String(), "no warnings or errors for %q", completion)
	}
}

func TestExtractRemindersGarbledDateIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewWithWriter(&logs, config.LoggingConfig{Level: "warn"})
	f := newLoggedFixture(t, script{replies: map[string]string{
		markReminder: "Task: Garbled\nDate: whenever\nDescription: ?\nTags: OTHER\n",
	}}, logger)

	assert.Empty(t, f.engine.Reminders.Extract(context.Background(), "alice", "sometime"))
	assert.Contains(t, logs.String(), "reminder date unparsable")
}

func TestParseRemindersNonASCIIPrefix(t *testing.T) {
	// U+212A KELVIN SIGN folds to "k" but is three bytes wide.
	assert.Empty(t, ParseReminders("TAS\u212a: kelvin\nDate: 2025-03-01\nTags: OTHER\n"))

	got := ParseReminders("Task: Café visit\nDate: 2025-03-02\nDescription: crème brûlée\nTags: SOCIAL\n")
	require.Len(t, got, 1)
	assert.Equal(t, "Café visit", got[0].Title)
	assert.Equal(t, "crème brûlée", got[0].Description)
	assert.True(t, utf8.ValidString(got[0].Title))
}
