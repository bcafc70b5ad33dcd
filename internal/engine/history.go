package engine

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/lazypower/companion/internal/recall"
	"github.com/lazypower/companion/internal/store"
)

// historyLimit is how many recent messages go into a prompt.
const historyLimit = 10

// chronological returns a copy of newest-first messages in oldest-first order.
func chronological(newestFirst []store.Message) []store.Message {
	msgs := append([]store.Message(nil), newestFirst...)
	return lo.Reverse(msgs)
}

// renderHistory formats oldest-first messages as a transcript.
func renderHistory(msgs []store.Message) string {
	if len(msgs) == 0 {
		return noneSentinel
	}
	lines := lo.Map(msgs, func(m store.Message, _ int) string {
		if m.FromUser {
			return "User: " + m.Text
		}
		return "Assistant: " + m.Text
	})
	return strings.Join(lines, "\n")
}

// renderReminders formats reminders as title/description/due records.
func renderReminders(reminders []store.Reminder) string {
	if len(reminders) == 0 {
		return noneSentinel
	}
	blocks := lo.Map(reminders, func(r store.Reminder, _ int) string {
		return "Title: " + r.Title + "\n" +
			"Description: " + r.Description + "\n" +
			"Due: " + r.DueAt.UTC().Format(time.RFC3339)
	})
	return strings.Join(blocks, "\n\n")
}

// renderMemories formats recalled snippets one per line, best match first.
func renderMemories(mems []recall.Memory) string {
	if len(mems) == 0 {
		return noneSentinel
	}
	lines := lo.Map(mems, func(m recall.Memory, _ int) string {
		if m.Timestamp.IsZero() {
			return "- " + m.Text
		}
		return "- " + m.Text + " (" + m.Timestamp.UTC().Format("2006-01-02 15:04") + ")"
	})
	return strings.Join(lines, "\n")
}

// profileText returns the user's core information or the sentinel.
func profileText(u *store.User) string {
	if u == nil {
		return noneSentinel
	}
	return orNone(u.CoreInformation)
}
