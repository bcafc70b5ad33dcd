package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lazypower/companion/internal/recall"
	"github.com/lazypower/companion/internal/store"
)

const (
	upcomingLimit = 10
	recallTopK    = 5
)

// Recaller is the recall service as seen by the engine.
type Recaller interface {
	Remember(ctx context.Context, userID, text string, at time.Time) error
	Recall(ctx context.Context, q recall.Query) ([]recall.Memory, error)
}

// TurnContext is the prompt-ready context for one turn. Every block holds
// "none" when empty.
type TurnContext struct {
	Profile      string
	History      string
	Reminders    string
	Memories     string
	RefinedQuery string
}

// Assembler gathers the context blocks for a turn.
type Assembler struct {
	db       *store.DB
	recall   Recaller
	insights *InsightExtractor
	topK     int
	logger   *log.Logger
	now      func() time.Time
}

// Assemble builds all four blocks. profile is the already-rendered core
// information. Recall service failures degrade to "none"; a failed query
// refinement fails the turn.
func (a *Assembler) Assemble(ctx context.Context, userID, utterance, profile string) (*TurnContext, error) {
	history, err := a.History(ctx, userID, store.ChannelChat)
	if err != nil {
		return nil, err
	}
	reminders, err := a.UpcomingReminders(ctx, userID)
	if err != nil {
		return nil, err
	}

	query, err := a.insights.RefineQuery(ctx, utterance, history, profile)
	if err != nil {
		return nil, fmt.Errorf("refine memory query: %w", err)
	}

	return &TurnContext{
		Profile:      profile,
		History:      history,
		Reminders:    reminders,
		Memories:     a.Memories(ctx, userID, query),
		RefinedQuery: query,
	}, nil
}

// History renders the last messages of a channel, oldest first.
func (a *Assembler) History(ctx context.Context, userID string, ch store.Channel) (string, error) {
	msgs, err := a.db.RecentMessages(ctx, userID, ch, historyLimit)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	return renderHistory(chronological(msgs)), nil
}

// UpcomingReminders renders the next reminders due after now.
func (a *Assembler) UpcomingReminders(ctx context.Context, userID string) (string, error) {
	reminders, err := a.db.UpcomingReminders(ctx, userID, a.now(), upcomingLimit)
	if err != nil {
		return "", fmt.Errorf("load reminders: %w", err)
	}
	return renderReminders(reminders), nil
}

// Memories asks the recall service for snippets related to query. It never
// fails: a "none" query skips the call and any error yields "none".
func (a *Assembler) Memories(ctx context.Context, userID, query string) string {
	if a.recall == nil || isNone(query) || query == "" {
		return noneSentinel
	}
	mems, err := a.recall.Recall(ctx, recall.Query{UserID: userID, Query: query, TopK: a.topK})
	if err != nil {
		a.logger.Warn("recall failed, continuing without memories", "user", userID, "err", err)
		return noneSentinel
	}
	return renderMemories(mems)
}
