package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lazypower/companion/internal/llm"
	"github.com/lazypower/companion/internal/store"
)

// InsightExtractor learns from a finished exchange: durable facts are merged
// into the user's core information, event-level snippets go to the recall
// service.
type InsightExtractor struct {
	db     *store.DB
	llm    llm.Client
	recall Recaller
	logger *log.Logger
	now    func() time.Time
}

// Extract runs both extractions for one question/answer pair. It returns
// false only when the user cannot be loaded; failures inside either
// extraction are logged and do not affect the other.
func (x *InsightExtractor) Extract(ctx context.Context, userID, question, answer string) bool {
	user, err := x.db.GetUser(ctx, userID)
	if err != nil {
		x.logger.Error("load user for insights", "user", userID, "err", err)
		return false
	}
	if user == nil {
		x.logger.Debug("insights skipped, unknown user", "user", userID)
		return false
	}

	if err := x.mergeCoreFact(ctx, user, question, answer); err != nil {
		x.logger.Error("core fact extraction failed", "user", userID, "err", err)
	}
	if err := x.storeMemory(ctx, userID, question, answer); err != nil {
		x.logger.Error("memory extraction failed", "user", userID, "err", err)
	}
	return true
}

// mergeCoreFact extracts a new durable fact and, if there is one, rewrites
// the whole core information with it merged in. Concurrent turns for the
// same user race here; the last write wins.
func (x *InsightExtractor) mergeCoreFact(ctx context.Context, user *store.User, question, answer string) error {
	resp, err := x.llm.Complete(ctx, llm.CoreFactPrompt(question, answer))
	if err != nil {
		return fmt.Errorf("core fact: %w", err)
	}
	fact := cleanCompletion(resp.Content, maxSnippetChars)
	x.logger.Debug("core fact", "user", user.ID, "fact", fact)
	if fact == "" || isNone(fact) {
		return nil
	}

	resp, err = x.llm.Complete(ctx, llm.MergePrompt(user.CoreInformation, fact))
	if err != nil {
		return fmt.Errorf("merge core information: %w", err)
	}
	merged := cleanCompletion(resp.Content, maxProfileChars)
	if merged == "" || isNone(merged) {
		x.logger.Warn("empty merge result, profile unchanged", "user", user.ID)
		return nil
	}

	if err := x.db.UpdateCoreInformation(ctx, user.ID, merged); err != nil {
		return fmt.Errorf("save core information: %w", err)
	}
	x.logger.Info("core information updated", "user", user.ID)
	return nil
}

// storeMemory extracts an event-level snippet and forwards it to the recall
// service. Recall service failures are logged, not returned.
func (x *InsightExtractor) storeMemory(ctx context.Context, userID, question, answer string) error {
	resp, err := x.llm.Complete(ctx, llm.ShortTermMemoryPrompt(question, answer))
	if err != nil {
		return fmt.Errorf("short-term memory: %w", err)
	}
	snippet := cleanCompletion(resp.Content, maxSnippetChars)
	x.logger.Debug("memory snippet", "user", userID, "snippet", snippet)
	if snippet == "" || isNone(snippet) || x.recall == nil {
		return nil
	}

	if err := x.recall.Remember(ctx, userID, snippet, x.now()); err != nil {
		x.logger.Warn("remember failed", "user", userID, "err", err)
	}
	return nil
}

// RefineQuery rewrites an utterance into a memory-style sentence for recall.
// It returns "none" when the model finds nothing worth searching for.
func (x *InsightExtractor) RefineQuery(ctx context.Context, utterance, history, profile string) (string, error) {
	resp, err := x.llm.Complete(ctx, llm.MemoryQueryPrompt(utterance, history, profile))
	if err != nil {
		return "", err
	}
	query := cleanCompletion(resp.Content, maxSnippetChars)
	if query == "" || isNone(query) {
		return noneSentinel, nil
	}
	return query, nil
}
