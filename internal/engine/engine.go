package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lazypower/companion/internal/config"
	"github.com/lazypower/companion/internal/llm"
	"github.com/lazypower/companion/internal/logging"
	"github.com/lazypower/companion/internal/store"
)

// IntroductionReply is the assistant side of an introduction exchange.
const IntroductionReply = "Thanks for introducing yourself. I'll remember that."

// Options configures an Engine. The zero value runs without a recall service
// on default worker settings, logging nowhere, on the wall clock.
type Options struct {
	Recall     Recaller
	RecallTopK int
	Worker     config.WorkerConfig
	Logger     *log.Logger
	Now        func() time.Time
}

// Engine runs conversation turns: it assembles context, generates the reply,
// persists the exchange, extracts reminders inline and hands insight
// extraction to the background pool.
type Engine struct {
	DB        *store.DB
	LLM       llm.Client
	Assembler *Assembler
	Reminders *ReminderExtractor
	Insights  *InsightExtractor

	pool   *Pool
	logger *log.Logger
	now    func() time.Time
}

// Location is an optional position attached to a turn.
type Location struct {
	Latitude  float64
	Longitude float64
}

func (l *Location) String() string {
	if l == nil {
		return noneSentinel
	}
	return fmt.Sprintf("latitude %.5f, longitude %.5f", l.Latitude, l.Longitude)
}

// New creates an Engine and starts its worker pool. Call Close to drain it.
func New(db *store.DB, client llm.Client, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.RecallTopK <= 0 {
		opts.RecallTopK = recallTopK
	}
	if opts.Worker == (config.WorkerConfig{}) {
		opts.Worker = config.Default().Worker
	}

	insights := &InsightExtractor{
		db:     db,
		llm:    client,
		recall: opts.Recall,
		logger: logging.For(logger, "insights"),
		now:    now,
	}
	return &Engine{
		DB:  db,
		LLM: client,
		Assembler: &Assembler{
			db:       db,
			recall:   opts.Recall,
			insights: insights,
			topK:     opts.RecallTopK,
			logger:   logging.For(logger, "context"),
			now:      now,
		},
		Reminders: &ReminderExtractor{
			db:     db,
			llm:    client,
			logger: logging.For(logger, "reminders"),
			now:    now,
		},
		Insights: insights,
		pool:     NewPool(opts.Worker, logging.For(logger, "worker")),
		logger:   logging.For(logger, "engine"),
		now:      now,
	}
}

// Close stops accepting background work and waits for queued tasks.
func (e *Engine) Close() {
	e.pool.Close()
}

// Respond runs one conversation turn and returns the assistant's reply.
// Only a failed query refinement, reply generation or message write fails
// the turn; every other step degrades.
func (e *Engine) Respond(ctx context.Context, userID, utterance string, loc *Location) (string, error) {
	user, err := e.DB.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	profile := profileText(user)

	tc, err := e.Assembler.Assemble(ctx, userID, utterance, profile)
	if err != nil {
		return "", err
	}

	now := e.now()
	prompt := llm.ReplyPrompt(llm.ReplyContext{
		Today:     now.Format("2006-01-02"),
		Profile:   tc.Profile,
		Memories:  tc.Memories,
		History:   tc.History,
		Reminders: tc.Reminders,
		Location:  loc.String(),
		Utterance: utterance,
	})
	e.logger.Debug("turn context", "user", userID, "refined_query", tc.RefinedQuery)

	resp, err := e.LLM.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	reply := strings.TrimSpace(resp.Content)
	e.logger.Debug("reply generated", "user", userID, "provider", resp.Provider, "tokens", resp.TokensUsed)

	if err := e.saveExchange(ctx, userID, store.ChannelChat, utterance, reply, now); err != nil {
		return "", err
	}

	e.Reminders.Extract(ctx, userID, utterance)

	e.pool.Submit("insights", func(ctx context.Context) {
		e.Insights.Extract(ctx, userID, utterance, reply)
	})

	return reply, nil
}

// RespondGame runs one cognitive game turn. It uses only the profile and the
// game channel's recent history: no recall, reminders or insight extraction.
func (e *Engine) RespondGame(ctx context.Context, userID, utterance string) (string, error) {
	user, err := e.DB.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	history, err := e.Assembler.History(ctx, userID, store.ChannelGame)
	if err != nil {
		return "", err
	}

	resp, err := e.LLM.Complete(ctx, llm.GamePrompt(profileText(user), utterance, history))
	if err != nil {
		return "", fmt.Errorf("generate game reply: %w", err)
	}
	reply := strings.TrimSpace(resp.Content)

	if err := e.saveExchange(ctx, userID, store.ChannelGame, utterance, reply, e.now()); err != nil {
		return "", err
	}
	return reply, nil
}

// Introduce learns from a self-introduction synchronously. It returns false
// when the user does not exist.
func (e *Engine) Introduce(ctx context.Context, userID, text string) bool {
	return e.Insights.Extract(ctx, userID, text, IntroductionReply)
}

// saveExchange stores the user's message and then the reply.
func (e *Engine) saveExchange(ctx context.Context, userID string, ch store.Channel, utterance, reply string, at time.Time) error {
	question := &store.Message{UserID: userID, Channel: ch, Text: utterance, FromUser: true, CreatedAt: at}
	if err := e.DB.AddMessage(ctx, question); err != nil {
		return fmt.Errorf("save user message: %w", err)
	}
	answer := &store.Message{UserID: userID, Channel: ch, Text: reply, FromUser: false, CreatedAt: at}
	if err := e.DB.AddMessage(ctx, answer); err != nil {
		return fmt.Errorf("save reply: %w", err)
	}
	return nil
}
