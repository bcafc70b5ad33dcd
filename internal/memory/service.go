package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/lazypower/companion/internal/recall"
	"github.com/lazypower/companion/internal/store"
)

const (
	// MinSimilarity is the lowest cosine similarity a recalled memory may have.
	MinSimilarity = 0.3
	// MaxTopK caps the number of memories one recall returns.
	MaxTopK = 10
)

// Service stores memory snippets and ranks them against queries. With an
// Embedder (Ollama) vectors are computed once and cached in the store;
// without one a TF-IDF model is fitted per request over the user's memories.
type Service struct {
	db       *store.DB
	embedder Embedder
	logger   *log.Logger
}

// NewService creates a recall service. embedder may be nil.
func NewService(db *store.DB, embedder Embedder, logger *log.Logger) *Service {
	return &Service{db: db, embedder: embedder, logger: logger}
}

// EmbedderModel names the embedder in use.
func (s *Service) EmbedderModel() string {
	if s.embedder == nil {
		return "tfidf"
	}
	return s.embedder.Model()
}

// Remember stores a snippet. A zero timestamp means now.
func (s *Service) Remember(ctx context.Context, userID, text string, at time.Time) error {
	userID = strings.TrimSpace(userID)
	text = strings.TrimSpace(text)
	if userID == "" || text == "" {
		return errors.New("remember: user_id and text are required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	m := &store.Memory{UserID: userID, Text: text, RecordedAt: at}
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			// The vector is filled in lazily on the next recall.
			s.logger.Warn("embed memory failed", "user", userID, "err", err)
		} else {
			m.Embedding, m.Model = vec, s.embedder.Model()
		}
	}
	if err := s.db.AddMemory(ctx, m); err != nil {
		return fmt.Errorf("remember: %w", err)
	}
	s.logger.Debug("memory stored", "user", userID, "id", m.ID)
	return nil
}

// Recall returns up to q.TopK memories with similarity at least
// MinSimilarity, most similar first.
func (s *Service) Recall(ctx context.Context, q recall.Query) ([]recall.Memory, error) {
	topK := q.TopK
	if topK <= 0 || topK > MaxTopK {
		topK = MaxTopK
	}

	mems, err := s.db.UserMemories(ctx, q.UserID, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}
	if len(mems) == 0 || strings.TrimSpace(q.Query) == "" {
		return nil, nil
	}

	embedder, vectors, err := s.vectors(ctx, mems, q.Query)
	if err != nil {
		return nil, err
	}
	queryVec, err := embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		mem store.Memory
		sim float64
	}
	var hits []scored
	for i, m := range mems {
		sim := CosineSimilarity(queryVec, vectors[i])
		if sim >= MinSimilarity {
			hits = append(hits, scored{m, sim})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].sim > hits[j].sim })
	if len(hits) > topK {
		hits = hits[:topK]
	}

	s.logger.Debug("recall", "user", q.UserID, "candidates", len(mems), "hits", len(hits))
	return lo.Map(hits, func(h scored, _ int) recall.Memory {
		return recall.Memory{Text: h.mem.Text, Timestamp: h.mem.RecordedAt.UTC(), Similarity: h.sim}
	}), nil
}

// vectors returns the embedder to use for this request and one vector per memory.
func (s *Service) vectors(ctx context.Context, mems []store.Memory, query string) (Embedder, [][]float64, error) {
	if s.embedder == nil {
		docs := append(lo.Map(mems, func(m store.Memory, _ int) string { return m.Text }), query)
		tfidf := NewTFIDFEmbedder(docs, 512)
		vecs := make([][]float64, len(mems))
		for i, m := range mems {
			vecs[i], _ = tfidf.Embed(ctx, m.Text)
		}
		return tfidf, vecs, nil
	}

	model := s.embedder.Model()
	vecs := make([][]float64, len(mems))
	for i, m := range mems {
		if m.Embedding != nil && m.Model == model {
			vecs[i] = m.Embedding
			continue
		}
		vec, err := s.embedder.Embed(ctx, m.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("embed memory %s: %w", m.ID, err)
		}
		if err := s.db.SaveMemoryVector(ctx, m.ID, vec, model); err != nil {
			s.logger.Warn("cache memory vector failed", "id", m.ID, "err", err)
		}
		vecs[i] = vec
	}
	return s.embedder, vecs, nil
}
