package memory

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/companion/internal/recall"
)

// Handler returns the recall service HTTP API:
// POST /remember, POST /recall, GET /health.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "embedder": s.EmbedderModel()})
	})
	r.Post("/remember", s.handleRemember)
	r.Post("/recall", s.handleRecall)
	return r
}

func (s *Service) handleRemember(w http.ResponseWriter, r *http.Request) {
	var req recall.RememberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and text required"})
		return
	}

	if err := s.Remember(r.Context(), req.UserID, req.Text, req.Timestamp); err != nil {
		s.logger.Error("remember failed", "user", req.UserID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "remember failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

func (s *Service) handleRecall(w http.ResponseWriter, r *http.Request) {
	var q recall.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if q.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id required"})
		return
	}

	mems, err := s.Recall(r.Context(), q)
	if err != nil {
		s.logger.Error("recall failed", "user", q.UserID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "recall failed"})
		return
	}
	if len(mems) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"related_memories": recall.None})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"related_memories": mems})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
