package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/lazypower/companion/internal/engine"
	"github.com/lazypower/companion/internal/store"
)

const historyPageSize = 30

// errTurnFailed is all a client learns about a failed turn; details go to the log.
const errTurnFailed = "could not generate a reply, please try again"

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	if req.Username == "" {
		req.Username = req.UserID
	}

	u, err := s.db.CreateUser(r.Context(), req.UserID, req.Username)
	if errors.Is(err, store.ErrExists) {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	if err != nil {
		s.logger.Error("create user", "user", req.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "create user failed")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.db.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.logger.Error("get user", "err", err)
		writeError(w, http.StatusInternalServerError, "load user failed")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type askRequest struct {
	UserID    string   `json:"user_id"`
	Text      string   `json:"text"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func decodeAsk(w http.ResponseWriter, r *http.Request) (*askRequest, bool) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return nil, false
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.UserID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "user_id and text required")
		return nil, false
	}
	return &req, true
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	loc := s.turnLocation(r, req)
	reply, err := s.engine.Respond(r.Context(), req.UserID, req.Text, loc)
	if err != nil {
		s.logger.Error("chat turn failed", "user", req.UserID, "err", err)
		writeError(w, http.StatusBadGateway, errTurnFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// turnLocation uses the coordinates sent with the turn, recording them, or
// falls back to the user's latest stored position.
func (s *Server) turnLocation(r *http.Request, req *askRequest) *engine.Location {
	ctx := r.Context()
	if req.Latitude != nil && req.Longitude != nil {
		l := &store.Location{UserID: req.UserID, Latitude: *req.Latitude, Longitude: *req.Longitude}
		if err := s.db.AddLocation(ctx, l); err != nil {
			s.logger.Warn("record turn location", "user", req.UserID, "err", err)
		}
		return &engine.Location{Latitude: l.Latitude, Longitude: l.Longitude}
	}

	latest, err := s.db.LatestLocation(ctx, req.UserID)
	if err != nil {
		s.logger.Warn("load latest location", "user", req.UserID, "err", err)
		return nil
	}
	if latest == nil {
		return nil
	}
	return &engine.Location{Latitude: latest.Latitude, Longitude: latest.Longitude}
}

func (s *Server) handleGameAsk(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	reply, err := s.engine.RespondGame(r.Context(), req.UserID, req.Text)
	if err != nil {
		s.logger.Error("game turn failed", "user", req.UserID, "err", err)
		writeError(w, http.StatusBadGateway, errTurnFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleIntroduce(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}
	if !s.engine.Introduce(r.Context(), req.UserID, req.Text) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": engine.IntroductionReply})
}

// handleHistory serves one page of a channel, chronological within the page.
// Page 0 holds the most recent messages.
func (s *Server) handleHistory(ch store.Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id required")
			return
		}
		page := pageParam(r)

		msgs, err := s.db.ListMessages(r.Context(), userID, ch, page, historyPageSize)
		if err != nil {
			s.logger.Error("list messages", "user", userID, "channel", ch, "err", err)
			writeError(w, http.StatusInternalServerError, "load history failed")
			return
		}
		if msgs == nil {
			msgs = []store.Message{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"page":     page,
			"messages": lo.Reverse(msgs),
		})
	}
}

func (s *Server) handleDeleteMessage(ch store.Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.db.DeleteMessage(r.Context(), ch, chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		if err != nil {
			s.logger.Error("delete message", "err", err)
			writeError(w, http.StatusInternalServerError, "delete failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
