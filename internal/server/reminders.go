package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/companion/internal/engine"
	"github.com/lazypower/companion/internal/store"
)

const (
	reminderPageSize    = 10
	upcomingLimit       = 10
	defaultLocationPage = 20
	maxLocationPage     = 100
)

type reminderRequest struct {
	UserID      string   `json:"user_id"`
	Title       *string  `json:"title"`
	Timestamp   *string  `json:"timestamp"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	Status      *string  `json:"status"`
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || req.Title == nil || strings.TrimSpace(*req.Title) == "" || req.Timestamp == nil {
		writeError(w, http.StatusBadRequest, "user_id, title and timestamp required")
		return
	}
	due, ok := engine.ResolveDate(*req.Timestamp)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid timestamp")
		return
	}

	rem := store.Reminder{
		UserID: req.UserID,
		Title:  strings.TrimSpace(*req.Title),
		DueAt:  due,
		Tags:   store.ParseTags(strings.Join(req.Tags, ",")),
	}
	if req.Description != nil {
		rem.Description = *req.Description
	}
	if req.Status != nil {
		st, ok := store.ParseStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		rem.Status = st
	}

	if err := s.db.CreateReminder(r.Context(), &rem); err != nil {
		s.logger.Error("create reminder", "user", req.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "create reminder failed")
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	page := pageParam(r)

	list, err := s.db.ListReminders(r.Context(), userID, page, reminderPageSize)
	if err != nil {
		s.logger.Error("list reminders", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "list reminders failed")
		return
	}
	if list == nil {
		list = []store.Reminder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": page, "reminders": list})
}

func (s *Server) handleUpcomingReminders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	list, err := s.db.UpcomingReminders(r.Context(), userID, time.Now(), upcomingLimit)
	if err != nil {
		s.logger.Error("upcoming reminders", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "list reminders failed")
		return
	}
	if list == nil {
		list = []store.Reminder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": list})
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var patch store.ReminderPatch
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		patch.Title = &title
	}
	if req.Timestamp != nil {
		due, ok := engine.ResolveDate(*req.Timestamp)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid timestamp")
			return
		}
		patch.DueAt = &due
	}
	patch.Description = req.Description
	if req.Tags != nil {
		patch.Tags = store.ParseTags(strings.Join(req.Tags, ","))
	}
	if req.Status != nil {
		st, ok := store.ParseStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		patch.Status = &st
	}

	rem, err := s.db.UpdateReminder(r.Context(), chi.URLParam(r, "id"), patch)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "reminder not found")
		return
	}
	if err != nil {
		s.logger.Error("update reminder", "err", err)
		writeError(w, http.StatusInternalServerError, "update reminder failed")
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteReminder(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "reminder not found")
		return
	}
	if err != nil {
		s.logger.Error("delete reminder", "err", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string     `json:"user_id"`
		Latitude  *float64   `json:"latitude"`
		Longitude *float64   `json:"longitude"`
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "user_id, latitude and longitude required")
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	loc := store.Location{UserID: req.UserID, Latitude: *req.Latitude, Longitude: *req.Longitude}
	if req.Timestamp != nil {
		loc.RecordedAt = *req.Timestamp
	}
	if err := s.db.AddLocation(r.Context(), &loc); err != nil {
		s.logger.Error("add location", "user", req.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "add location failed")
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	size := defaultLocationPage
	if n, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && n > 0 {
		size = min(n, maxLocationPage)
	}
	page := pageParam(r)

	list, err := s.db.ListLocations(r.Context(), userID, page, size)
	if err != nil {
		s.logger.Error("list locations", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "list locations failed")
		return
	}
	if list == nil {
		list = []store.Location{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": page, "size": size, "locations": list})
}
