package handler

import (
	"errors"
	"net/http"
	"strconv"
	"scanserver/internal/logger"
	"scanserver/internal/model"
	"scanserver/internal/repository"

	"github.com/gorilla/mux"
)

type sessionsPage struct {
	Sessions    []model.SessionResult `json:"sessions"`
	Length      int                   `json:"length"`
	TotalPages  int                   `json:"total_pages"`
	CurrentPage int                   `json:"current_page"`
	Limit       int                   `json:"limit"`
}

// GetSessionsHandler returns a filtered, paged list of finished sessions.
func GetSessionsHandler(sessionRepo repository.SessionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		offset := (page - 1) * limit
		if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
			offset = v
			page = offset/limit + 1
		}

		filter := &model.SessionFilter{
			Outcome: model.Outcome(q.Get("outcome")),
			Code:    q.Get("code"),
			Limit:   limit,
			Offset:  offset,
		}

		sessions, err := sessionRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying sessions from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := sessionRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting sessions: %v", err)
			totalCount = len(sessions)
		}

		writeJSON(w, http.StatusOK, sessionsPage{
			Sessions:    sessions,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}, logger)
	}
}

// GetSessionHandler returns one session with its entries.
func GetSessionHandler(sessionRepo repository.SessionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		session, err := sessionRepo.GetByID(id)
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("Error reading session %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, session, logger)
	}
}

// GetSessionEntriesHandler returns the ranking rows stored for one session.
func GetSessionEntriesHandler(entryRepo repository.EntryRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		entries, err := entryRepo.GetBySessionID(id)
		if err != nil {
			logger.Error("Error reading entries of session %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []model.SessionEntry{}
		}

		writeJSON(w, http.StatusOK, entries, logger)
	}
}

// DeleteSessionHandler removes one session from the history.
func DeleteSessionHandler(sessionRepo repository.SessionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		err := sessionRepo.Delete(id)
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("Failed to delete session %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted session: %s", id)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id}, logger)
	}
}

// ClearSessionsHandler empties the session history.
func ClearSessionsHandler(sessionRepo repository.SessionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessionRepo.DeleteAll(); err != nil {
			logger.Error("Error clearing session history: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Session history cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetStatsHandler returns counts per outcome and the most scanned codes.
func GetStatsHandler(sessionRepo repository.SessionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := sessionRepo.GetStats()
		if err != nil {
			logger.Error("Error reading session stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats, logger)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
