package handler

import (
	"net/http"
	"scanserver/internal/logger"
	"scanserver/internal/service"
)

// StartSessionHandler resets the tables and starts scanning.
func StartSessionHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, manager.StartSession(), logger)
	}
}

// StopSessionHandler freezes the current session.
func StopSessionHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, manager.StopSession(), logger)
	}
}

// SnapshotHandler returns the current ranking, rejected table and timing.
func SnapshotHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		writeJSON(w, http.StatusOK, manager.Snapshot(), logger)
	}
}
