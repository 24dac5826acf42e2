package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"scanserver/internal/logger"
	"scanserver/internal/model"
	"scanserver/internal/service"
)

// maxFeedBody bounds a single decoder feed request.
const maxFeedBody = 1 << 20

type observationRequest struct {
	Code  string   `json:"code"`
	Error *float64 `json:"error"`
}

type scansRequest struct {
	Frames int `json:"frames"`
}

type observationResponse struct {
	Recorded int             `json:"recorded"`
	Snapshot *model.Snapshot `json:"snapshot"`
}

// ObservationsHandler accepts decoded frames from a decoder feed, either a
// single {"code","error"} object or an array of them.
func ObservationsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxFeedBody))
		if err != nil {
			logger.Error("Error reading observation body: %v", err)
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}

		var requests []observationRequest
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &requests)
		} else {
			var single observationRequest
			err = json.Unmarshal(trimmed, &single)
			requests = []observationRequest{single}
		}
		if err != nil {
			http.Error(w, "Invalid observation JSON", http.StatusBadRequest)
			return
		}

		observations := make([]model.Observation, 0, len(requests))
		for _, req := range requests {
			observations = append(observations, toObservation(req))
		}

		snap, recorded := manager.HandleObservations(observations)
		writeJSON(w, http.StatusOK, observationResponse{Recorded: recorded, Snapshot: snap}, logger)
	}
}

// toObservation marks a missing error score as malformed (-1) so the
// observation is still counted, as rejected.
func toObservation(req observationRequest) model.Observation {
	score := -1.0
	if req.Error != nil {
		score = *req.Error
	}
	return model.Observation{Code: req.Code, ErrorScore: score}
}

// ScansHandler counts processed frames, decoded or not.
func ScansHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := scansRequest{Frames: 1}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(io.LimitReader(r.Body, maxFeedBody)).Decode(&req); err != nil && err != io.EOF {
				http.Error(w, "Invalid scans JSON", http.StatusBadRequest)
				return
			}
		}
		if req.Frames <= 0 {
			http.Error(w, "frames must be positive", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, manager.HandleScans(req.Frames), logger)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
