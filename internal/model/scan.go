package model

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Status is the display classification of a distinct accepted code.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPerfect Status = "perfect"
	StatusSingle  Status = "single"
	StatusCluster Status = "cluster"
	// StatusInvalid marks entries coming from the rejected table.
	StatusInvalid Status = "invalid"
)

// GarbageStatus builds the "garbage-<tier>" label.
func GarbageStatus(tier int) Status {
	return Status("garbage-" + strconv.Itoa(tier))
}

// Observation is one decoder-reported detection.
type Observation struct {
	Code       string  `json:"code"`
	ErrorScore float64 `json:"error"`
}

// Entry is one ranked code of the accepted table.
type Entry struct {
	Code   string `json:"code"`
	Count  int    `json:"count"`
	Status Status `json:"status"`
}

// Timing holds the per-session counters.
type Timing struct {
	AcceptedTotal int       `json:"accepted_total"`
	RejectedTotal int       `json:"rejected_total"`
	ScanCount     int       `json:"scan_count"`
	StartedAt     time.Time `json:"started_at"`
	ElapsedMs     int64     `json:"elapsed_ms"`
}

// Rates are throughput figures; NaN means "not available yet".
type Rates struct {
	Accept float64
	Detect float64
	Scan   float64
}

// MarshalJSON renders NaN rates as null.
func (r Rates) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Accept *float64 `json:"accept_per_sec"`
		Detect *float64 `json:"detect_per_sec"`
		Scan   *float64 `json:"scan_per_sec"`
	}{finite(r.Accept), finite(r.Detect), finite(r.Scan)})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Snapshot is what the display consumes after every recompute.
type Snapshot struct {
	SessionID      string         `json:"session_id"`
	Generation     uint64         `json:"generation"`
	Scanning       bool           `json:"scanning"`
	Converged      bool           `json:"converged"`
	ShouldContinue bool           `json:"should_continue"`
	Entries        []Entry        `json:"entries"`
	Rejected       map[string]int `json:"rejected"`
	Timing         Timing         `json:"timing"`
	Rates          Rates          `json:"rates"`
}

// Winner returns the converged entry, if the ranking has one.
func (s *Snapshot) Winner() (Entry, bool) {
	if len(s.Entries) == 0 {
		return Entry{}, false
	}
	top := s.Entries[0]
	if top.Status == StatusPerfect || top.Status == StatusSingle {
		return top, true
	}
	return Entry{}, false
}
