package model

import (
	"sort"
	"time"
)

// Outcome tells how a scanning session ended.
type Outcome string

const (
	OutcomeConverged  Outcome = "converged"
	OutcomeStopped    Outcome = "stopped"
	OutcomeSuperseded Outcome = "superseded"
)

// SessionResult is the stored record of a finished session.
type SessionResult struct {
	ID            string         `json:"id"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       time.Time      `json:"ended_at"`
	Outcome       Outcome        `json:"outcome"`
	Code          string         `json:"code"`
	Status        Status         `json:"status"`
	AcceptedTotal int            `json:"accepted_total"`
	RejectedTotal int            `json:"rejected_total"`
	ScanCount     int            `json:"scan_count"`
	ElapsedMs     int64          `json:"elapsed_ms"`
	Entries       []SessionEntry `json:"entries,omitempty"`
}

// SessionEntry is one code of a stored session, accepted or rejected.
type SessionEntry struct {
	SessionID string `json:"-"`
	Code      string `json:"code"`
	Count     int    `json:"count"`
	Status    Status `json:"status"`
	Rejected  bool   `json:"rejected"`
}

// SessionFilter narrows session history queries.
type SessionFilter struct {
	Outcome Outcome
	Code    string
	Limit   int
	Offset  int
}

// NewSessionResult freezes a snapshot into a storable record.
func NewSessionResult(snap *Snapshot, outcome Outcome, endedAt time.Time) *SessionResult {
	result := &SessionResult{
		ID:            snap.SessionID,
		StartedAt:     snap.Timing.StartedAt,
		EndedAt:       endedAt,
		Outcome:       outcome,
		AcceptedTotal: snap.Timing.AcceptedTotal,
		RejectedTotal: snap.Timing.RejectedTotal,
		ScanCount:     snap.Timing.ScanCount,
		ElapsedMs:     snap.Timing.ElapsedMs,
	}
	if result.StartedAt.IsZero() {
		result.StartedAt = endedAt
	}
	if winner, ok := snap.Winner(); ok {
		result.Code = winner.Code
		result.Status = winner.Status
	}

	for _, e := range snap.Entries {
		result.Entries = append(result.Entries, SessionEntry{
			SessionID: snap.SessionID, Code: e.Code, Count: e.Count, Status: e.Status,
		})
	}
	codes := make([]string, 0, len(snap.Rejected))
	for code := range snap.Rejected {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		count := snap.Rejected[code]
		result.Entries = append(result.Entries, SessionEntry{
			SessionID: snap.SessionID, Code: code, Count: count, Status: StatusInvalid, Rejected: true,
		})
	}
	return result
}

// SessionStats summarizes the stored session history.
type SessionStats struct {
	TotalSessions int            `json:"total_sessions"`
	PerOutcome    map[string]int `json:"per_outcome"`
	TopCodes      map[string]int `json:"top_codes"`
}
