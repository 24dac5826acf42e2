package service

import (
	"encoding/json"
	"sync"
	"time"

	"scanserver/internal/aggregator"
	"scanserver/internal/logger"
	"scanserver/internal/model"
)

// Broadcaster delivers display messages to viewers, in order.
type Broadcaster interface {
	Broadcast(message []byte)
}

// ResultSink receives finished sessions.
type ResultSink interface {
	AddResult(result *model.SessionResult)
}

// Message is the envelope sent to display viewers.
type Message struct {
	Type string          `json:"type"`
	Data *model.Snapshot `json:"data"`
}

// Manager connects decoder feeds to the aggregator and publishes every
// recomputed snapshot. Updates, resets and publishing share one lock, so a
// snapshot of a replaced session is never published after the reset.
type Manager struct {
	aggregator  *aggregator.Aggregator
	broadcaster Broadcaster
	results     ResultSink
	logger      *logger.Logger
	now         func() time.Time

	mu        sync.Mutex
	persisted uint64 // generation of the last session handed to results
}

func NewManager(agg *aggregator.Aggregator, broadcaster Broadcaster, results ResultSink, logger *logger.Logger) *Manager {
	manager := &Manager{
		aggregator:  agg,
		broadcaster: broadcaster,
		results:     results,
		logger:      logger,
		now:         time.Now,
	}

	snap := agg.Snapshot()
	manager.publish(snap)
	manager.logger.Info("🎬 Manager started - session %s", snap.SessionID)
	return manager
}

// HandleObservation records one decoded frame and publishes the new snapshot.
func (m *Manager) HandleObservation(code string, errorScore float64) *model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.record(code, errorScore)
}

// HandleObservations records a batch in order. Once the session converges
// the rest of the batch is ignored, as a stopped camera would not have seen it.
func (m *Manager) HandleObservations(observations []model.Observation) (*model.Snapshot, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var snap *model.Snapshot
	recorded := 0
	for _, o := range observations {
		if !m.aggregator.Scanning() {
			break
		}
		snap = m.record(o.Code, o.ErrorScore)
		recorded++
	}
	if snap == nil {
		snap = m.aggregator.Snapshot()
	}
	return snap, recorded
}

func (m *Manager) record(code string, errorScore float64) *model.Snapshot {
	m.aggregator.Record(code, errorScore)
	snap := m.aggregator.Snapshot()
	if snap.Converged {
		m.finish(snap, model.OutcomeConverged)
	}
	m.publish(snap)
	return snap
}

// HandleScans counts processed frames for the scan rate.
func (m *Manager) HandleScans(frames int) *model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.aggregator.RecordScan(frames)
	snap := m.aggregator.Snapshot()
	m.publish(snap)
	return snap
}

// StartSession discards the current session and opens a new one.
func (m *Manager) StartSession() *model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.aggregator.Snapshot()
	m.finish(previous, model.OutcomeSuperseded)

	m.aggregator.Start()
	snap := m.aggregator.Snapshot()
	m.logger.Info("▶️  Session %s started", snap.SessionID)
	m.publish(snap)
	return snap
}

// StopSession freezes the current session.
func (m *Manager) StopSession() *model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.aggregator.Stop()
	snap := m.aggregator.Snapshot()
	m.finish(snap, model.OutcomeStopped)
	m.logger.Info("⏹️  Session %s stopped", snap.SessionID)
	m.publish(snap)
	return snap
}

// Snapshot returns the current classification without changing anything.
func (m *Manager) Snapshot() *model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aggregator.Snapshot()
}

// finish hands a session to the result sink once. Sessions without any
// observation are not kept.
func (m *Manager) finish(snap *model.Snapshot, outcome model.Outcome) {
	if m.persisted == snap.Generation {
		return
	}
	if snap.Timing.AcceptedTotal+snap.Timing.RejectedTotal == 0 {
		return
	}
	m.persisted = snap.Generation

	if m.results == nil {
		return
	}
	result := model.NewSessionResult(snap, outcome, m.now())
	m.results.AddResult(result)
	m.logger.Info("Session %s %s: code=%q accepted=%d rejected=%d",
		result.ID, outcome, result.Code, result.AcceptedTotal, result.RejectedTotal)
}

func (m *Manager) publish(snap *model.Snapshot) {
	if m.broadcaster == nil {
		return
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		m.logger.Error("Error encoding snapshot: %v", err)
		return
	}
	m.broadcaster.Broadcast(data)
}

// EncodeSnapshot wraps snap in the viewer message envelope.
func EncodeSnapshot(snap *model.Snapshot) ([]byte, error) {
	return json.Marshal(Message{Type: "snapshot", Data: snap})
}
