// Package aggregator turns a stream of noisy barcode observations into a
// ranked, classified list of codes and a stop/continue decision.
//
// All state belongs to one scanning session: Start discards it, Stop freezes
// it. Every method is safe for concurrent use; updates are serialized behind
// a single mutex.
package aggregator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"scanserver/internal/logger"
	"scanserver/internal/model"
	"scanserver/internal/validator"

	"github.com/google/uuid"
)

// MalformedCode is the rejected-table key for observations without a code.
const MalformedCode = "<malformed>"

const (
	// DefaultErrorThreshold is the highest error score still sent to the validator.
	DefaultErrorThreshold = 0.25
	// DefaultStopCount is the count the leading code needs before scanning may stop.
	DefaultStopCount = 6
	// DefaultSymbology is passed to the validator.
	DefaultSymbology = "upc"
)

// Options configures an Aggregator. Zero values fall back to the defaults,
// so an ErrorThreshold of 0 or below means DefaultErrorThreshold.
type Options struct {
	ErrorThreshold float64
	StopCount      int
	Symbology      string
	Validator      validator.Validator
	Logger         *logger.Logger
	Now            func() time.Time
}

// Aggregator owns the accepted and rejected frequency tables of one session.
type Aggregator struct {
	mu sync.Mutex

	errorThreshold float64
	stopCount      int
	symbology      string
	validator      validator.Validator
	logger         *logger.Logger
	now            func() time.Time

	accepted      map[string]int
	rejected      map[string]int
	total         int
	rejectedTotal int
	scans         int
	startedAt     time.Time
	elapsed       time.Duration

	scanning   bool
	sessionID  string
	generation uint64
}

// New creates an Aggregator with a session already started.
func New(opts Options) *Aggregator {
	a := &Aggregator{
		errorThreshold: opts.ErrorThreshold,
		stopCount:      opts.StopCount,
		symbology:      opts.Symbology,
		validator:      opts.Validator,
		logger:         opts.Logger,
		now:            opts.Now,
	}
	if a.errorThreshold <= 0 {
		a.errorThreshold = DefaultErrorThreshold
	}
	if a.stopCount <= 0 {
		a.stopCount = DefaultStopCount
	}
	if a.symbology == "" {
		a.symbology = DefaultSymbology
	}
	if a.validator == nil {
		a.validator = validator.NewGTIN()
	}
	if a.logger == nil {
		a.logger = logger.Discard()
	}
	if a.now == nil {
		a.now = time.Now
	}

	a.Start()
	return a
}

// Start opens a fresh session: both tables and all timing are cleared.
// Calling it while scanning restarts the session.
func (a *Aggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.accepted = make(map[string]int)
	a.rejected = make(map[string]int)
	a.total = 0
	a.rejectedTotal = 0
	a.scans = 0
	a.startedAt = time.Time{}
	a.elapsed = 0
	a.scanning = true
	a.sessionID = uuid.NewString()
	a.generation++
}

// Stop freezes the session. Tables and timing stay readable.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanning = false
}

// Scanning reports whether the session still accepts observations.
func (a *Aggregator) Scanning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scanning
}

// Record adds one observation to the session tables. Observations arriving
// after the session stopped are ignored.
func (a *Aggregator) Record(rawCode string, errorScore float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.scanning {
		a.logger.Warning("Observation %q ignored: session %s is stopped", rawCode, a.sessionID)
		return
	}

	code, ok := a.classifyObservation(rawCode, errorScore)

	now := a.now()
	a.total++
	if !ok {
		a.rejectedTotal++
	}
	if a.startedAt.IsZero() {
		a.startedAt = now
	}
	a.elapsed = now.Sub(a.startedAt)

	if ok {
		a.accepted[code]++
	} else {
		a.rejected[code]++
	}
}

// RecordScan counts processed frames, decoded or not.
func (a *Aggregator) RecordScan(frames int) {
	if frames <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.scanning {
		a.scans += frames
	}
}

// classifyObservation returns the table key and whether it is accepted.
func (a *Aggregator) classifyObservation(rawCode string, errorScore float64) (string, bool) {
	if rawCode == "" {
		return MalformedCode, false
	}
	if errorScore < 0 || math.IsNaN(errorScore) {
		return rawCode, false
	}
	if errorScore > a.errorThreshold {
		return rawCode, false
	}

	res, err := a.validate(rawCode)
	if err != nil {
		a.logger.Error("Validator failed for %q: %v", rawCode, err)
		return rawCode, false
	}
	code := res.ModifiedCode
	if code == "" {
		code = rawCode
	}
	return code, res.Valid
}

func (a *Aggregator) validate(code string) (res validator.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()
	return a.validator.Validate(code, a.symbology)
}

// Snapshot recomputes the classification from the current tables. When the
// ranking has converged the session is stopped.
func (a *Aggregator) Snapshot() *model.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, converged := Classify(a.accepted, a.stopCount)
	if converged && a.scanning {
		a.scanning = false
		a.logger.Info("Session %s converged on %s after %d observations", a.sessionID, entries[0].Code, a.total)
	}

	rejected := make(map[string]int, len(a.rejected))
	for code, count := range a.rejected {
		rejected[code] = count
	}

	timing := model.Timing{
		AcceptedTotal: a.total - a.rejectedTotal,
		RejectedTotal: a.rejectedTotal,
		ScanCount:     a.scans,
		StartedAt:     a.startedAt,
		ElapsedMs:     a.elapsed.Milliseconds(),
	}

	return &model.Snapshot{
		SessionID:      a.sessionID,
		Generation:     a.generation,
		Scanning:       a.scanning,
		Converged:      converged,
		ShouldContinue: a.scanning && !converged,
		Entries:        entries,
		Rejected:       rejected,
		Timing:         timing,
		Rates:          RatesFor(timing),
	}
}
