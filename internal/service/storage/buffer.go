package storage

import (
	"sync"
	"time"

	"scanserver/internal/config"
	"scanserver/internal/logger"
	"scanserver/internal/model"
	"scanserver/internal/repository"
)

// BufferService buffers finished session results in memory and periodically
// flushes them to the session repository.
type BufferService struct {
	results       []*model.SessionResult
	limit         int
	flushInterval time.Duration
	mu            sync.Mutex
	logger        *logger.Logger
	sessionRepo   repository.SessionRepository
	done          chan struct{}
	stopOnce      sync.Once
}

// defaultFlushInterval applies when the configured interval is not positive.
const defaultFlushInterval = 30 * time.Second

// NewBufferService creates a BufferService writing to sessionRepo.
func NewBufferService(config *config.Config, logger *logger.Logger, sessionRepo repository.SessionRepository) *BufferService {
	flushInterval := config.ResultFlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	return &BufferService{
		results:       make([]*model.SessionResult, 0),
		limit:         config.ResultBufferLimit,
		flushInterval: flushInterval,
		logger:        logger,
		sessionRepo:   sessionRepo,
		done:          make(chan struct{}),
	}
}

// Run starts a ticker loop that periodically flushes results until Stop.
func (s *BufferService) Run() {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-s.done:
			s.Flush()
			return
		}
	}
}

// Stop ends Run after a final flush.
func (s *BufferService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// AddResult queues a finished session. A full buffer is flushed right away.
func (s *BufferService) AddResult(result *model.SessionResult) {
	s.mu.Lock()
	s.results = append(s.results, result)
	full := s.limit > 0 && len(s.results) >= s.limit
	s.logger.Info("Buffered session %s (%s), %d pending", result.ID, result.Outcome, len(s.results))
	s.mu.Unlock()

	if full {
		s.Flush()
	}
}

// Pending returns the number of results not yet written.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Flush writes buffered results to the repository. Results that fail to
// save stay buffered for the next flush.
func (s *BufferService) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.results) == 0 || s.sessionRepo == nil {
		return
	}

	failed := s.results[:0]
	savedCount := 0
	for _, result := range s.results {
		if err := s.sessionRepo.Insert(result); err != nil {
			s.logger.Error("Error saving session %s to database: %v", result.ID, err)
			failed = append(failed, result)
			continue
		}
		savedCount++
	}

	s.logger.Info("Flushed %d session results to database", savedCount)
	s.results = failed
}
