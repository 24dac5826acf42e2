package repository

import (
	"errors"

	"scanserver/internal/model"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("not found")

// SessionRepository defines the interface for finished scanning sessions.
type SessionRepository interface {
	// Create operations
	Insert(session *model.SessionResult) error

	// Read operations
	GetByID(id string) (*model.SessionResult, error)
	GetAll(filter *model.SessionFilter) ([]model.SessionResult, error)
	GetTotalCount(filter *model.SessionFilter) (int, error)
	GetStats() (*model.SessionStats, error)

	// Delete operations
	Delete(id string) error
	DeleteAll() error
}

// EntryRepository reads the per-code rows of a stored session.
type EntryRepository interface {
	GetBySessionID(sessionID string) ([]model.SessionEntry, error)
}
