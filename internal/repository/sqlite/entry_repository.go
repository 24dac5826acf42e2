package sqlite

import (
	"database/sql"
	"fmt"

	"scanserver/internal/model"
)

// EntryRepository implements repository.EntryRepository for SQLite. Entries
// are written and deleted together with their session by SessionRepository.
type EntryRepository struct {
	db *DB
}

// NewEntryRepository creates a new SQLite entry repository.
func NewEntryRepository(db *DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// GetBySessionID retrieves all entries of a session, ranked.
func (r *EntryRepository) GetBySessionID(sessionID string) ([]model.SessionEntry, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return queryEntries(r.db.Conn(), sessionID)
}

// insertEntries writes the entries of one session inside tx.
func insertEntries(tx *sql.Tx, sessionID string, entries []model.SessionEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO session_entries (session_id, code, count, status, rejected)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(sessionID, e.Code, e.Count, string(e.Status), e.Rejected); err != nil {
			return fmt.Errorf("failed to insert session entry: %w", err)
		}
	}
	return nil
}

func queryEntries(conn *sql.DB, sessionID string) ([]model.SessionEntry, error) {
	rows, err := conn.Query(`
		SELECT session_id, code, count, status, rejected
		FROM session_entries WHERE session_id = ?
		ORDER BY rejected, count DESC, code
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session entries: %w", err)
	}
	defer rows.Close()

	entries := []model.SessionEntry{}
	for rows.Next() {
		var e model.SessionEntry
		var status string
		if err := rows.Scan(&e.SessionID, &e.Code, &e.Count, &status, &e.Rejected); err != nil {
			return nil, fmt.Errorf("failed to scan session entry: %w", err)
		}
		e.Status = model.Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
