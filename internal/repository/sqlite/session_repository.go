package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"scanserver/internal/model"
	"scanserver/internal/repository"
)

// SessionRepository implements repository.SessionRepository for SQLite.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, started_at, ended_at, outcome, code, status,
	accepted_total, rejected_total, scan_count, elapsed_ms`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*model.SessionResult, error) {
	var s model.SessionResult
	var outcome, status string
	err := row.Scan(&s.ID, &s.StartedAt, &s.EndedAt, &outcome, &s.Code, &status,
		&s.AcceptedTotal, &s.RejectedTotal, &s.ScanCount, &s.ElapsedMs)
	if err != nil {
		return nil, err
	}
	s.Outcome = model.Outcome(outcome)
	s.Status = model.Status(status)
	return &s, nil
}

// Insert adds a session and its entries in one transaction.
func (r *SessionRepository) Insert(session *model.SessionResult) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.StartedAt, session.EndedAt, string(session.Outcome), session.Code, string(session.Status),
		session.AcceptedTotal, session.RejectedTotal, session.ScanCount, session.ElapsedMs)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if err := insertEntries(tx, session.ID, session.Entries); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a session and its entries.
func (r *SessionRepository) GetByID(id string) (*model.SessionResult, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	session, err := scanSession(r.db.Conn().QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.Entries, err = queryEntries(r.db.Conn(), id)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func buildFilter(filter *model.SessionFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return where, args
	}

	if filter.Outcome != "" {
		where += " AND outcome = ?"
		args = append(args, string(filter.Outcome))
	}

	if filter.Code != "" {
		where += " AND code = ?"
		args = append(args, filter.Code)
	}
	return where, args
}

// GetAll retrieves sessions, newest first, without their entries.
func (r *SessionRepository) GetAll(filter *model.SessionFilter) ([]model.SessionResult, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildFilter(filter)
	query := `SELECT ` + sessionColumns + ` FROM sessions` + where + ` ORDER BY ended_at DESC, id`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.SessionResult{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}

	return sessions, rows.Err()
}

// GetTotalCount returns the number of sessions matching the filter.
func (r *SessionRepository) GetTotalCount(filter *model.SessionFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildFilter(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM sessions`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// GetStats returns session counts per outcome and the most frequent winning codes.
func (r *SessionRepository) GetStats() (*model.SessionStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.SessionStats{
		PerOutcome: make(map[string]int),
		TopCodes:   make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&stats.TotalSessions); err != nil {
		return nil, err
	}

	rows, err := r.db.Conn().Query(`SELECT outcome, COUNT(*) FROM sessions GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats.PerOutcome[outcome] = count
	}

	codeRows, err := r.db.Conn().Query(`
		SELECT code, COUNT(*) as cnt
		FROM sessions
		WHERE code != ''
		GROUP BY code
		ORDER BY cnt DESC, code
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer codeRows.Close()

	for codeRows.Next() {
		var code string
		var count int
		if err := codeRows.Scan(&code, &count); err != nil {
			return nil, err
		}
		stats.TopCodes[code] = count
	}

	return stats, nil
}

// Delete removes a session and its entries.
func (r *SessionRepository) Delete(id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM session_entries WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session entries: %w", err)
	}

	result, err := r.db.Conn().Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteAll removes every session and entry.
func (r *SessionRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM session_entries`); err != nil {
		return fmt.Errorf("failed to delete session entries: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	return nil
}
