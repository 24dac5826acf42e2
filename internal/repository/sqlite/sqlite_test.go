package sqlite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scanserver/internal/model"
	"scanserver/internal/repository"
)

var (
	_ repository.SessionRepository = (*SessionRepository)(nil)
	_ repository.EntryRepository   = (*EntryRepository)(nil)
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "data", "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("Database file should exist")
	}
	return db
}

func testSession(id string, outcome model.Outcome, code string, ended time.Time) *model.SessionResult {
	return &model.SessionResult{
		ID:            id,
		StartedAt:     ended.Add(-2 * time.Second),
		EndedAt:       ended,
		Outcome:       outcome,
		Code:          code,
		Status:        model.StatusPerfect,
		AcceptedTotal: 6,
		RejectedTotal: 2,
		ScanCount:     40,
		ElapsedMs:     2000,
		Entries: []model.SessionEntry{
			{Code: code, Count: 6, Status: model.StatusPerfect},
			{Code: "123", Count: 2, Status: model.StatusInvalid, Rejected: true},
		},
	}
}

func TestSessionRepository_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)

	ended := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	if err := repo.Insert(testSession("s1", model.OutcomeConverged, "012345678905", ended)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID("s1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Code != "012345678905" || got.Outcome != model.OutcomeConverged || got.Status != model.StatusPerfect {
		t.Errorf("Unexpected session: %+v", got)
	}
	if got.AcceptedTotal != 6 || got.RejectedTotal != 2 || got.ScanCount != 40 || got.ElapsedMs != 2000 {
		t.Errorf("Unexpected counters: %+v", got)
	}
	if !got.EndedAt.Equal(ended) {
		t.Errorf("Expected ended_at %v, got %v", ended, got.EndedAt)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got.Entries))
	}
	if got.Entries[0].Rejected || !got.Entries[1].Rejected {
		t.Errorf("Expected accepted entry first, got %+v", got.Entries)
	}
	if got.Entries[0].SessionID != "s1" {
		t.Errorf("Expected entries bound to s1, got %q", got.Entries[0].SessionID)
	}
}

func TestSessionRepository_GetByIDNotFound(t *testing.T) {
	repo := NewSessionRepository(setupTestDB(t))

	if _, err := repo.GetByID("missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_GetAllWithFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)

	base := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	sessions := []*model.SessionResult{
		testSession("a", model.OutcomeConverged, "012345678905", base),
		testSession("b", model.OutcomeConverged, "036000291452", base.Add(time.Minute)),
		testSession("c", model.OutcomeStopped, "", base.Add(2*time.Minute)),
		testSession("d", model.OutcomeConverged, "012345678905", base.Add(3*time.Minute)),
	}
	for _, s := range sessions {
		if err := repo.Insert(s); err != nil {
			t.Fatalf("Insert %s failed: %v", s.ID, err)
		}
	}

	all, err := repo.GetAll(&model.SessionFilter{})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 4 || all[0].ID != "d" || all[3].ID != "a" {
		t.Errorf("Expected newest first, got %+v", all)
	}

	converged, err := repo.GetAll(&model.SessionFilter{Outcome: model.OutcomeConverged, Code: "012345678905"})
	if err != nil {
		t.Fatalf("GetAll with filter failed: %v", err)
	}
	if len(converged) != 2 {
		t.Errorf("Expected 2 matching sessions, got %d", len(converged))
	}

	page, err := repo.GetAll(&model.SessionFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("GetAll with paging failed: %v", err)
	}
	if len(page) != 2 || page[0].ID != "c" {
		t.Errorf("Unexpected page: %+v", page)
	}

	count, err := repo.GetTotalCount(&model.SessionFilter{Outcome: model.OutcomeConverged})
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 converged sessions, got %d", count)
	}
}

func TestSessionRepository_Stats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)

	base := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	for i, code := range []string{"012345678905", "012345678905", "036000291452", ""} {
		outcome := model.OutcomeConverged
		if code == "" {
			outcome = model.OutcomeSuperseded
		}
		if err := repo.Insert(testSession(fmt.Sprintf("s%d", i), outcome, code, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalSessions != 4 {
		t.Errorf("Expected 4 sessions, got %d", stats.TotalSessions)
	}
	if stats.PerOutcome["converged"] != 3 || stats.PerOutcome["superseded"] != 1 {
		t.Errorf("Unexpected outcome counts: %v", stats.PerOutcome)
	}
	if stats.TopCodes["012345678905"] != 2 || len(stats.TopCodes) != 2 {
		t.Errorf("Unexpected top codes: %v", stats.TopCodes)
	}
}

func TestSessionRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)
	entries := NewEntryRepository(db)

	now := time.Now().UTC()
	repo.Insert(testSession("keep", model.OutcomeConverged, "012345678905", now))
	repo.Insert(testSession("drop", model.OutcomeConverged, "036000291452", now))

	if err := repo.Delete("drop"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete("drop"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Second delete should report ErrNotFound, got %v", err)
	}

	left, err := entries.GetBySessionID("drop")
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("Expected entries removed with their session, got %d", len(left))
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	count, _ := repo.GetTotalCount(nil)
	if count != 0 {
		t.Errorf("Expected empty history, got %d sessions", count)
	}
}

func TestEntryRepository_GetBySessionID(t *testing.T) {
	db := setupTestDB(t)
	sessions := NewSessionRepository(db)
	repo := NewEntryRepository(db)

	session := testSession("s1", model.OutcomeStopped, "", time.Now().UTC())
	session.Entries = []model.SessionEntry{
		{Code: "111", Count: 3, Status: model.StatusWaiting},
		{Code: "bad", Count: 9, Status: model.StatusInvalid, Rejected: true},
		{Code: "222", Count: 3, Status: model.StatusWaiting},
		{Code: "333", Count: 5, Status: model.StatusWaiting},
	}
	if err := sessions.Insert(session); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetBySessionID("s1")
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	if len(got) != 4 || got[0].Code != "333" || got[1].Code != "111" || got[2].Code != "222" || got[3].Code != "bad" {
		t.Errorf("Expected ranked entries with rejected last, got %+v", got)
	}
	for _, e := range got {
		if e.SessionID != "s1" {
			t.Errorf("Entry %s stored under session %q", e.Code, e.SessionID)
		}
	}

	if err := sessions.Delete("s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, _ = repo.GetBySessionID("s1")
	if len(got) != 0 {
		t.Errorf("Expected entries to be deleted with their session, got %d", len(got))
	}
}

func TestDatabase_ConcurrentInserts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			s := testSession(fmt.Sprintf("concurrent-%d", idx), model.OutcomeConverged, "012345678905", time.Now().UTC())
			if err := repo.Insert(s); err != nil {
				t.Errorf("Concurrent insert %d failed: %v", idx, err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	count, err := repo.GetTotalCount(nil)
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 10 {
		t.Errorf("Expected 10 sessions, got %d", count)
	}
}
