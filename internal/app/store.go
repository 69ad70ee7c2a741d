package app

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"certquiz-service/internal/domain"
)

// KVStore abstracts the durable key-value store (in-memory, Redis, etc).
// Get reports absence via ok=false; Set and Delete are best-effort from the
// caller's point of view.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

const (
	sessionKey = "quiz:session"
	historyKey = "quiz:history"

	// historyLimit caps the study log; oldest entries drop first.
	historyLimit = 100
)

// SessionStore persists the single resumable session slot and the capped
// history log. Write and delete failures are logged and swallowed: losing
// resumability is acceptable degradation, losing in-memory progress is not.
type SessionStore struct {
	kv  KVStore
	now func() time.Time
}

func NewSessionStore(kv KVStore) *SessionStore {
	return &SessionStore{kv: kv, now: time.Now}
}

// NewSessionStoreWithClock is test-only for deterministic timestamps.
func NewSessionStoreWithClock(kv KVStore, now func() time.Time) *SessionStore {
	return &SessionStore{kv: kv, now: now}
}

// SaveSession writes the full session under the well-known slot, stamping
// LastUpdated with the write time.
func (s *SessionStore) SaveSession(ctx context.Context, session *domain.QuizSession) {
	snapshot := *session
	snapshot.LastUpdated = s.now()
	data, err := json.Marshal(&snapshot)
	if err != nil {
		log.Printf("failed to encode session: %v", err)
		return
	}
	if err := s.kv.Set(ctx, sessionKey, data); err != nil {
		log.Printf("failed to save session: %v", err)
	}
}

// LoadSession reads the slot. Absent or corrupt data both report no session;
// a broken persisted blob silently forfeits resumability, never crashes the
// resume path.
func (s *SessionStore) LoadSession(ctx context.Context) (*domain.QuizSession, bool) {
	data, ok, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		log.Printf("failed to load session: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var session domain.QuizSession
	if err := json.Unmarshal(data, &session); err != nil {
		log.Printf("discarding corrupt session: %v", err)
		return nil, false
	}
	if !session.Valid() {
		log.Printf("discarding structurally invalid session")
		return nil, false
	}
	return &session, true
}

// ClearSession deletes the slot.
func (s *SessionStore) ClearSession(ctx context.Context) {
	if err := s.kv.Delete(ctx, sessionKey); err != nil {
		log.Printf("failed to clear session: %v", err)
	}
}

// AppendHistory appends one entry to the study log, keeping only the most
// recent entries up to the cap.
func (s *SessionStore) AppendHistory(ctx context.Context, entry domain.HistoryEntry) {
	history := s.LoadHistory(ctx)
	history = append(history, entry)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	data, err := json.Marshal(history)
	if err != nil {
		log.Printf("failed to encode history: %v", err)
		return
	}
	if err := s.kv.Set(ctx, historyKey, data); err != nil {
		log.Printf("failed to save history: %v", err)
	}
}

// LoadHistory reads the study log; corrupt data reads as empty.
func (s *SessionStore) LoadHistory(ctx context.Context) []domain.HistoryEntry {
	data, ok, err := s.kv.Get(ctx, historyKey)
	if err != nil {
		log.Printf("failed to load history: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	var history []domain.HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		log.Printf("discarding corrupt history: %v", err)
		return nil
	}
	return history
}
