package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/diary-replier/internal/core/domain"
)

// DiaryLogStore is a thread-safe in-memory implementation of ports.DiaryLogStore.
type DiaryLogStore struct {
	mu     sync.RWMutex
	logs   []domain.DiaryLog
	nextID int64

	// SaveDiaryLogFn allows overriding SaveDiaryLog behavior.
	SaveDiaryLogFn func(ctx context.Context, log *domain.DiaryLog) (int64, error)
}

// NewDiaryLogStore creates a new mock diary log store.
func NewDiaryLogStore() *DiaryLogStore {
	return &DiaryLogStore{}
}

// SaveDiaryLog appends the log and returns its id.
func (s *DiaryLogStore) SaveDiaryLog(ctx context.Context, log *domain.DiaryLog) (int64, error) {
	if s.SaveDiaryLogFn != nil {
		return s.SaveDiaryLogFn(ctx, log)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *log
	stored.ID = s.nextID
	s.logs = append(s.logs, stored)

	return stored.ID, nil
}

// ListDiaryLogs returns logs newest first.
func (s *DiaryLogStore) ListDiaryLogs(_ context.Context, userID string, limit int) ([]domain.DiaryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DiaryLog, 0, len(s.logs))

	for i := len(s.logs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if userID != "" && s.logs[i].UserID != userID {
			continue
		}

		out = append(out, s.logs[i])
	}

	return out, nil
}

// Logs returns a copy of every stored log in insertion order.
func (s *DiaryLogStore) Logs() []domain.DiaryLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.DiaryLog(nil), s.logs...)
}
