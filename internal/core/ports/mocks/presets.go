package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
)

// PresetStore is a thread-safe in-memory implementation of ports.PresetStore.
type PresetStore struct {
	mu      sync.RWMutex
	presets map[string]domain.UserPreset

	// GetUserPresetFn allows overriding GetUserPreset behavior.
	GetUserPresetFn func(ctx context.Context, userID string) (*domain.UserPreset, error)
}

// NewPresetStore creates a new mock preset store.
func NewPresetStore() *PresetStore {
	return &PresetStore{
		presets: make(map[string]domain.UserPreset),
	}
}

// GetUserPreset returns the stored preset or errors.ErrNotFound.
func (s *PresetStore) GetUserPreset(ctx context.Context, userID string) (*domain.UserPreset, error) {
	if s.GetUserPresetFn != nil {
		return s.GetUserPresetFn(ctx, userID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presets[userID]
	if !ok {
		return nil, errors.ErrNotFound
	}

	return &p, nil
}

// UpsertUserPreset stores the preset, replacing any previous value.
func (s *PresetStore) UpsertUserPreset(_ context.Context, preset *domain.UserPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *preset
	p.UpdatedAt = time.Now().UTC()
	s.presets[p.UserID] = p

	return nil
}

// Set stores a preset directly.
func (s *PresetStore) Set(userID, preset, moodDefault string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.presets[userID] = domain.UserPreset{UserID: userID, Preset: preset, MoodDefault: moodDefault}
}
