// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"

	"github.com/lueurxax/diary-replier/internal/core/domain"
)

// DiaryLogWriter persists finished pipeline runs.
type DiaryLogWriter interface {
	SaveDiaryLog(ctx context.Context, log *domain.DiaryLog) (int64, error)
}

// DiaryLogReader lists persisted pipeline runs, newest first.
// An empty userID lists every user.
type DiaryLogReader interface {
	ListDiaryLogs(ctx context.Context, userID string, limit int) ([]domain.DiaryLog, error)
}

// DiaryLogStore combines diary log read and write operations.
type DiaryLogStore interface {
	DiaryLogWriter
	DiaryLogReader
}

// PresetReader reads per-user presets. A missing preset returns errors.ErrNotFound.
type PresetReader interface {
	GetUserPreset(ctx context.Context, userID string) (*domain.UserPreset, error)
}

// PresetWriter stores per-user presets with last-write-wins semantics.
type PresetWriter interface {
	UpsertUserPreset(ctx context.Context, preset *domain.UserPreset) error
}

// PresetStore combines preset read and write operations.
type PresetStore interface {
	PresetReader
	PresetWriter
}

// UsageStore persists daily LLM token usage.
type UsageStore interface {
	IncrementLLMUsage(ctx context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error
}

// Pinger reports backend liveness for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is the full persistence surface implemented by each storage backend.
type Store interface {
	DiaryLogStore
	PresetStore
	UsageStore
	Pinger
	Close()
}
