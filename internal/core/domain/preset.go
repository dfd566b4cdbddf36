package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/lueurxax/diary-replier/internal/core/errors"
)

// Reply presets.
const (
	PresetWarm  = "warm"
	PresetCoach = "coach"
	PresetShort = "short"
)

// DefaultPreset is used when nothing else selects a preset.
const DefaultPreset = PresetWarm

// NormalizePreset lowercases name and checks it against the known presets.
func NormalizePreset(name string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(name))

	switch p {
	case PresetWarm, PresetCoach, PresetShort:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidPreset, name)
	}
}

// UserPreset is the stored per-user reply preference.
type UserPreset struct {
	UserID      string    `json:"user_id"`
	Preset      string    `json:"preset"`
	MoodDefault string    `json:"mood_default,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DiaryLog is one persisted pipeline run.
type DiaryLog struct {
	ID          int64           `json:"id"`
	CreatedAt   time.Time       `json:"ts"`
	UserID      string          `json:"user_id,omitempty"`
	EntryDate   *time.Time      `json:"entry_date,omitempty"`
	PresetUsed  string          `json:"preset"`
	MoodHint    string          `json:"mood"`
	InputText   string          `json:"-"`
	ReplyShort  string          `json:"-"`
	ReplyNormal string          `json:"-"`
	Valence     string          `json:"valence"`
	Emotions    []string        `json:"emotions"`
	Keywords    []string        `json:"keywords"`
	Summary     string          `json:"summary"`
	SafetyFlag  bool            `json:"safety_flag"`
	Flags       map[string]bool `json:"flags,omitempty"`
	LatencyMS   int64           `json:"latency_ms"`
}

// TargetReply returns the reply used as a training target: normal, else short.
func (l DiaryLog) TargetReply() string {
	if l.ReplyNormal != "" {
		return l.ReplyNormal
	}

	return l.ReplyShort
}
