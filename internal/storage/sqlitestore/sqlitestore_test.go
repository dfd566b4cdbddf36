package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/core/ports"
)

var _ ports.Store = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()

	s, err := Open(ctx, filepath.Join(t.TempDir(), "app.db"), nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Migrate(ctx))

	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ", nil)
	require.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestStore_DiaryLogs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	first := &domain.DiaryLog{
		CreatedAt:   time.Now(),
		UserID:      "u1",
		EntryDate:   &date,
		PresetUsed:  domain.PresetWarm,
		MoodHint:    "happy",
		InputText:   "오늘은 좋았다",
		ReplyShort:  "좋았네요.",
		ReplyNormal: "정말 좋은 하루였네요.",
		Valence:     domain.ValencePositive,
		Emotions:    []string{domain.EmotionHappy},
		Keywords:    []string{"오늘은", "좋았다"},
		Summary:     "오늘은 좋았다",
		Flags:       map[string]bool{domain.FlagCrisis: false, domain.FlagPIIDetected: false},
		LatencyMS:   12,
	}

	id1, err := s.SaveDiaryLog(ctx, first)
	require.NoError(t, err)

	id2, err := s.SaveDiaryLog(ctx, &domain.DiaryLog{
		UserID:     "u2",
		InputText:  "힘들다",
		Valence:    domain.ValenceNegative,
		SafetyFlag: true,
		Flags:      map[string]bool{domain.FlagCrisis: true},
	})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	all, err := s.ListDiaryLogs(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, id2, all[0].ID)
	assert.True(t, all[0].SafetyFlag)
	assert.Empty(t, all[0].ReplyNormal)
	assert.Nil(t, all[0].EntryDate)
	assert.Empty(t, all[0].Emotions)

	mine, err := s.ListDiaryLogs(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	got := mine[0]
	assert.Equal(t, id1, got.ID)
	assert.Equal(t, first.InputText, got.InputText)
	assert.Equal(t, first.ReplyNormal, got.TargetReply())
	assert.Equal(t, first.Emotions, got.Emotions)
	assert.Equal(t, first.Keywords, got.Keywords)
	assert.Equal(t, first.Flags, got.Flags)
	assert.Equal(t, int64(12), got.LatencyMS)
	require.NotNil(t, got.EntryDate)
	assert.Equal(t, "2024-03-05", got.EntryDate.Format(dateLayout))
	assert.WithinDuration(t, first.CreatedAt, got.CreatedAt, time.Second)

	limited, err := s.ListDiaryLogs(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_Presets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetUserPreset(ctx, "u1")
	require.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, s.UpsertUserPreset(ctx, &domain.UserPreset{UserID: "u1", Preset: domain.PresetCoach, MoodDefault: "차분"}))
	require.NoError(t, s.UpsertUserPreset(ctx, &domain.UserPreset{UserID: "u1", Preset: domain.PresetShort}))

	p, err := s.GetUserPreset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.PresetShort, p.Preset)
	assert.Empty(t, p.MoodDefault)
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestStore_LLMUsage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrementLLMUsage(ctx, "openai", "gpt-4o-mini", "reply_pair", 100, 50, 0.01))
	require.NoError(t, s.IncrementLLMUsage(ctx, "openai", "gpt-4o-mini", "reply_pair", 10, 5, 0.001))
	require.NoError(t, s.IncrementLLMUsage(ctx, "anthropic", "claude", "chunk_map", 1, 1, 0))

	total, err := s.DailyTokenUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(167), total)

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	total, err = s.DailyTokenUsage(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStore_Ping(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
