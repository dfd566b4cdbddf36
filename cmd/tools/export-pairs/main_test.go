package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/ports/mocks"
)

func TestWritePairs(t *testing.T) {
	rows := []domain.DiaryLog{
		{ID: 3, InputText: "오늘은 좋았다", ReplyNormal: "다행이에요", Valence: "positive", Emotions: []string{"happy", "shy"}, Summary: "좋은 날"},
		{ID: 2, InputText: "답장 없음"},
		{ID: 1, InputText: "짧게", ReplyShort: "응원해요", Valence: "neutral"},
	}

	var buf bytes.Buffer

	count, err := writePairs(&buf, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"오늘은 좋았다", "다행이에요", "positive", "happy,shy", "좋은 날"}, records[1])
	assert.Equal(t, []string{"짧게", "응원해요", "neutral", "", ""}, records[2])
}

func TestExportPath(t *testing.T) {
	now := time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)

	assert.Equal(t, filepath.Join("exports", "pairs_20240305_0907.csv"), exportPath("exports", now))
}

func TestExportPairs_FiltersByUser(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewDiaryLogStore()

	_, err := store.SaveDiaryLog(ctx, &domain.DiaryLog{UserID: "a", InputText: "첫 일기", ReplyNormal: "답장 하나"})
	require.NoError(t, err)
	_, err = store.SaveDiaryLog(ctx, &domain.DiaryLog{UserID: "b", InputText: "둘째 일기", ReplyNormal: "답장 둘"})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	now := time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)

	path, count, err := exportPairs(ctx, store, exportConfig{outDir: dir, userID: "b"}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "둘째 일기")
	assert.NotContains(t, string(data), "첫 일기")
}
