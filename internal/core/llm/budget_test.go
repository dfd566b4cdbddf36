package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetTracker_Exceeded(t *testing.T) {
	bt := NewBudgetTracker(100, nil)

	assert.False(t, bt.Exceeded())

	bt.RecordTokens(99)
	assert.False(t, bt.Exceeded())

	bt.RecordTokens(1)
	assert.True(t, bt.Exceeded())

	tokens, limit, pct := bt.GetStatus()
	assert.Equal(t, int64(100), tokens)
	assert.Equal(t, int64(100), limit)
	assert.InDelta(t, 1.0, pct, 1e-9)
}

func TestBudgetTracker_Unlimited(t *testing.T) {
	bt := NewBudgetTracker(0, nil)
	bt.RecordTokens(1_000_000)

	assert.False(t, bt.Exceeded())
}

func TestBudgetTracker_Alerts(t *testing.T) {
	bt := NewBudgetTracker(10, nil)

	alerts := make(chan BudgetAlert, 2)
	bt.SetAlertCallback(func(a BudgetAlert) { alerts <- a })

	bt.RecordTokens(8)

	select {
	case a := <-alerts:
		assert.Equal(t, BudgetLevelWarning, a.Level)
	case <-time.After(time.Second):
		t.Fatal("warning alert not fired")
	}

	bt.RecordTokens(5)

	select {
	case a := <-alerts:
		assert.Equal(t, BudgetLevelCritical, a.Level)
	case <-time.After(time.Second):
		t.Fatal("critical alert not fired")
	}
}

func TestBudgetTracker_DailyReset(t *testing.T) {
	day := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)

	bt := NewBudgetTracker(10, nil)
	bt.now = func() time.Time { return day }
	bt.lastResetDate = bt.today()

	bt.RecordTokens(10)
	require.True(t, bt.Exceeded())

	day = day.Add(2 * time.Hour)

	assert.False(t, bt.Exceeded())

	tokens, _, _ := bt.GetStatus()
	assert.Zero(t, tokens)
}
