package llm

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/platform/observability"
)

// Budget threshold percentages.
const (
	BudgetThresholdWarning  = 0.8
	BudgetThresholdCritical = 1.0
)

// Alert levels.
const (
	BudgetLevelWarning  = "warning"
	BudgetLevelCritical = "critical"
)

// Date format for daily budget reset tracking.
const dateFormatYMD = "2006-01-02"

// BudgetAlert represents an alert triggered by budget thresholds.
type BudgetAlert struct {
	Level       string
	DailyTokens int64
	BudgetLimit int64
	Percentage  float64
	Timestamp   time.Time
}

// BudgetTracker tracks daily LLM token usage. Once the daily limit is reached
// the registry stops calling providers until the UTC date changes.
type BudgetTracker struct {
	mu            sync.Mutex
	dailyTokens   int64
	dailyLimit    int64
	lastResetDate string
	warningFired  bool
	criticalFired bool
	alertCallback func(alert BudgetAlert)
	now           func() time.Time
	logger        *zerolog.Logger
}

// NewBudgetTracker creates a new budget tracker. A limit of 0 disables the budget.
func NewBudgetTracker(dailyLimit int64, logger *zerolog.Logger) *BudgetTracker {
	bt := &BudgetTracker{
		dailyLimit: dailyLimit,
		now:        time.Now,
		logger:     logger,
	}
	bt.lastResetDate = bt.today()

	return bt
}

// SetAlertCallback sets the callback function for budget alerts.
func (bt *BudgetTracker) SetAlertCallback(callback func(alert BudgetAlert)) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.alertCallback = callback
}

// SetDailyLimit updates the daily token budget limit.
func (bt *BudgetTracker) SetDailyLimit(limit int64) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.dailyLimit = limit
}

// Exceeded reports whether today's usage reached a positive limit.
func (bt *BudgetTracker) Exceeded() bool {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.checkDateResetLocked()

	return bt.dailyLimit > 0 && bt.dailyTokens >= bt.dailyLimit
}

// RecordTokens adds tokens to the daily count and checks budget thresholds.
func (bt *BudgetTracker) RecordTokens(tokens int) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.checkDateResetLocked()

	bt.dailyTokens += int64(tokens)
	observability.LLMDailyTokens.Set(float64(bt.dailyTokens))

	if bt.dailyLimit <= 0 {
		return
	}

	percentage := float64(bt.dailyTokens) / float64(bt.dailyLimit)

	if !bt.criticalFired && percentage >= BudgetThresholdCritical {
		bt.criticalFired = true
		bt.fireAlert(BudgetLevelCritical, percentage)

		return
	}

	if !bt.warningFired && percentage >= BudgetThresholdWarning {
		bt.warningFired = true
		bt.fireAlert(BudgetLevelWarning, percentage)
	}
}

// fireAlert logs the alert and notifies the callback.
func (bt *BudgetTracker) fireAlert(level string, percentage float64) {
	alert := BudgetAlert{
		Level:       level,
		DailyTokens: bt.dailyTokens,
		BudgetLimit: bt.dailyLimit,
		Percentage:  percentage,
		Timestamp:   bt.now().UTC(),
	}

	if bt.logger != nil {
		bt.logger.Warn().
			Str("level", level).
			Int64("daily_tokens", bt.dailyTokens).
			Int64("budget_limit", bt.dailyLimit).
			Float64("percentage", percentage).
			Msg("LLM budget threshold reached")
	}

	if bt.alertCallback != nil {
		// Fire callback in goroutine to avoid blocking
		go bt.alertCallback(alert)
	}
}

func (bt *BudgetTracker) today() string {
	return bt.now().UTC().Format(dateFormatYMD)
}

// checkDateResetLocked resets daily counters on a new UTC date (assumes lock held).
func (bt *BudgetTracker) checkDateResetLocked() {
	today := bt.today()
	if bt.lastResetDate == today {
		return
	}

	bt.dailyTokens = 0
	bt.warningFired = false
	bt.criticalFired = false
	bt.lastResetDate = today
	observability.LLMDailyTokens.Set(0)

	if bt.logger != nil {
		bt.logger.Info().
			Str("date", today).
			Msg("LLM budget tracker reset for new day")
	}
}

// GetStatus returns the current budget status.
func (bt *BudgetTracker) GetStatus() (dailyTokens, dailyLimit int64, percentage float64) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.checkDateResetLocked()

	dailyTokens = bt.dailyTokens
	dailyLimit = bt.dailyLimit

	if dailyLimit > 0 {
		percentage = float64(dailyTokens) / float64(dailyLimit)
	}

	return dailyTokens, dailyLimit, percentage
}
