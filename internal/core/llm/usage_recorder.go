package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/platform/observability"
)

// UsageStore is an interface for storing LLM usage data.
type UsageStore interface {
	IncrementLLMUsage(ctx context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error
}

// UsageRecorder records token usage metrics for LLM requests.
type UsageRecorder interface {
	RecordTokenUsage(provider, model string, task Task, promptTokens, completionTokens int, success bool)
}

// usageRecorder implements UsageRecorder with metrics, budget tracking, and persistence.
type usageRecorder struct {
	budgetTracker *BudgetTracker
	usageStore    UsageStore
	logger        *zerolog.Logger
}

// NewUsageRecorder creates a new UsageRecorder. budget and store may be nil.
func NewUsageRecorder(budgetTracker *BudgetTracker, usageStore UsageStore, logger *zerolog.Logger) UsageRecorder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &usageRecorder{
		budgetTracker: budgetTracker,
		usageStore:    usageStore,
		logger:        logger,
	}
}

// RecordTokenUsage records token usage metrics for an LLM request.
func (r *usageRecorder) RecordTokenUsage(provider, model string, task Task, promptTokens, completionTokens int, success bool) {
	r.recordTokenMetrics(provider, model, string(task), promptTokens, completionTokens, success)

	cost := estimateCost(provider, model, promptTokens, completionTokens)
	r.recordCostMetric(provider, model, string(task), cost, success)
	r.recordToBudgetTracker(promptTokens, completionTokens, success)
	r.persistUsageToDatabase(provider, model, string(task), promptTokens, completionTokens, cost, success)
}

// recordTokenMetrics records Prometheus metrics for token usage.
func (r *usageRecorder) recordTokenMetrics(provider, model, task string, promptTokens, completionTokens int, success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	observability.LLMRequests.WithLabelValues(provider, model, task, status).Inc()

	if promptTokens > 0 {
		observability.LLMTokensPrompt.WithLabelValues(provider, model, task).Add(float64(promptTokens))
	}

	if completionTokens > 0 {
		observability.LLMTokensCompletion.WithLabelValues(provider, model, task).Add(float64(completionTokens))
	}
}

// recordCostMetric records the estimated cost metric in millicents.
func (r *usageRecorder) recordCostMetric(provider, model, task string, cost float64, success bool) {
	if cost > 0 && success {
		observability.LLMEstimatedCost.WithLabelValues(provider, model, task).Add(cost * usdToMillicents)
	}
}

// recordToBudgetTracker records token usage to the budget tracker.
func (r *usageRecorder) recordToBudgetTracker(promptTokens, completionTokens int, success bool) {
	if r.budgetTracker == nil || !success {
		return
	}

	if totalTokens := promptTokens + completionTokens; totalTokens > 0 {
		r.budgetTracker.RecordTokens(totalTokens)
	}
}

// persistUsageToDatabase stores usage in the database asynchronously.
func (r *usageRecorder) persistUsageToDatabase(provider, model, task string, promptTokens, completionTokens int, cost float64, success bool) {
	if r.usageStore == nil || !success {
		return
	}

	// Fire-and-forget: usage storage must never fail or delay the LLM request.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), usageStorageTimeout)
		defer cancel()

		if err := r.usageStore.IncrementLLMUsage(ctx, provider, model, task, promptTokens, completionTokens, cost); err != nil {
			r.logger.Debug().Err(err).Str(logKeyProvider, provider).Msg("failed to persist LLM usage")
		}
	}()
}

// noopUsageRecorder is a no-op implementation for testing or when usage tracking is disabled.
type noopUsageRecorder struct{}

// NoopUsageRecorder returns a no-op implementation of UsageRecorder.
func NoopUsageRecorder() UsageRecorder {
	return &noopUsageRecorder{}
}

// RecordTokenUsage does nothing (no-op implementation).
func (r *noopUsageRecorder) RecordTokenUsage(_, _ string, _ Task, _, _ int, _ bool) {
	// No-op
}
