package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/platform/observability"
)

// ErrAllProvidersFailed indicates every registered provider returned an error.
var ErrAllProvidersFailed = errors.New("all LLM providers failed")

// Registry manages LLM providers with fallback support.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName // Priority order (highest first)
	circuitBreakers map[ProviderName]*CircuitBreaker
	budgetTracker   *BudgetTracker
	logger          *zerolog.Logger
}

// NewRegistry creates a new provider registry. A nil tracker means no budget.
func NewRegistry(budget *BudgetTracker, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if budget == nil {
		budget = NewBudgetTracker(0, logger)
	}

	return &Registry{
		providers:       make(map[ProviderName]Provider),
		order:           make([]ProviderName, 0),
		circuitBreakers: make(map[ProviderName]*CircuitBreaker),
		budgetTracker:   budget,
		logger:          logger,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}

	r.providers[name] = p
	r.circuitBreakers[name] = NewCircuitBreaker(cfg, r.logger)

	// Sort by priority (descending)
	r.sortProvidersByPriority()

	available := MetricValueUnavailable
	if p.IsAvailable() {
		available = MetricValueAvailable
	}

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(available)

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// Budget returns the shared token budget tracker.
func (r *Registry) Budget() *BudgetTracker {
	return r.budgetTracker
}

// Complete implements Client with priority-ordered fallback across providers.
func (r *Registry) Complete(ctx context.Context, req Request) (string, error) {
	if r.budgetTracker.Exceeded() {
		return "", coreerrors.ErrBudgetExceeded
	}

	return executeWithFallback(r, req.Task, func(p Provider) (string, error) {
		return p.Complete(ctx, req)
	})
}

// executeWithFallback is a generic helper for priority-ordered fallback execution.
func executeWithFallback[T any](r *Registry, task Task, fn func(Provider) (T, error)) (T, error) {
	r.mu.RLock()
	order := append([]ProviderName(nil), r.order...)
	r.mu.RUnlock()

	var zero T

	if len(order) == 0 {
		return zero, coreerrors.ErrNoProvidersAvailable
	}

	var lastErr, circuitErr error

	var previousProvider ProviderName

	for _, name := range order {
		result, attempted, err := tryProviderExec(r, name, task, fn)
		if errors.Is(err, coreerrors.ErrCircuitBreakerOpen) {
			circuitErr = err
			continue
		}

		if err != nil {
			lastErr = err

			if previousProvider == "" {
				previousProvider = name
			}

			continue
		}

		if !attempted {
			continue
		}

		if previousProvider != "" {
			observability.LLMFallbacks.WithLabelValues(
				string(previousProvider),
				string(name),
				string(task),
			).Inc()

			r.logger.Info().
				Str(logKeyProvider, string(name)).
				Str("from_provider", string(previousProvider)).
				Str(logKeyTask, string(task)).
				Msg("used fallback LLM provider")
		}

		return result, nil
	}

	if lastErr != nil {
		return zero, errors.Join(ErrAllProvidersFailed, lastErr)
	}

	// Tripped breakers mean the providers are failing, not missing.
	if circuitErr != nil {
		return zero, circuitErr
	}

	return zero, coreerrors.ErrNoProvidersAvailable
}

// tryProviderExec attempts to execute fn with a provider. attempted is false
// when the provider was skipped; an open circuit is reported as
// ErrCircuitBreakerOpen.
func tryProviderExec[T any](r *Registry, name ProviderName, task Task, fn func(Provider) (T, error)) (result T, attempted bool, err error) {
	var zero T

	r.mu.RLock()
	p, exists := r.providers[name]
	cb := r.circuitBreakers[name]
	r.mu.RUnlock()

	if !exists || !p.IsAvailable() {
		return zero, false, nil
	}

	if err := cb.CheckCircuit(); err != nil {
		observability.LLMCircuitBreakerState.WithLabelValues(string(name)).Set(MetricValueCBOpen)
		observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(MetricValueUnavailable)

		r.logger.Debug().
			Str(logKeyProvider, string(name)).
			Str(logKeyTask, string(task)).
			Msg(logMsgCircuitBreakerOpen)

		return zero, false, fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()

	result, err = fn(p)

	duration := time.Since(start)

	observability.LLMRequestLatency.WithLabelValues(
		string(name),
		p.Model(),
		string(task),
	).Observe(duration.Seconds())

	if err != nil {
		// A canceled caller says nothing about provider health.
		if errors.Is(err, context.Canceled) {
			return zero, false, err
		}

		if cb.RecordFailure(name) {
			observability.LLMCircuitBreakerOpens.WithLabelValues(string(name)).Inc()
			observability.LLMCircuitBreakerState.WithLabelValues(string(name)).Set(MetricValueCBOpen)
			observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(MetricValueUnavailable)
		}

		r.logger.Warn().
			Err(err).
			Str(logKeyProvider, string(name)).
			Str(logKeyModel, p.Model()).
			Str(logKeyTask, string(task)).
			Float64("duration_seconds", duration.Seconds()).
			Msg("LLM provider failed, trying fallback")

		return zero, false, err
	}

	cb.RecordSuccess()

	observability.LLMCircuitBreakerState.WithLabelValues(string(name)).Set(MetricValueCBClosed)
	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(MetricValueAvailable)

	return result, true, nil
}

// sortProvidersByPriority sorts providers by priority in descending order.
func (r *Registry) sortProvidersByPriority() {
	sort.SliceStable(r.order, func(i, j int) bool {
		pi := r.providers[r.order[i]].Priority()
		pj := r.providers[r.order[j]].Priority()

		return pi > pj
	})
}

// ProviderStatus holds status information for a provider.
type ProviderStatus struct {
	Name             ProviderName
	Priority         int
	Available        bool
	CircuitBreakerOK bool
}

// GetProviderStatuses returns status information for all registered providers.
func (r *Registry) GetProviderStatuses() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]ProviderStatus, 0, len(r.order))

	for _, name := range r.order {
		p := r.providers[name]
		cb := r.circuitBreakers[name]

		statuses = append(statuses, ProviderStatus{
			Name:             name,
			Priority:         p.Priority(),
			Available:        p.IsAvailable(),
			CircuitBreakerOK: cb.CanAttempt(),
		})
	}

	return statuses
}

// ProviderStates renders GetProviderStatuses for the /version endpoint.
func (r *Registry) ProviderStates() []observability.ProviderState {
	statuses := r.GetProviderStatuses()
	out := make([]observability.ProviderState, 0, len(statuses))

	for _, st := range statuses {
		out = append(out, observability.ProviderState{
			Name:      string(st.Name),
			Priority:  st.Priority,
			Available: st.Available,
			CircuitOK: st.CircuitBreakerOK,
		})
	}

	return out
}

// Ensure Registry implements Client interface.
var _ Client = (*Registry)(nil)
