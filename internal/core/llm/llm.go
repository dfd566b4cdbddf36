package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/platform/config"
)

// Task names a kind of completion for metrics and routing.
type Task string

// LLM task names.
const (
	TaskReplyPair   Task = "reply_pair"
	TaskReplySingle Task = "reply_single"
	TaskChunkMap    Task = "chunk_map"
	TaskChunkReduce Task = "chunk_reduce"
)

// Schema requests structured JSON output.
type Schema struct {
	Name       string
	Definition map[string]interface{}
}

// Request is one chat-style completion call.
type Request struct {
	Task        Task
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	Schema      *Schema
}

// Client completes a system/user prompt pair. Implementations must be safe for
// concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// buildCircuitConfig creates a CircuitBreakerConfig with defaults applied.
func buildCircuitConfig(cfg *config.Config) CircuitBreakerConfig {
	circuitCfg := CircuitBreakerConfig{
		Threshold:  cfg.LLMCircuitThreshold,
		ResetAfter: cfg.LLMCircuitTimeout,
	}

	if circuitCfg.Threshold == 0 {
		circuitCfg.Threshold = defaultCircuitThreshold
	}

	if circuitCfg.ResetAfter == 0 {
		circuitCfg.ResetAfter = defaultCircuitTimeout
	}

	return circuitCfg
}

// registerProviders registers every configured provider. Keys reserved for
// tests never register a provider.
func registerProviders(ctx context.Context, registry *Registry, cfg *config.Config, usage UsageRecorder, logger *zerolog.Logger, circuitCfg CircuitBreakerConfig) {
	if cfg.LLMAPIKey == llmAPIKeyMock {
		registry.Register(NewMockProvider(), circuitCfg)
		return
	}

	if config.UsableKey(cfg.LLMAPIKey) {
		registry.Register(NewOpenAIProvider(cfg, usage, logger), circuitCfg)
	}

	if config.UsableKey(cfg.AnthropicAPIKey) {
		registry.Register(NewAnthropicProvider(cfg, usage, logger), circuitCfg)
	}

	if config.UsableKey(cfg.GoogleAPIKey) {
		googleProvider, err := NewGoogleProvider(ctx, cfg, usage, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create Google LLM provider")
		} else {
			registry.Register(googleProvider, circuitCfg)
		}
	}

	if registry.ProviderCount() == 0 {
		logger.Info().Msg("no LLM provider configured, replies will use templates")
	}
}

// New creates a registry with every configured provider in priority order:
// OpenAI (primary), Anthropic (fallback), Google (second fallback).
// With no keys the registry is empty and every call reports ErrNoProvidersAvailable.
func New(ctx context.Context, cfg *config.Config, usageStore UsageStore, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	budget := NewBudgetTracker(cfg.LLMDailyTokenBudget, logger)
	usage := NewUsageRecorder(budget, usageStore, logger)

	registry := NewRegistry(budget, logger)
	registerProviders(ctx, registry, cfg, usage, logger, buildCircuitConfig(cfg))

	return registry
}
