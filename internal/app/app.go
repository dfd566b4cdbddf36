// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - API mode: JSON HTTP API for diary replies, logs and presets
//   - Bot mode: Telegram chat bot that replies to diary messages
//   - Migrate mode: applies storage migrations and exits
//
// Storage is optional. Without it the pipeline runs stateless and nothing is
// persisted.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/bot"
	"github.com/lueurxax/diary-replier/internal/core/llm"
	"github.com/lueurxax/diary-replier/internal/core/ports"
	"github.com/lueurxax/diary-replier/internal/httpapi"
	"github.com/lueurxax/diary-replier/internal/platform/config"
	"github.com/lueurxax/diary-replier/internal/platform/observability"
	"github.com/lueurxax/diary-replier/internal/process/longtext"
	"github.com/lueurxax/diary-replier/internal/process/pipeline"
	"github.com/lueurxax/diary-replier/internal/process/reply"
	db "github.com/lueurxax/diary-replier/internal/storage"
	"github.com/lueurxax/diary-replier/internal/storage/presetcache"
	"github.com/lueurxax/diary-replier/internal/storage/sqlitestore"
)

const errBotInit = "bot initialization failed: %w"

// migrator is implemented by every storage backend.
type migrator interface {
	Migrate(ctx context.Context) error
}

// dailyUsageReader seeds the token budget after a restart.
type dailyUsageReader interface {
	DailyTokenUsage(ctx context.Context) (int64, error)
}

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg     *config.Config
	store   ports.Store
	presets ports.PresetStore
	redis   *redis.Client
	logger  *zerolog.Logger

	llmOnce  sync.Once
	registry *llm.Registry
	client   llm.Client
}

// New opens the configured storage backend and the optional preset cache.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	a := &App{cfg: cfg, logger: logger}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if store == nil {
		return a, nil
	}

	a.store = store
	a.presets = store

	if cfg.RedisURL != "" {
		client, err := presetcache.NewClient(cfg.RedisURL)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("preset cache init: %w", err)
		}

		a.redis = client
		a.presets = presetcache.New(store, client, cfg.PresetCacheTTL, logger)

		logger.Info().Msg("Preset cache enabled")
	}

	return a, nil
}

// OpenStore connects the backend selected by STORAGE_DRIVER. It returns a nil
// store for the "none" driver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (ports.Store, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		poolOpts := db.PoolOptions{
			MaxConns:        cfg.DBMaxConnections,
			MinConns:        cfg.DBMinConnections,
			MaxConnIdleTime: cfg.DBMaxConnIdleTime,
			MaxConnLifetime: cfg.DBMaxConnLifetime,
		}

		database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return database, nil
	case config.StorageSQLite:
		store, err := sqlitestore.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		return store, nil
	default:
		return nil, nil
	}
}

// Close releases storage and cache connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}

	if a.store != nil {
		a.store.Close()
	}
}

// Migrate applies schema migrations. It is a no-op without storage.
func (a *App) Migrate(ctx context.Context) error {
	m, ok := a.store.(migrator)
	if !ok {
		a.logger.Info().Msg("storage disabled, nothing to migrate")
		return nil
	}

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

// NewPipeline wires registry, retry policy, reducer and generator into the
// orchestrator.
func (a *App) NewPipeline(ctx context.Context) *pipeline.Pipeline {
	client := a.llmClient(ctx)

	// Without a provider every map call would fall back, so long entries stay
	// on the lexicon classifier.
	var long pipeline.LongClassifier
	if a.registry.ProviderCount() > 0 {
		long = longtext.New(client, longtext.Options{
			MaxChunkChars: a.cfg.LongChunkChars,
			Concurrency:   a.cfg.LongMapConcurrency,
		}, a.logger)
	}

	generator := reply.New(client, reply.Options{
		Temperature: a.cfg.ReplyTemperature,
		MaxTokens:   a.cfg.ReplyMaxTokens,
		Strict:      a.cfg.StrictLLM,
	}, a.logger)

	var (
		presets ports.PresetReader
		logs    ports.DiaryLogWriter
	)

	if a.store != nil {
		presets = a.presets
		logs = a.store
	}

	return pipeline.New(a.cfg, long, generator, presets, logs, a.logger)
}

// llmClient builds the provider registry and its retrying client once. The
// pipeline and the health server share them.
func (a *App) llmClient(ctx context.Context) llm.Client {
	a.llmOnce.Do(func() {
		var usage llm.UsageStore
		if a.store != nil {
			usage = a.store
		}

		a.registry = llm.New(ctx, a.cfg, usage, a.logger)
		a.seedBudget(ctx, a.registry.Budget())

		a.client = llm.NewRetryingClient(a.registry, llm.RetryPolicy{
			MaxAttempts: a.cfg.LLMMaxAttempts,
			BaseDelay:   a.cfg.LLMRetryBaseDelay,
			CallTimeout: a.cfg.LLMTimeout,
		}, a.logger)
	})

	return a.client
}

func (a *App) seedBudget(ctx context.Context, budget *llm.BudgetTracker) {
	reader, ok := a.store.(dailyUsageReader)
	if !ok || budget == nil || a.cfg.LLMDailyTokenBudget <= 0 {
		return
	}

	used, err := reader.DailyTokenUsage(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to read today's token usage")
		return
	}

	if used > 0 {
		budget.RecordTokens(int(used))
		a.logger.Info().Int64("tokens", used).Msg("Token budget seeded from storage")
	}
}

func (a *App) healthServer(ctx context.Context) *observability.Server {
	var pinger observability.Pinger
	if a.store != nil {
		pinger = a.store
	}

	a.llmClient(ctx)

	return observability.NewServer(pinger, a.cfg.HealthPort, observability.BuildInfo{
		Version:      a.cfg.Version,
		Model:        a.modelName(),
		ConfigLoaded: a.cfg.FileLoaded,
		Providers:    a.registry.ProviderStates,
	}, a.logger)
}

func (a *App) modelName() string {
	if !a.cfg.LLMEnabled() {
		return "unknown"
	}

	return a.cfg.LLMModel
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	if err := a.healthServer(ctx).Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunAPI serves the JSON API until ctx is canceled.
func (a *App) RunAPI(ctx context.Context) error {
	a.logger.Info().Msg("Starting API mode")

	deps := httpapi.Deps{
		Pipeline: a.NewPipeline(ctx),
		Health:   a.healthServer(ctx),
	}

	if a.store != nil {
		deps.Logs = a.store
		deps.Presets = a.presets
	}

	if err := httpapi.NewServer(a.cfg, deps, a.logger).Start(ctx); err != nil {
		return fmt.Errorf("api run: %w", err)
	}

	return nil
}

// RunBot runs the Telegram bot mode.
func (a *App) RunBot(ctx context.Context) error {
	a.logger.Info().Msg("Starting bot mode")

	var presets ports.PresetStore
	if a.store != nil {
		presets = a.presets
	}

	b, err := bot.New(a.cfg, a.NewPipeline(ctx), presets, a.logger)
	if err != nil {
		return fmt.Errorf(errBotInit, err)
	}

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bot run: %w", err)
	}

	return nil
}

// Store exposes the storage backend to tools. It is nil when storage is disabled.
func (a *App) Store() ports.Store {
	return a.store
}
