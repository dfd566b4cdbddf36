package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DiaryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_requests_total",
		Help: "The total number of diary entries run through the pipeline",
	}, []string{"outcome"})

	DiaryPipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "diary_pipeline_duration_seconds",
		Help:    "Duration of a full pipeline run",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"path"})

	SafetyEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_safety_events_total",
		Help: "Safety gate hits by kind (crisis, pii, risk_<category>)",
	}, []string{"kind"})

	ReplyFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_reply_fallbacks_total",
		Help: "Replies served from deterministic templates, by reason",
	}, []string{"reason"})

	StructuredParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_structured_parse_failures_total",
		Help: "Malformed structured LLM responses recovered locally, by step",
	}, []string{"step"})

	LongTextChunks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "diary_long_text_chunks",
		Help:    "Number of chunks produced per long diary entry",
		Buckets: []float64{1, 2, 3, 4, 6, 8, 10, 15},
	})

	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diary_persistence_failures_total",
		Help: "Diary logs that could not be written",
	})

	PresetCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_preset_cache_lookups_total",
		Help: "Preset cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_http_requests_total",
		Help: "HTTP API requests by route and status code",
	}, []string{"route", "code"})

	BotMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_bot_messages_total",
		Help: "Telegram messages handled by kind",
	}, []string{"kind"})

	// LLM token usage metrics
	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_llm_tokens_prompt_total",
		Help: "Total number of prompt tokens used",
	}, []string{"provider", "model", "task"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_llm_tokens_completion_total",
		Help: "Total number of completion tokens used",
	}, []string{"provider", "model", "task"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"provider", "model", "task", "status"})

	LLMRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_llm_retries_total",
		Help: "Retried LLM calls after a transient failure",
	}, []string{"task"})

	// LLM fallback and circuit breaker metrics
	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_llm_fallbacks_total",
		Help: "Total number of LLM fallback events",
	}, []string{"from_provider", "to_provider", "task"})

	LLMCircuitBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_llm_circuit_breaker_opens_total",
		Help: "Total number of times LLM circuit breaker opened",
	}, []string{"provider"})

	LLMCircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "diary_llm_circuit_breaker_state",
		Help: "Current state of LLM circuit breaker (0=closed, 1=open)",
	}, []string{"provider"})

	LLMRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "diary_llm_request_latency_seconds",
		Help:    "Latency of LLM requests by provider and task",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider", "model", "task"})

	// LLM estimated costs (in millicents to avoid floating point issues)
	LLMEstimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diary_llm_estimated_cost_millicents_total",
		Help: "Estimated LLM cost in millicents (0.001 cents)",
	}, []string{"provider", "model", "task"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "diary_llm_provider_available",
		Help: "Whether LLM provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})

	LLMDailyTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "diary_llm_daily_tokens",
		Help: "Tokens consumed today as seen by the budget tracker",
	})
)
