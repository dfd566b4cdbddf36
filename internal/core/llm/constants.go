package llm

import "time"

// Error message templates
const (
	errRateLimiter           = "rate limiter error: %w"
	errOpenAIChatCompletion  = "openai chat completion error: %w"
	errAnthropicCompletion   = "anthropic completion: %w"
	errGoogleGenAICompletion = "google genai completion: %w"
	errFmtMarshalSchema      = "marshal response schema: %w"
)

// Model mapping strings
const (
	modelPrefixGPT4   = "gpt-4"
	modelPrefixGPT5   = "gpt-5"
	modelPrefixNano   = "nano"
	modelPrefixMini   = "mini"
	modelPrefixClaude = "claude"
	llmAPIKeyMock     = "mock"
)

// Log message strings
const (
	logMsgCircuitBreakerOpen = "skipping provider - circuit breaker open"
	logMsgTruncated          = "LLM output truncated due to max_tokens limit"
)

// Log key strings
const (
	logKeyProvider  = "provider"
	logKeyTask      = "task"
	logKeyModel     = "model"
	logKeyAttempt   = "attempt"
	logKeyMaxTokens = "max_tokens"
	logKeyDelay     = "delay"
	logKeyLength    = "length"
)

// HTTP header values
const (
	contentTypeJSON = "application/json"
	contentTypeText = "text"
)

// Numeric constants
const (
	rateLimiterBurst    = 5
	defaultMaxTokens    = 700
	defaultTemperature  = 0.6
	defaultMaxAttempts  = 3
	defaultRetryBase    = 500 * time.Millisecond
	defaultCallTimeout  = 20 * time.Second
	retryDelayMultipler = 2
)

// Circuit breaker defaults
const (
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = time.Minute
)

// Usage storage timeout
const (
	usageStorageTimeout = 5 * time.Second
)

// Cost conversion
const (
	usdToMillicents = 100000.0 // 1 USD = 100,000 millicents
)

// Request status for metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metric gauge values.
const (
	MetricValueAvailable   = 1.0
	MetricValueUnavailable = 0.0
	MetricValueCBOpen      = 1.0 // Circuit breaker is open (blocking requests)
	MetricValueCBClosed    = 0.0 // Circuit breaker is closed (allowing requests)
)
