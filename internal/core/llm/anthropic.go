package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/platform/config"
)

// Anthropic model constants.
const (
	ModelClaudeHaiku = "claude-3-5-haiku-latest"

	// Default model for Anthropic.
	defaultAnthropicModel = ModelClaudeHaiku

	// Rate limiter settings for Anthropic.
	anthropicRateLimiterBurst = 5

	schemaInstructionFormat = "\n\nRespond with a single JSON object and nothing else. It must match this JSON schema:\n%s"
)

// anthropicProvider implements the Provider interface for Anthropic Claude.
type anthropicProvider struct {
	cfg         *config.Config
	client      anthropic.Client
	usage       UsageRecorder
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewAnthropicProvider creates a new Anthropic LLM provider.
func NewAnthropicProvider(cfg *config.Config, usage UsageRecorder, logger *zerolog.Logger) *anthropicProvider {
	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))

	if usage == nil {
		usage = NoopUsageRecorder()
	}

	rateLimit := cfg.RateLimitRPS
	if rateLimit == 0 {
		rateLimit = 1
	}

	return &anthropicProvider{
		cfg:         cfg,
		client:      client,
		usage:       usage,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rateLimit)), anthropicRateLimiterBurst),
	}
}

// Name returns the provider identifier.
func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// IsAvailable returns true if the provider is configured and available.
func (p *anthropicProvider) IsAvailable() bool {
	return config.UsableKey(p.cfg.AnthropicAPIKey)
}

// Priority returns the provider priority.
func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

// Model returns the Claude model. Non-Claude names fall back to the default.
func (p *anthropicProvider) Model() string {
	if strings.HasPrefix(p.cfg.AnthropicModel, modelPrefixClaude) {
		return p.cfg.AnthropicModel
	}

	return defaultAnthropicModel
}

// Complete implements Provider interface.
func (p *anthropicProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	system, err := systemWithSchema(req)
	if err != nil {
		return "", err
	}

	model := p.Model()
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokensOrDefault(req.MaxTokens)),
		Temperature: anthropic.Float(float64(temperatureOrDefault(req.Temperature))),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		p.usage.RecordTokenUsage(string(ProviderAnthropic), model, req.Task, 0, 0, false)

		return "", fmt.Errorf(errAnthropicCompletion, err)
	}

	p.usage.RecordTokenUsage(string(ProviderAnthropic), model, req.Task, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens), true)

	text := strings.TrimSpace(extractTextFromResponse(resp))
	if text == "" {
		return "", errors.ErrEmptyResponse
	}

	if req.Schema != nil {
		text = extractJSON(text)
	}

	return text, nil
}

// extractTextFromResponse joins every text block of a message.
func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}

// systemWithSchema appends the JSON schema to the system prompt for providers
// without native structured output.
func systemWithSchema(req Request) (string, error) {
	if req.Schema == nil {
		return req.System, nil
	}

	raw, err := json.Marshal(req.Schema.Definition)
	if err != nil {
		return "", fmt.Errorf(errFmtMarshalSchema, err)
	}

	return req.System + fmt.Sprintf(schemaInstructionFormat, raw), nil
}

// Ensure anthropicProvider implements Provider interface.
var _ Provider = (*anthropicProvider)(nil)
