package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/platform/config"
)

// openaiProvider implements the Provider interface for OpenAI chat completions.
type openaiProvider struct {
	cfg         *config.Config
	client      *openai.Client
	usage       UsageRecorder
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAIProvider creates a new OpenAI LLM provider.
func NewOpenAIProvider(cfg *config.Config, usage UsageRecorder, logger *zerolog.Logger) *openaiProvider {
	return newOpenAIProviderWithClient(cfg, openai.NewClient(cfg.LLMAPIKey), usage, logger)
}

func newOpenAIProviderWithClient(cfg *config.Config, client *openai.Client, usage UsageRecorder, logger *zerolog.Logger) *openaiProvider {
	if usage == nil {
		usage = NoopUsageRecorder()
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	rateLimit := cfg.RateLimitRPS
	if rateLimit == 0 {
		rateLimit = 1
	}

	return &openaiProvider{
		cfg:         cfg,
		client:      client,
		usage:       usage,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rateLimit)), rateLimiterBurst),
	}
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

// IsAvailable returns true if the provider is configured and available.
func (p *openaiProvider) IsAvailable() bool {
	return config.UsableKey(p.cfg.LLMAPIKey)
}

// Priority returns the provider priority.
func (p *openaiProvider) Priority() int {
	return PriorityPrimary
}

// Model returns the configured chat model.
func (p *openaiProvider) Model() string {
	if p.cfg.LLMModel == "" {
		return openai.GPT4oMini
	}

	return p.cfg.LLMModel
}

// Complete implements Provider interface.
func (p *openaiProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	chatReq, err := p.buildChatRequest(req)
	if err != nil {
		return "", err
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		p.usage.RecordTokenUsage(string(ProviderOpenAI), chatReq.Model, req.Task, 0, 0, false)

		return "", fmt.Errorf(errOpenAIChatCompletion, err)
	}

	p.usage.RecordTokenUsage(string(ProviderOpenAI), chatReq.Model, req.Task, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, true)

	if len(resp.Choices) == 0 {
		return "", errors.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		p.logger.Warn().
			Str(logKeyTask, string(req.Task)).
			Int(logKeyMaxTokens, chatReq.MaxTokens).
			Msg(logMsgTruncated)
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", errors.ErrEmptyResponse
	}

	p.logger.Debug().Str(logKeyTask, string(req.Task)).Int(logKeyLength, len(content)).Msg("LLM response")

	return content, nil
}

func (p *openaiProvider) buildChatRequest(req Request) (openai.ChatCompletionRequest, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)

	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       p.Model(),
		Messages:    messages,
		Temperature: temperatureOrDefault(req.Temperature),
		MaxTokens:   maxTokensOrDefault(req.MaxTokens),
	}

	if req.Schema != nil {
		raw, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return chatReq, fmt.Errorf(errFmtMarshalSchema, err)
		}

		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: json.RawMessage(raw),
				Strict: true,
			},
		}
	}

	return chatReq, nil
}

func temperatureOrDefault(t float32) float32 {
	if t <= 0 {
		return defaultTemperature
	}

	return t
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}

	return n
}

// Ensure openaiProvider implements Provider interface.
var _ Provider = (*openaiProvider)(nil)
