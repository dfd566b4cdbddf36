package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/platform/config"
)

// Google model constants.
const (
	// ModelGeminiFlash is the cheapest/fastest Google model.
	ModelGeminiFlash = "gemini-1.5-flash"

	// Default model for Google (use cheapest available).
	defaultGoogleModel = ModelGeminiFlash

	// Rate limiter settings for Google.
	googleRateLimiterBurst = 5

	modelPrefixGemini = "gemini"
)

// sanitizeUTF8 replaces invalid UTF-8 sequences.
// Google's protobuf API requires valid UTF-8.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

// googleProvider implements the Provider interface for Google Gemini.
type googleProvider struct {
	cfg         *config.Config
	client      *genai.Client
	usage       UsageRecorder
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewGoogleProvider creates a new Google Gemini LLM provider.
func NewGoogleProvider(ctx context.Context, cfg *config.Config, usage UsageRecorder, logger *zerolog.Logger) (*googleProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GoogleAPIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	if usage == nil {
		usage = NoopUsageRecorder()
	}

	rateLimit := cfg.RateLimitRPS
	if rateLimit == 0 {
		rateLimit = 1
	}

	return &googleProvider{
		cfg:         cfg,
		client:      client,
		usage:       usage,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rateLimit)), googleRateLimiterBurst),
	}, nil
}

// Close closes the Google client.
func (p *googleProvider) Close() error {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			return fmt.Errorf("closing google genai client: %w", err)
		}
	}

	return nil
}

// Name returns the provider identifier.
func (p *googleProvider) Name() ProviderName {
	return ProviderGoogle
}

// IsAvailable returns true if the provider is configured and available.
func (p *googleProvider) IsAvailable() bool {
	return config.UsableKey(p.cfg.GoogleAPIKey)
}

// Priority returns the provider priority.
func (p *googleProvider) Priority() int {
	return PrioritySecondFallback
}

// Model returns the Gemini model. Non-Gemini names fall back to the default.
func (p *googleProvider) Model() string {
	if strings.HasPrefix(p.cfg.GoogleModel, modelPrefixGemini) {
		return p.cfg.GoogleModel
	}

	return defaultGoogleModel
}

// Complete implements Provider interface.
func (p *googleProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	system, err := systemWithSchema(req)
	if err != nil {
		return "", err
	}

	model := p.Model()
	genModel := p.client.GenerativeModel(model)
	genModel.SetTemperature(temperatureOrDefault(req.Temperature))
	genModel.SetMaxOutputTokens(int32(maxTokensOrDefault(req.MaxTokens))) //nolint:gosec // bounded by config

	if system != "" {
		genModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(sanitizeUTF8(system))}}
	}

	if req.Schema != nil {
		genModel.ResponseMIMEType = contentTypeJSON
	}

	resp, err := genModel.GenerateContent(ctx, genai.Text(sanitizeUTF8(req.User)))
	if err != nil {
		p.usage.RecordTokenUsage(string(ProviderGoogle), model, req.Task, 0, 0, false)

		return "", fmt.Errorf(errGoogleGenAICompletion, err)
	}

	var promptTokens, completionTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	p.usage.RecordTokenUsage(string(ProviderGoogle), model, req.Task, promptTokens, completionTokens, true)

	text := strings.TrimSpace(extractGoogleResponseText(resp))
	if text == "" {
		return "", errors.ErrEmptyResponse
	}

	if req.Schema != nil {
		text = extractJSON(text)
	}

	return text, nil
}

// extractGoogleResponseText joins the text parts of every candidate.
func extractGoogleResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var result strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					result.WriteString(string(text))
				}
			}
		}
	}

	return result.String()
}

// Ensure googleProvider implements Provider interface.
var _ Provider = (*googleProvider)(nil)
