// Package reply turns a diary entry and its analysis into empathetic replies.
//
// The Generator asks the provider once for both variants through a structured
// response. Malformed output is recovered locally. When generation is
// unavailable it serves fixed templates unless strict mode is on.
package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/core/llm"
	"github.com/lueurxax/diary-replier/internal/platform/observability"
)

// pairResponse is the structured reply-pair response.
type pairResponse struct {
	ReplyShort  string `json:"reply_short" jsonschema:"description=2-3 sentences around 100 characters"`
	ReplyNormal string `json:"reply_normal" jsonschema:"description=5-7 sentences around 200-280 characters"`
}

var pairSchema = llm.MustSchema[pairResponse](schemaNamePair)

// Style selects persona and length.
type Style struct {
	Preset string
	Tone   string
	Mood   string
	Length string
}

// Input is everything a reply is built from. Text must already be masked.
type Input struct {
	Text         string
	Analysis     domain.AnalysisResult
	Style        Style
	RiskAdvisory bool
}

// Result is a finished reply pair.
type Result struct {
	Pair           domain.ReplyPair
	Fallback       bool
	FallbackReason string
}

// Options configures a Generator.
type Options struct {
	Temperature float32
	MaxTokens   int
	Strict      bool
}

// Generator produces reply pairs.
type Generator struct {
	client llm.Client
	opts   Options
	logger *zerolog.Logger
}

// New creates a Generator. client usually is a retrying registry.
func New(client llm.Client, opts Options, logger *zerolog.Logger) *Generator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemp
	}

	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxToken
	}

	return &Generator{client: client, opts: opts, logger: logger}
}

// Reply generates the requested variants and applies the fallback policy,
// the length bounds and the risk suffix. It fails only in strict mode or when
// ctx is canceled.
func (g *Generator) Reply(ctx context.Context, in Input) (Result, error) {
	length := domain.Options{Length: in.Style.Length}.Normalize().Length

	var (
		pair domain.ReplyPair
		err  error
	)

	switch length {
	case domain.LengthShort, domain.LengthNormal:
		var text string

		text, err = g.Generate(ctx, in, length)
		if length == domain.LengthShort {
			pair.Short = text
		} else {
			pair.Normal = text
		}
	default:
		pair, err = g.GeneratePair(ctx, in)
	}

	res := Result{}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("reply generation: %w", ctxErr)
		}

		reason := fallbackReason(err)

		if g.opts.Strict && reason != ReasonNoProvider && reason != ReasonBudget {
			if !errors.Is(err, errors.ErrGenerationUnavailable) {
				err = fmt.Errorf("%w: %w", errors.ErrGenerationUnavailable, err)
			}

			return Result{}, err
		}

		observability.ReplyFallbacks.WithLabelValues(reason).Inc()
		g.logger.Warn().Err(err).Str(logKeyReason, reason).Str(logKeyPreset, in.Style.Preset).Str(logKeyLength, length).Msg("reply generation unavailable, using templates")

		pair = FallbackPair(length)
		res.Fallback = true
		res.FallbackReason = reason
	}

	res.Pair = finalize(pair, in.RiskAdvisory)

	return res, nil
}

// GeneratePair requests both variants in one structured call. A malformed
// response is used as the normal reply and its leading sentences as the short
// one. Provider errors are returned unchanged.
func (g *Generator) GeneratePair(ctx context.Context, in Input) (domain.ReplyPair, error) {
	raw, err := g.client.Complete(ctx, llm.Request{
		Task:        llm.TaskReplyPair,
		System:      buildSystemPrompt(in.Style),
		User:        buildUserPrompt(in, pairDirective(in.Style.Preset)),
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
		Schema:      pairSchema,
	})
	if err != nil {
		return domain.ReplyPair{}, err
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ReplyPair{}, errors.ErrEmptyResponse
	}

	parsed, err := llm.DecodeJSON[pairResponse](raw)
	if err != nil {
		observability.StructuredParseFailures.WithLabelValues(stepReplyPair).Inc()
		g.logger.Warn().Err(err).Int(logKeyRawLength, len(raw)).Msg("malformed reply pair, using raw text")

		normal := ClampRunes(raw, MaxNormalRunes)

		return domain.ReplyPair{Short: ShortFromNormal(normal), Normal: normal}, nil
	}

	pair := domain.ReplyPair{
		Short:  strings.TrimSpace(parsed.ReplyShort),
		Normal: strings.TrimSpace(parsed.ReplyNormal),
	}

	switch {
	case pair.Short == "" && pair.Normal == "":
		return domain.ReplyPair{}, fmt.Errorf("%w: both replies empty", errors.ErrEmptyResponse)
	case pair.Short == "":
		pair.Short = ShortFromNormal(pair.Normal)
	case pair.Normal == "":
		pair.Normal = FallbackNormal
	}

	return pair, nil
}

// Generate requests a single plain-text reply of the given length.
func (g *Generator) Generate(ctx context.Context, in Input, length string) (string, error) {
	task := llm.TaskReplySingle

	raw, err := g.client.Complete(ctx, llm.Request{
		Task:        task,
		System:      buildSystemPrompt(in.Style),
		User:        buildUserPrompt(in, singleDirective(length)),
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	text := strings.Trim(strings.TrimSpace(raw), `"'`)
	if text == "" {
		return "", fmt.Errorf("%w: %s", errors.ErrEmptyResponse, task)
	}

	return text, nil
}

// finalize clamps both variants and appends the advisory suffix.
func finalize(pair domain.ReplyPair, risk bool) domain.ReplyPair {
	if pair.Short != "" {
		if risk {
			pair.Short = withSuffix(pair.Short, riskSuffixShort, MaxShortRunes)
		} else {
			pair.Short = ClampRunes(pair.Short, MaxShortRunes)
		}
	}

	if pair.Normal != "" {
		if risk {
			pair.Normal = withSuffix(pair.Normal, riskSuffixNormal, MaxNormalRunes)
		} else {
			pair.Normal = ClampRunes(pair.Normal, MaxNormalRunes)
		}
	}

	return pair
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, errors.ErrCircuitBreakerOpen):
		return ReasonCircuitOpen
	case errors.Is(err, errors.ErrNoProvidersAvailable):
		return ReasonNoProvider
	case errors.Is(err, errors.ErrBudgetExceeded):
		return ReasonBudget
	case errors.Is(err, errors.ErrGenerationUnavailable):
		return ReasonRetriesExhausted
	default:
		return ReasonError
	}
}
