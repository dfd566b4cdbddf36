// Package longtext classifies long diary entries with a map/reduce over
// paragraph-aligned chunks. Every provider or parse failure is recovered with
// a local fallback so a reduction never fails for those reasons.
package longtext

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/core/llm"
	"github.com/lueurxax/diary-replier/internal/platform/observability"
	"github.com/lueurxax/diary-replier/internal/platform/worker"
	"github.com/lueurxax/diary-replier/internal/process/analyzer"
)

// chunkSummary is the structured map-step response.
type chunkSummary struct {
	MiniSummary   string   `json:"mini_summary" jsonschema:"description=One or two sentence summary of the chunk"`
	Emotions      []string `json:"emotions" jsonschema:"description=Up to three of happy/sad/angry/shy/empty"`
	Keywords      []string `json:"keywords"`
	NotableQuotes []string `json:"notable_quotes" jsonschema:"description=Short verbatim quotes from the chunk"`
}

// reduceResult is the structured reduce-step response.
type reduceResult struct {
	Valence  string   `json:"valence" jsonschema:"enum=positive,enum=negative,enum=neutral"`
	Emotions []string `json:"emotions"`
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`
}

var (
	mapSchema    = llm.MustSchema[chunkSummary](schemaNameChunkMap)
	reduceSchema = llm.MustSchema[reduceResult](schemaNameChunkReduce)
)

// Options configures a Reducer.
type Options struct {
	MaxChunkChars   int
	Concurrency     int
	Temperature     float32
	MapMaxTokens    int
	ReduceMaxTokens int
}

func (o Options) withDefaults() Options {
	if o.MaxChunkChars <= 0 {
		o.MaxChunkChars = DefaultMaxChunkChars
	}

	if o.Concurrency <= 0 {
		o.Concurrency = defaultMapConcurrency
	}

	if o.Temperature <= 0 {
		o.Temperature = defaultTemperature
	}

	if o.MapMaxTokens <= 0 {
		o.MapMaxTokens = defaultMapMaxTokens
	}

	if o.ReduceMaxTokens <= 0 {
		o.ReduceMaxTokens = defaultReduceMaxTokens
	}

	return o
}

// Reducer runs the long-text map/reduce.
type Reducer struct {
	client llm.Client
	opts   Options
	logger *zerolog.Logger
}

// New creates a Reducer. client is shared and must be safe for concurrent use.
func New(client llm.Client, opts Options, logger *zerolog.Logger) *Reducer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Reducer{
		client: client,
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// ClassifyLong classifies text chunk by chunk and merges the partial results.
// EvidenceQuotes and KeywordsAll are always set. Only a canceled context
// makes it fail.
func (r *Reducer) ClassifyLong(ctx context.Context, text string) (domain.AnalysisResult, error) {
	chunks := Chunk(text, r.opts.MaxChunkChars)
	if len(chunks) == 0 {
		return analyzer.Classify(text), nil
	}

	observability.LongTextChunks.Observe(float64(len(chunks)))
	r.logger.Debug().Int(logKeyChunks, len(chunks)).Msg("long text chunked")

	summaries := worker.Map(ctx, worker.PoolConfig{
		Name:        poolNameMapStep,
		Concurrency: r.opts.Concurrency,
		Logger:      r.logger,
	}, chunks, r.mapChunk)

	if err := ctx.Err(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("long text map: %w", err)
	}

	for i := range summaries {
		// A panicking map call leaves a zero value behind.
		if summaries[i].MiniSummary == "" {
			summaries[i] = fallbackChunkSummary(chunks[i])
		}
	}

	result := r.reduce(ctx, summaries)

	if err := ctx.Err(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("long text reduce: %w", err)
	}

	result.EvidenceQuotes = collectQuotes(summaries)
	result.KeywordsAll = collectKeywords(summaries, domain.MaxKeywordsAll)

	return result, nil
}

// mapChunk summarizes one chunk. It never fails.
func (r *Reducer) mapChunk(ctx context.Context, index int, chunk string) chunkSummary {
	raw, err := r.client.Complete(ctx, llm.Request{
		Task:        llm.TaskChunkMap,
		System:      mapSystemPrompt,
		User:        chunk,
		Temperature: r.opts.Temperature,
		MaxTokens:   r.opts.MapMaxTokens,
		Schema:      mapSchema,
	})
	if err != nil {
		r.logger.Warn().Err(err).Int(logKeyChunk, index).Msg("chunk map call failed, using local summary")
		return fallbackChunkSummary(chunk)
	}

	parsed, err := llm.DecodeJSON[chunkSummary](raw)
	if err != nil {
		observability.StructuredParseFailures.WithLabelValues(stepMap).Inc()
		r.logger.Warn().Err(err).Int(logKeyChunk, index).Str(logKeyStep, stepMap).Msg("malformed chunk summary, using local summary")

		return fallbackChunkSummary(chunk)
	}

	parsed.MiniSummary = strings.TrimSpace(parsed.MiniSummary)
	if parsed.MiniSummary == "" {
		parsed.MiniSummary = analyzer.TruncateRunes(chunk, fallbackMiniSummaryRunes)
	}

	parsed.Emotions = cleanEmotions(parsed.Emotions)
	parsed.Keywords = dedupe(parsed.Keywords, chunkKeywordLimit)
	parsed.NotableQuotes = dedupe(parsed.NotableQuotes, chunkQuoteLimit)

	return parsed
}

// reduce merges the chunk summaries with one call. It never fails.
func (r *Reducer) reduce(ctx context.Context, summaries []chunkSummary) domain.AnalysisResult {
	var sb strings.Builder

	for i, s := range summaries {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, s.MiniSummary)
	}

	raw, err := r.client.Complete(ctx, llm.Request{
		Task:        llm.TaskChunkReduce,
		System:      reduceSystemPrompt,
		User:        sb.String(),
		Temperature: r.opts.Temperature,
		MaxTokens:   r.opts.ReduceMaxTokens,
		Schema:      reduceSchema,
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("chunk reduce call failed, using local merge")
		return fallbackReduce(summaries)
	}

	parsed, err := llm.DecodeJSON[reduceResult](raw)
	if err == nil && !domain.IsValence(parsed.Valence) {
		err = fmt.Errorf("%w: valence %q", errors.ErrParseFailure, parsed.Valence)
	}

	if err != nil {
		observability.StructuredParseFailures.WithLabelValues(stepReduce).Inc()
		r.logger.Warn().Err(err).Str(logKeyStep, stepReduce).Msg("malformed reduce result, using local merge")

		return fallbackReduce(summaries)
	}

	emotions := cleanEmotions(parsed.Emotions)
	if len(emotions) == 0 {
		emotions = []string{domain.DefaultEmotion(parsed.Valence)}
	}

	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		summary = joinedSummary(summaries)
	}

	return domain.AnalysisResult{
		Valence:  parsed.Valence,
		Emotions: emotions,
		Keywords: dedupe(parsed.Keywords, domain.MaxKeywords),
		Summary:  summary,
	}
}

func fallbackChunkSummary(chunk string) chunkSummary {
	return chunkSummary{
		MiniSummary:   analyzer.TruncateRunes(chunk, fallbackMiniSummaryRunes),
		Emotions:      []string{},
		Keywords:      []string{},
		NotableQuotes: []string{},
	}
}

func fallbackReduce(summaries []chunkSummary) domain.AnalysisResult {
	var all []string
	for _, s := range summaries {
		all = append(all, s.Emotions...)
	}

	emotions := cleanEmotions(all)
	if len(emotions) == 0 {
		emotions = []string{domain.DefaultEmotion(domain.ValenceNeutral)}
	}

	return domain.AnalysisResult{
		Valence:  domain.ValenceNeutral,
		Emotions: emotions,
		Keywords: collectKeywords(summaries, domain.MaxKeywords),
		Summary:  joinedSummary(summaries),
	}
}

func joinedSummary(summaries []chunkSummary) string {
	parts := make([]string, 0, len(summaries))
	for _, s := range summaries {
		parts = append(parts, s.MiniSummary)
	}

	return analyzer.TruncateRunes(strings.Join(parts, " "), fallbackSummaryRunes)
}

func collectQuotes(summaries []chunkSummary) []string {
	var all []string
	for _, s := range summaries {
		all = append(all, s.NotableQuotes...)
	}

	return dedupe(all, domain.MaxEvidenceQuotes)
}

func collectKeywords(summaries []chunkSummary, limit int) []string {
	var all []string
	for _, s := range summaries {
		all = append(all, s.Keywords...)
	}

	return dedupe(all, limit)
}

// cleanEmotions keeps known codes, drops duplicates and caps the list.
func cleanEmotions(codes []string) []string {
	known := make([]string, 0, len(codes))

	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if domain.IsEmotion(c) {
			known = append(known, c)
		}
	}

	return dedupe(known, domain.MaxEmotions)
}

// dedupe trims items, drops empty and repeated ones and keeps at most limit.
func dedupe(items []string, limit int) []string {
	out := make([]string, 0, min(len(items), limit))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		if _, ok := seen[item]; ok {
			continue
		}

		seen[item] = struct{}{}
		out = append(out, item)

		if len(out) == limit {
			break
		}
	}

	return out
}
