// Package pipeline runs one diary entry through the safety gate, the
// classifier and the reply generator, and records the outcome.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/core/ports"
	"github.com/lueurxax/diary-replier/internal/platform/config"
	"github.com/lueurxax/diary-replier/internal/platform/observability"
	"github.com/lueurxax/diary-replier/internal/process/analyzer"
	"github.com/lueurxax/diary-replier/internal/process/guard"
	"github.com/lueurxax/diary-replier/internal/process/reply"
)

// LongClassifier classifies texts too long for the lexicon path.
type LongClassifier interface {
	ClassifyLong(ctx context.Context, text string) (domain.AnalysisResult, error)
}

// Replier produces the reply pair for a classified entry.
type Replier interface {
	Reply(ctx context.Context, in reply.Input) (reply.Result, error)
}

// Request is one diary entry plus transport-level overrides.
type Request struct {
	Input domain.DiaryInput

	// PresetOverride comes from the X-Preset header or a bot command.
	PresetOverride string
	RequestID      string
}

// Pipeline is the diary reply orchestrator. It is safe for concurrent use.
type Pipeline struct {
	settings pipelineSettings
	long     LongClassifier
	replier  Replier
	presets  ports.PresetReader
	logs     ports.DiaryLogWriter
	logger   *zerolog.Logger
	nowFunc  func() time.Time
}

// New creates a Pipeline. presets and logs may be nil when storage is disabled.
func New(cfg *config.Config, long LongClassifier, replier Replier, presets ports.PresetReader, logs ports.DiaryLogWriter, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Pipeline{
		settings: settingsFromConfig(cfg),
		long:     long,
		replier:  replier,
		presets:  presets,
		logs:     logs,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// run carries the per-request state through the steps.
type run struct {
	req      Request
	started  time.Time
	state    State
	masked   string
	verdict  domain.SafetyVerdict
	analysis domain.AnalysisResult
	style    reply.Style
	longMode bool
	logger   zerolog.Logger
}

func (r *run) enter(state State) {
	r.state = state
	r.logger.Debug().Str(LogFieldState, string(state)).Msg("pipeline state")
}

// Process produces the reply for one entry. Input validation is the caller's
// job; whitespace-only text yields the empty output. Errors are returned only
// for a canceled context or a strict-mode generation failure.
func (p *Pipeline) Process(ctx context.Context, req Request) (domain.DiaryReplyOutput, error) {
	r := &run{
		req:     req,
		started: p.nowFunc(),
		logger: p.logger.With().
			Str(LogFieldRequestID, req.RequestID).
			Str(LogFieldUserID, req.Input.UserID).
			Int(LogFieldTextLen, utf8.RuneCountInString(req.Input.Text)).
			Logger(),
	}

	r.enter(StateReceived)

	if strings.TrimSpace(req.Input.Text) == "" {
		r.enter(StateEmpty)
		observability.DiaryRequests.WithLabelValues(OutcomeEmpty).Inc()

		return domain.EmptyOutput(), nil
	}

	r.masked, r.verdict = guard.Check(req.Input.Text)
	r.enter(StateMasked)

	if r.verdict.PIIDetected {
		observability.SafetyEvents.WithLabelValues("pii").Inc()
	}

	if r.verdict.Crisis {
		return p.crisis(ctx, r), nil
	}

	for _, category := range r.verdict.RiskCategories() {
		observability.SafetyEvents.WithLabelValues("risk_" + category).Inc()
	}

	r.enter(StateClassify)

	if err := p.classify(ctx, r); err != nil {
		observability.DiaryRequests.WithLabelValues(OutcomeError).Inc()
		return domain.DiaryReplyOutput{}, err
	}

	r.enter(StateGenerate)
	r.style = p.resolveStyle(ctx, r)

	res, err := p.replier.Reply(ctx, reply.Input{
		Text:         r.masked,
		Analysis:     r.analysis,
		Style:        r.style,
		RiskAdvisory: r.verdict.RiskHit(),
	})
	if err != nil {
		observability.DiaryRequests.WithLabelValues(OutcomeError).Inc()
		r.logger.Warn().Err(err).Msg("reply generation failed")

		return domain.DiaryReplyOutput{}, fmt.Errorf("generate reply: %w", err)
	}

	out := domain.NewOutput(res.Pair, r.verdict, r.analysis)
	out.PresetUsed = r.style.Preset
	out.MoodHint = r.style.Mood
	out.LongMode = r.longMode
	out.Fallback = res.Fallback

	path := PathShort
	if r.longMode {
		path = PathLong
	}

	p.persist(ctx, r, out)
	p.finish(r, out, path)

	return out, nil
}

// crisis answers with the fixed safety message. Classification and
// generation are skipped.
func (p *Pipeline) crisis(ctx context.Context, r *run) domain.DiaryReplyOutput {
	r.enter(StateCrisis)
	observability.SafetyEvents.WithLabelValues(domain.FlagCrisis).Inc()

	verdict := domain.SafetyVerdict{PIIDetected: r.verdict.PIIDetected, Crisis: true}

	out := domain.NewOutput(reply.CrisisPair(), verdict, domain.CrisisAnalysis())
	out.PresetUsed = p.presetFromRequest(r)

	p.persist(ctx, r, out)
	p.finish(r, out, PathCrisis)

	return out
}

func (p *Pipeline) classify(ctx context.Context, r *run) error {
	r.longMode = p.useLongMode(r.req.Input) && p.long != nil

	if !r.longMode {
		r.analysis = analyzer.Classify(r.masked)
		return nil
	}

	analysis, err := p.long.ClassifyLong(ctx, r.masked)
	if err != nil {
		return fmt.Errorf("classify long text: %w", err)
	}

	r.analysis = analysis

	return nil
}

// useLongMode applies, in order: the long_mode option, the long_mode meta
// flag and the length threshold.
func (p *Pipeline) useLongMode(in domain.DiaryInput) bool {
	switch in.Options.Normalize().LongMode {
	case domain.LongModeFull:
		return true
	case domain.LongModeOff:
		return false
	}

	if in.MetaBool(domain.MetaLongMode) {
		return true
	}

	return utf8.RuneCountInString(in.Text) > p.settings.longTextThreshold
}

// resolveStyle picks preset, tone, mood and length. Preset precedence is
// meta, override, stored preference, configured default. Mood precedence is
// meta, stored default, the first detected emotions.
func (p *Pipeline) resolveStyle(ctx context.Context, r *run) reply.Style {
	in := r.req.Input
	opts := in.Options.Normalize()

	style := reply.Style{
		Tone:   p.settings.defaultTone,
		Length: opts.Length,
	}

	if strings.TrimSpace(in.Options.Tone) != "" {
		style.Tone = opts.Tone
	}

	stored := p.storedPreset(ctx, r)

	candidates := []string{in.MetaString(domain.MetaPreset), r.req.PresetOverride}
	if stored != nil {
		candidates = append(candidates, stored.Preset)
	}

	style.Preset = p.firstValidPreset(r, candidates)

	style.Mood = in.MetaString(domain.MetaMood)
	if style.Mood == "" && stored != nil {
		style.Mood = strings.TrimSpace(stored.MoodDefault)
	}

	if style.Mood == "" {
		emotions := r.analysis.Emotions
		if len(emotions) > moodEmotionCount {
			emotions = emotions[:moodEmotionCount]
		}

		style.Mood = strings.Join(emotions, moodSeparator)
	}

	return style
}

// presetFromRequest resolves the preset without a storage lookup.
func (p *Pipeline) presetFromRequest(r *run) string {
	return p.firstValidPreset(r, []string{r.req.Input.MetaString(domain.MetaPreset), r.req.PresetOverride})
}

func (p *Pipeline) firstValidPreset(r *run, candidates []string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}

		preset, err := domain.NormalizePreset(c)
		if err != nil {
			r.logger.Warn().Err(err).Msg("ignoring preset")
			continue
		}

		return preset
	}

	return p.settings.defaultPreset
}

func (p *Pipeline) storedPreset(ctx context.Context, r *run) *domain.UserPreset {
	userID := strings.TrimSpace(r.req.Input.UserID)
	if p.presets == nil || userID == "" {
		return nil
	}

	preset, err := p.presets.GetUserPreset(ctx, userID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			r.logger.Warn().Err(err).Msg("failed to load user preset")
		}

		return nil
	}

	return preset
}

// persist writes the run to the diary log. Failures are counted and logged
// and never reach the caller.
func (p *Pipeline) persist(ctx context.Context, r *run, out domain.DiaryReplyOutput) {
	if p.logs == nil {
		return
	}

	r.enter(StatePersist)

	entry := &domain.DiaryLog{
		CreatedAt:   p.nowFunc().UTC(),
		UserID:      strings.TrimSpace(r.req.Input.UserID),
		PresetUsed:  out.PresetUsed,
		MoodHint:    out.MoodHint,
		InputText:   r.masked,
		ReplyShort:  out.Short(),
		ReplyNormal: out.Normal(),
		SafetyFlag:  out.SafetyFlag,
		Flags:       out.Flags,
		LatencyMS:   p.nowFunc().Sub(r.started).Milliseconds(),
	}

	if out.Analysis != nil {
		entry.Valence = out.Analysis.Valence
		entry.Emotions = out.Analysis.Emotions
		entry.Keywords = out.Analysis.Keywords
		entry.Summary = out.Analysis.Summary
	}

	if d, err := r.req.Input.EntryDate(); err == nil && !d.IsZero() {
		entry.EntryDate = &d
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.settings.persistTimeout)
	defer cancel()

	id, err := p.logs.SaveDiaryLog(persistCtx, entry)
	if err != nil {
		observability.PersistenceFailures.Inc()
		r.logger.Warn().Err(fmt.Errorf("%w: %w", errors.ErrPersistence, err)).Msg("failed to save diary log")

		return
	}

	r.logger.Debug().Int64(LogFieldLogID, id).Msg("diary log saved")
}

func (p *Pipeline) finish(r *run, out domain.DiaryReplyOutput, path string) {
	r.enter(StateDone)

	elapsed := p.nowFunc().Sub(r.started)
	observability.DiaryPipelineDuration.WithLabelValues(path).Observe(elapsed.Seconds())

	outcome := OutcomeOK

	switch {
	case path == PathCrisis:
		outcome = OutcomeCrisis
	case out.Fallback:
		outcome = OutcomeFallback
	}

	observability.DiaryRequests.WithLabelValues(outcome).Inc()

	r.logger.Info().
		Str(LogFieldPath, path).
		Str(LogFieldPreset, out.PresetUsed).
		Bool("safety_flag", out.SafetyFlag).
		Int64(LogFieldLatencyMS, elapsed.Milliseconds()).
		Msg("diary reply done")
}
