package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/core/llm"
	"github.com/lueurxax/diary-replier/internal/core/ports/mocks"
	"github.com/lueurxax/diary-replier/internal/platform/config"
	"github.com/lueurxax/diary-replier/internal/process/guard"
	"github.com/lueurxax/diary-replier/internal/process/reply"
)

const (
	testShort  = "발표를 무사히 마친 오늘의 당신이 참 대견해요. 오늘 밤은 푹 쉬어요."
	testNormal = "프레젠테이션을 끝까지 해낸 건 정말 큰 일이에요. 준비하느라 쌓인 긴장이 풀리면서 피곤함이 몰려왔을 거예요. " +
		"뿌듯한 마음은 그대로 간직하고, 오늘은 몸이 원하는 만큼 쉬어 주세요. 따뜻한 차 한 잔도 좋겠어요."
)

type recordingClient struct {
	mu       sync.Mutex
	requests []llm.Request
	err      error
}

func (c *recordingClient) Complete(_ context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}

	if req.Task == llm.TaskReplyPair {
		b, _ := json.Marshal(map[string]string{"reply_short": testShort, "reply_normal": testNormal})
		return string(b), nil
	}

	return testNormal, nil
}

func (c *recordingClient) calls() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]llm.Request(nil), c.requests...)
}

type fakeLongClassifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeLongClassifier) ClassifyLong(_ context.Context, text string) (domain.AnalysisResult, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()

	if f.err != nil {
		return domain.AnalysisResult{}, f.err
	}

	return domain.AnalysisResult{
		Valence:  domain.ValenceNegative,
		Emotions: []string{domain.EmotionSad, domain.EmotionEmpty, domain.EmotionAngry},
		Keywords: []string{"회사"},
		Summary:  "긴 하루",
	}, nil
}

func (f *fakeLongClassifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.texts)
}

type fixture struct {
	client  *recordingClient
	long    *fakeLongClassifier
	presets *mocks.PresetStore
	logs    *mocks.DiaryLogStore
	p       *Pipeline
}

func newFixture(t *testing.T, cfg *config.Config, strict bool) *fixture {
	t.Helper()

	f := &fixture{
		client:  &recordingClient{},
		long:    &fakeLongClassifier{},
		presets: mocks.NewPresetStore(),
		logs:    mocks.NewDiaryLogStore(),
	}

	gen := reply.New(f.client, reply.Options{Strict: strict}, nil)
	f.p = New(cfg, f.long, gen, f.presets, f.logs, nil)

	return f
}

func TestProcess_MixedEntryIsPositive(t *testing.T) {
	f := newFixture(t, nil, false)

	out, err := f.p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: "오늘은 프레젠테이션이 끝나서 뿌듯했지만, 조금 피곤했어.", UserID: "u1", Date: "2024-03-05"},
	})
	require.NoError(t, err)

	require.NotNil(t, out.Analysis)
	assert.Equal(t, domain.ValencePositive, out.Analysis.Valence)
	assert.Equal(t, []string{domain.EmotionHappy, domain.EmotionEmpty}, out.Analysis.Emotions)
	assert.Equal(t, testShort, out.Short())
	assert.Equal(t, testNormal, out.Normal())
	assert.False(t, out.SafetyFlag)
	assert.False(t, out.Flags[domain.FlagCrisis])
	assert.False(t, out.Fallback)
	assert.False(t, out.LongMode)

	logs := f.logs.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "u1", logs[0].UserID)
	assert.Equal(t, domain.PresetWarm, logs[0].PresetUsed)
	assert.Equal(t, "happy,empty", logs[0].MoodHint)
	assert.Equal(t, testNormal, logs[0].TargetReply())
	require.NotNil(t, logs[0].EntryDate)
	assert.Equal(t, 5, logs[0].EntryDate.Day())
}

func TestProcess_CrisisShortCircuits(t *testing.T) {
	f := newFixture(t, nil, false)

	out, err := f.p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: "요즘 너무 힘들어서 다 끝내버리고 싶다는 생각이 들어."},
	})
	require.NoError(t, err)

	assert.True(t, out.SafetyFlag)
	assert.True(t, out.Flags[domain.FlagCrisis])
	assert.Equal(t, reply.CrisisMessage, out.Short())
	assert.Equal(t, reply.CrisisMessage, out.Normal())
	assert.Equal(t, domain.CrisisAnalysis(), *out.Analysis)
	assert.Len(t, out.Flags, 2)
	assert.Empty(t, f.client.calls())
	assert.Zero(t, f.long.count())

	logs := f.logs.Logs()
	require.Len(t, logs, 1)
	assert.True(t, logs[0].SafetyFlag)
}

func TestProcess_EmptyText(t *testing.T) {
	f := newFixture(t, nil, false)

	for _, text := range []string{"", "   \n\t"} {
		out, err := f.p.Process(context.Background(), Request{Input: domain.DiaryInput{Text: text}})
		require.NoError(t, err)

		assert.Nil(t, out.ReplyShort)
		assert.Nil(t, out.ReplyNormal)
		assert.Nil(t, out.Analysis)
		assert.Empty(t, out.Flags)
	}

	assert.Empty(t, f.client.calls())
	assert.Empty(t, f.logs.Logs())
}

func TestProcess_MasksPIIEverywhere(t *testing.T) {
	f := newFixture(t, nil, false)

	out, err := f.p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: "친구 연락처 010-1234-5678 받았고 메일은 me@example.com 이야. 오늘 좋았어."},
	})
	require.NoError(t, err)

	assert.True(t, out.Flags[domain.FlagPIIDetected])
	assert.False(t, out.SafetyFlag)

	calls := f.client.calls()
	require.Len(t, calls, 1)
	assert.NotContains(t, calls[0].User, "010-1234-5678")
	assert.NotContains(t, calls[0].User, "me@example.com")
	assert.Contains(t, calls[0].User, guard.RedactionToken)

	logs := f.logs.Logs()
	require.Len(t, logs, 1)
	assert.NotContains(t, logs[0].InputText, "010-1234-5678")
	assert.Contains(t, logs[0].InputText, guard.RedactionToken)
}

func TestProcess_RiskAdvisory(t *testing.T) {
	f := newFixture(t, nil, false)

	out, err := f.p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: "오늘 길에서 모르는 사람한테 맞았어. 너무 무서웠다."},
	})
	require.NoError(t, err)

	assert.True(t, out.SafetyFlag)
	assert.False(t, out.Flags[domain.FlagCrisis])
	assert.True(t, out.Flags["risk_violence"])
	assert.Contains(t, out.Normal(), "109")
	assert.Contains(t, out.Short(), "109")
}

func TestProcess_LongModeSelection(t *testing.T) {
	longText := strings.Repeat("회사 일이 많아서 지쳤다. ", 10)

	tests := []struct {
		name     string
		text     string
		opts     domain.Options
		meta     map[string]any
		wantLong bool
	}{
		{name: "short text", text: "오늘은 그냥 그랬다.", wantLong: false},
		{name: "over threshold", text: longText, wantLong: true},
		{name: "forced full", text: "오늘은 그냥 그랬다.", opts: domain.Options{LongMode: "full"}, wantLong: true},
		{name: "forced off", text: longText, opts: domain.Options{LongMode: "off"}, wantLong: false},
		{name: "meta flag", text: "오늘은 그냥 그랬다.", meta: map[string]any{domain.MetaLongMode: true}, wantLong: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &config.Config{LongTextThreshold: 50}, false)

			out, err := f.p.Process(context.Background(), Request{
				Input: domain.DiaryInput{Text: tt.text, Options: tt.opts, Meta: tt.meta},
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantLong, out.LongMode)

			if tt.wantLong {
				assert.Equal(t, 1, f.long.count())
				assert.Equal(t, domain.ValenceNegative, out.Analysis.Valence)
				assert.Equal(t, "sad,empty", out.MoodHint)
			} else {
				assert.Zero(t, f.long.count())
			}
		})
	}
}

func TestProcess_LongClassifierCanceled(t *testing.T) {
	f := newFixture(t, nil, false)
	f.long.err = context.Canceled

	_, err := f.p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: "오늘은 그냥 그랬다.", Options: domain.Options{LongMode: "full"}},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.logs.Logs())
}

func TestProcess_PresetPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		meta     map[string]any
		override string
		stored   string
		want     string
	}{
		{name: "default", want: domain.PresetWarm},
		{name: "stored", stored: domain.PresetShort, want: domain.PresetShort},
		{name: "override beats stored", override: "coach", stored: domain.PresetShort, want: domain.PresetCoach},
		{name: "meta beats override", meta: map[string]any{"preset": "SHORT"}, override: "coach", want: domain.PresetShort},
		{name: "invalid meta skipped", meta: map[string]any{"preset": "grumpy"}, override: "coach", want: domain.PresetCoach},
		{name: "invalid stored skipped", stored: "grumpy", want: domain.PresetWarm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, false)
			if tt.stored != "" {
				f.presets.Set("u1", tt.stored, "")
			}

			out, err := f.p.Process(context.Background(), Request{
				Input:          domain.DiaryInput{Text: "오늘은 그냥 그랬다.", UserID: "u1", Meta: tt.meta},
				PresetOverride: tt.override,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.want, out.PresetUsed)
		})
	}
}

func TestProcess_ConfiguredDefaultPreset(t *testing.T) {
	f := newFixture(t, &config.Config{DefaultPreset: "coach", DefaultTone: "mentor"}, false)

	out, err := f.p.Process(context.Background(), Request{Input: domain.DiaryInput{Text: "오늘은 그냥 그랬다."}})
	require.NoError(t, err)

	assert.Equal(t, domain.PresetCoach, out.PresetUsed)
}

func TestProcess_MoodPrecedence(t *testing.T) {
	f := newFixture(t, nil, false)
	f.presets.Set("u1", domain.PresetWarm, "차분")

	out, err := f.p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: "오늘은 행복했다.", UserID: "u1", Meta: map[string]any{"mood": "설렘"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "설렘", out.MoodHint)

	out, err = f.p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: "오늘은 행복했다.", UserID: "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "차분", out.MoodHint)

	out, err = f.p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: "오늘은 행복했다.", UserID: "someone-else"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EmotionHappy, out.MoodHint)
}

func TestProcess_PresetLookupErrorIgnored(t *testing.T) {
	f := newFixture(t, nil, false)
	f.presets.GetUserPresetFn = func(context.Context, string) (*domain.UserPreset, error) {
		return nil, assert.AnError
	}

	out, err := f.p.Process(context.Background(), Request{Input: domain.DiaryInput{Text: "오늘은 그냥 그랬다.", UserID: "u1"}})
	require.NoError(t, err)
	assert.Equal(t, domain.PresetWarm, out.PresetUsed)
}

func TestProcess_LengthOption(t *testing.T) {
	f := newFixture(t, nil, false)

	out, err := f.p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: "오늘은 그냥 그랬다.", Options: domain.Options{Length: "normal"}},
	})
	require.NoError(t, err)

	assert.Nil(t, out.ReplyShort)
	assert.Equal(t, testNormal, out.Normal())

	calls := f.client.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.TaskReplySingle, calls[0].Task)
}

func TestProcess_FallbackWhenNoProvider(t *testing.T) {
	f := newFixture(t, nil, true)
	f.client.err = errors.ErrNoProvidersAvailable

	out, err := f.p.Process(context.Background(), Request{Input: domain.DiaryInput{Text: "오늘은 그냥 그랬다."}})
	require.NoError(t, err)

	assert.True(t, out.Fallback)
	assert.Equal(t, reply.FallbackShort, out.Short())
	assert.Equal(t, reply.FallbackNormal, out.Normal())
	assert.Len(t, f.logs.Logs(), 1)
}

func TestProcess_StrictFailurePropagates(t *testing.T) {
	f := newFixture(t, nil, true)
	f.client.err = assert.AnError

	_, err := f.p.Process(context.Background(), Request{Input: domain.DiaryInput{Text: "오늘은 그냥 그랬다."}})
	require.ErrorIs(t, err, errors.ErrGenerationUnavailable)
	assert.Empty(t, f.logs.Logs())
}

func TestProcess_PersistFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, nil, false)
	f.logs.SaveDiaryLogFn = func(context.Context, *domain.DiaryLog) (int64, error) {
		return 0, assert.AnError
	}

	out, err := f.p.Process(context.Background(), Request{Input: domain.DiaryInput{Text: "오늘은 그냥 그랬다."}})
	require.NoError(t, err)
	assert.Equal(t, testNormal, out.Normal())
}

func TestProcess_WithoutStorage(t *testing.T) {
	gen := reply.New(&recordingClient{}, reply.Options{}, nil)
	p := New(nil, nil, gen, nil, nil, nil)

	out, err := p.Process(context.Background(), Request{
		Input: domain.DiaryInput{Text: strings.Repeat("오늘은 그냥 그랬다. ", 200), UserID: "u1"},
	})
	require.NoError(t, err)

	assert.False(t, out.LongMode)
	assert.Equal(t, testShort, out.Short())
}
