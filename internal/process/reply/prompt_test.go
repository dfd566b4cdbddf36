package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/diary-replier/internal/core/domain"
)

func TestBuildSystemPrompt(t *testing.T) {
	coach := buildSystemPrompt(Style{Preset: domain.PresetCoach, Tone: domain.ToneMentor})
	assert.Contains(t, coach, "코치")
	assert.Contains(t, coach, "선배")

	unknown := buildSystemPrompt(Style{Preset: "grumpy", Tone: "boss"})
	assert.Contains(t, unknown, personas[domain.PresetWarm])
	assert.Contains(t, unknown, tones[domain.ToneFriend])

	for _, term := range bannedTerms {
		assert.Contains(t, unknown, term)
	}
}

func TestBuildUserPrompt(t *testing.T) {
	in := Input{
		Text: "  일기 본문  ",
		Analysis: domain.AnalysisResult{
			Valence:        domain.ValenceNeutral,
			Emotions:       []string{domain.EmotionEmpty},
			EvidenceQuotes: []string{"인용 하나"},
			KeywordsAll:    []string{"산책", "비"},
		},
		Style: Style{Mood: "empty"},
	}

	got := buildUserPrompt(in, directiveShort)

	assert.Contains(t, got, "키워드: -")
	assert.Contains(t, got, "기분 힌트: empty")
	assert.Contains(t, got, "- 인용 하나")
	assert.Contains(t, got, "전체 키워드: 산책, 비")
	assert.Contains(t, got, "[일기]\n일기 본문\n")
	assert.Contains(t, got, directiveShort)

	assert.Equal(t, directivePairShortPreset, pairDirective(domain.PresetShort))
	assert.Equal(t, directivePair, pairDirective(domain.PresetWarm))
	assert.Equal(t, directiveNormal, singleDirective(domain.LengthNormal))
}
