package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/diary-replier/internal/core/domain"
)

func TestMaskPII(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantText    string
		wantFlagged bool
	}{
		{name: "phone", text: "내 번호는 010-1234-5678 이야.", wantText: "내 번호는 [민감정보] 이야.", wantFlagged: true},
		{name: "email", text: "메일은 test@example.com 으로 주세요.", wantText: "메일은 [민감정보] 으로 주세요.", wantFlagged: true},
		{name: "both", text: "02-123-4567, a.b@c.kr", wantText: "[민감정보], [민감정보]", wantFlagged: true},
		{name: "clean", text: "오늘은 피곤했어.", wantText: "오늘은 피곤했어.", wantFlagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, flagged := MaskPII(tt.text)
			assert.Equal(t, tt.wantText, got)
			assert.Equal(t, tt.wantFlagged, flagged)

			for _, pat := range piiPatterns {
				assert.False(t, pat.MatchString(got))
			}

			again, _ := MaskPII(tt.text)
			assert.Equal(t, got, again)
		})
	}
}

func TestDetectCrisis(t *testing.T) {
	positive := []string{
		"나 정말 죽고 싶어...",
		"요즘 너무 힘들어서 다 끝내버리고 싶다는 생각이 들어.",
		"자살이라는 단어가 떠올랐다",
		"목숨을   끊을까",
		"그냥 살기\n싫다",
		"극단적인 선택을 생각했다",
		"희망이 없어",
	}

	for _, text := range positive {
		assert.True(t, DetectCrisis(text), text)
	}

	negative := []string{
		"오늘은 피곤했어.",
		"빨리 퇴근하고 싶다",
		"",
	}

	for _, text := range negative {
		assert.False(t, DetectCrisis(text), text)
	}
}

func TestSafetyScan(t *testing.T) {
	hit, flags := SafetyScan("친구가 나를 때리고 폭언을 했다")

	assert.True(t, hit)
	assert.Equal(t, map[string]bool{
		domain.RiskSelfHarm: false,
		domain.RiskViolence: true,
		domain.RiskAbuse:    true,
	}, flags)

	hit, flags = SafetyScan("I read about ABUSE today")
	assert.True(t, hit)
	assert.True(t, flags[domain.RiskAbuse])

	hit, flags = SafetyScan("평범한 하루")
	assert.False(t, hit)
	assert.Len(t, flags, 3)
}

func TestCheck(t *testing.T) {
	masked, verdict := Check("연락처 010-1111-2222, 오늘 맞았다")

	assert.Equal(t, "연락처 [민감정보], 오늘 맞았다", masked)
	assert.True(t, verdict.PIIDetected)
	assert.False(t, verdict.Crisis)
	assert.True(t, verdict.RiskFlags[domain.RiskViolence])

	_, verdict = Check("죽고 싶다")
	require.True(t, verdict.Crisis)
	assert.Nil(t, verdict.RiskFlags)
}
