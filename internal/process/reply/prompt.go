package reply

import (
	"fmt"
	"strings"

	"github.com/lueurxax/diary-replier/internal/core/domain"
)

var personas = map[string]string{
	domain.PresetWarm:  "너는 일기에 따뜻하게 답장하는 친구야. 먼저 마음을 알아주고 충분히 공감해 줘.",
	domain.PresetCoach: "너는 일기를 읽고 차분하게 응원하는 코치야. 공감을 먼저 전한 뒤 오늘 해볼 만한 작은 실천 하나를 제안해 줘.",
	domain.PresetShort: "너는 짧고 다정하게 답장하는 친구야. 군더더기 없이 꼭 필요한 말만 건네 줘.",
}

var tones = map[string]string{
	domain.ToneFriend: "친구처럼 편안하고 부드러운 존댓말을 써.",
	domain.ToneMentor: "믿음직한 선배처럼 차분하고 정중한 존댓말을 써.",
}

var bannedTerms = []string{"진단", "처방", "약물", "법적 책임", "규탄", "야단", "혼내"}

const formattingRules = `규칙:
- 공감이 먼저, 조언은 한두 가지까지만 제안형으로
- 과장하지 말고 자연스러운 한국어로
- 일기에 없는 사실을 지어내지 말 것
- 존중하는 말투를 유지할 것
- 다음 표현은 쓰지 말 것: %s`

const (
	directivePair = "reply_short에는 2~3문장, 100자 안팎의 짧은 답장을, " +
		"reply_normal에는 5~7문장, 200~280자 정도의 답장을 써 줘. JSON 객체 하나로만 답해."
	directivePairShortPreset = "reply_short에는 2문장, 80자 안팎의 짧은 답장을, " +
		"reply_normal에는 4~5문장, 200자 안팎의 답장을 써 줘. JSON 객체 하나로만 답해."
	directiveShort  = "일기에 2~3문장, 100자 안팎으로 짧게 답장해 줘. 답장 본문만 써."
	directiveNormal = "일기에 5~7문장, 200~280자 정도로 부드럽게 답장해 줘. 답장 본문만 써."
)

// buildSystemPrompt combines persona, tone and formatting rules.
func buildSystemPrompt(style Style) string {
	persona, ok := personas[style.Preset]
	if !ok {
		persona = personas[domain.DefaultPreset]
	}

	tone, ok := tones[style.Tone]
	if !ok {
		tone = tones[domain.ToneFriend]
	}

	return persona + " " + tone + "\n\n" + fmt.Sprintf(formattingRules, strings.Join(bannedTerms, ", "))
}

// buildUserPrompt embeds the analysis context, the diary text and directive.
func buildUserPrompt(in Input, directive string) string {
	var sb strings.Builder

	a := in.Analysis

	sb.WriteString("[분석]\n")
	fmt.Fprintf(&sb, "분위기: %s\n", orDash(a.Valence))
	fmt.Fprintf(&sb, "감정: %s\n", orDash(strings.Join(a.Emotions, ", ")))
	fmt.Fprintf(&sb, "키워드: %s\n", orDash(strings.Join(a.Keywords, ", ")))
	fmt.Fprintf(&sb, "요약: %s\n", orDash(a.Summary))

	if in.Style.Mood != "" {
		fmt.Fprintf(&sb, "기분 힌트: %s\n", in.Style.Mood)
	}

	if len(a.EvidenceQuotes) > 0 {
		sb.WriteString("\n[인상적인 문장]\n")

		for _, q := range a.EvidenceQuotes {
			fmt.Fprintf(&sb, "- %s\n", q)
		}
	}

	if len(a.KeywordsAll) > 0 {
		fmt.Fprintf(&sb, "전체 키워드: %s\n", strings.Join(a.KeywordsAll, ", "))
	}

	sb.WriteString("\n[일기]\n")
	sb.WriteString(strings.TrimSpace(in.Text))
	sb.WriteString("\n\n[요청]\n")
	sb.WriteString(directive)

	return sb.String()
}

func pairDirective(preset string) string {
	if preset == domain.PresetShort {
		return directivePairShortPreset
	}

	return directivePair
}

func singleDirective(length string) string {
	if length == domain.LengthShort {
		return directiveShort
	}

	return directiveNormal
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}

	return s
}
