// Package guard screens diary text before it reaches a provider.
//
// MaskPII redacts phone numbers and emails. DetectCrisis is the hard gate for
// self-harm language and forces the fixed crisis reply. SafetyScan is an
// advisory keyword scan whose hits only append a referral suffix.
package guard

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/lueurxax/diary-replier/internal/core/domain"
)

// RedactionToken replaces every PII match.
const RedactionToken = "[민감정보]"

// piiPatterns are applied in order: phone numbers, then emails.
var piiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{2,3}-\d{3,4}-\d{4}\b`),
	regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
}

var crisisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`죽고\s*싶[다어요]?`),
	regexp.MustCompile(`자살`),
	regexp.MustCompile(`목숨(?:을)?\s*끊`),
	regexp.MustCompile(`스스로\s*(?:를)?\s*끝내`),
	regexp.MustCompile(`해치고\s*싶[다어요]?`),
	regexp.MustCompile(`끝내(?:버리)?고\s*싶[다어요]?`),
	regexp.MustCompile(`삶(?:을)?\s*끝내`),
	regexp.MustCompile(`살기\s*싫[다어요]?`),
	regexp.MustCompile(`없어지고\s*싶[다어요]?`),
	regexp.MustCompile(`극단적(?:인)?\s*선택`),
	regexp.MustCompile(`희망이\s*없`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

type riskCategory struct {
	name     string
	keywords []string
}

var riskCategories = []riskCategory{
	{name: domain.RiskSelfHarm, keywords: []string{"자해", "자살", "죽고 싶", "손목", "self-harm", "suicide"}},
	{name: domain.RiskViolence, keywords: []string{"폭력", "때리", "때렸", "맞았", "죽이", "칼로", "violence", "kill"}},
	{name: domain.RiskAbuse, keywords: []string{"학대", "괴롭힘", "폭언", "성추행", "가스라이팅", "abuse", "bully"}},
}

var folder = cases.Fold()

// MaskPII replaces every PII match with RedactionToken and reports whether
// anything matched.
func MaskPII(text string) (string, bool) {
	flagged := false

	for _, pat := range piiPatterns {
		if pat.MatchString(text) {
			flagged = true
			text = pat.ReplaceAllString(text, RedactionToken)
		}
	}

	return text, flagged
}

// DetectCrisis reports whether text contains crisis language. Whitespace runs
// are collapsed first so spacing variants still match.
func DetectCrisis(text string) bool {
	t := normalize(text)

	for _, pat := range crisisPatterns {
		if pat.MatchString(t) {
			return true
		}
	}

	return false
}

// SafetyScan checks every risk category by case-insensitive keyword presence.
// The returned map always holds every category.
func SafetyScan(text string) (bool, map[string]bool) {
	folded := folder.String(normalize(text))

	flags := make(map[string]bool, len(riskCategories))
	hit := false

	for _, category := range riskCategories {
		matched := false

		for _, k := range category.keywords {
			if strings.Contains(folded, folder.String(k)) {
				matched = true
				break
			}
		}

		flags[category.name] = matched
		hit = hit || matched
	}

	return hit, flags
}

// Check runs the whole gate. The returned text is masked and is the only
// version that may leave the process.
func Check(text string) (string, domain.SafetyVerdict) {
	masked, pii := MaskPII(text)

	verdict := domain.SafetyVerdict{
		PIIDetected: pii,
		Crisis:      DetectCrisis(masked),
	}

	if !verdict.Crisis {
		_, verdict.RiskFlags = SafetyScan(masked)
	}

	return masked, verdict
}

func normalize(text string) string {
	t := norm.NFC.String(text)

	return strings.TrimSpace(whitespaceRun.ReplaceAllString(t, " "))
}
