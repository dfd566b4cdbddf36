// Package analyzer classifies a diary entry with static lexicons.
//
// Classify derives:
//   - up to three emotion codes in lexicon order
//   - a valence by a fixed priority rule
//   - frequency-ranked keywords
//   - a head/tail summary
//
// Every function is pure and deterministic.
package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/lueurxax/diary-replier/internal/core/domain"
)

const (
	// DefaultKeywordLimit is the number of keywords Classify returns.
	DefaultKeywordLimit = 5

	minKeywordRunes  = 2
	summaryPartRunes = 120
	summarySeparator = " … "
)

var sentenceSplit = regexp.MustCompile(`[.!?？。…\n]+`)

var folder = cases.Fold()

// Normalize composes Hangul jamo so lexicon lookups work on NFD input.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// Classify returns the lexicon-based analysis of text.
func Classify(text string) domain.AnalysisResult {
	text = Normalize(text)

	emotions := DetectEmotions(text)
	valence := JudgeValence(text, emotions)

	if len(emotions) == 0 {
		emotions = []string{domain.DefaultEmotion(valence)}
	}

	return domain.AnalysisResult{
		Valence:  valence,
		Emotions: emotions,
		Keywords: ExtractKeywords(text, DefaultKeywordLimit),
		Summary:  Summarize(text),
	}
}

// DetectEmotions returns up to MaxEmotions codes whose keywords occur in text,
// in lexicon order.
func DetectEmotions(text string) []string {
	found := make([]string, 0, domain.MaxEmotions)

	for _, entry := range emotionLexicon {
		if containsAny(text, entry.keywords) {
			found = append(found, entry.code)
		}

		if len(found) == domain.MaxEmotions {
			break
		}
	}

	return found
}

// JudgeValence applies the valence rule. Detected emotions take priority over
// the positive and negative word counts.
func JudgeValence(text string, emotions []string) string {
	has := func(code string) bool {
		for _, e := range emotions {
			if e == code {
				return true
			}
		}

		return false
	}

	switch {
	case has(domain.EmotionHappy):
		return domain.ValencePositive
	case has(domain.EmotionSad), has(domain.EmotionAngry):
		return domain.ValenceNegative
	}

	pos := countOccurrences(text, positiveWords)
	neg := countOccurrences(text, negativeWords)

	switch {
	case pos == 0 && neg == 0:
		return domain.ValenceNeutral
	case pos >= neg:
		return domain.ValencePositive
	default:
		return domain.ValenceNegative
	}
}

// ExtractKeywords returns the limit most frequent tokens. Ties keep the order
// in which tokens first appeared.
func ExtractKeywords(text string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	words := strings.FieldsFunc(folder.String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	counts := make(map[string]int)
	order := make([]string, 0, len(words))

	for _, word := range words {
		if utf8.RuneCountInString(word) < minKeywordRunes {
			continue
		}

		if _, stop := stopwords[word]; stop {
			continue
		}

		if counts[word] == 0 {
			order = append(order, word)
		}

		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}

	return order
}

// Summarize returns the first sentence and, when different, the last one.
// Each part is cut to 120 runes.
func Summarize(text string) string {
	parts := sentenceSplit.Split(strings.TrimSpace(text), -1)

	sentences := make([]string, 0, len(parts))

	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		return ""
	}

	head := TruncateRunes(sentences[0], summaryPartRunes)
	if len(sentences) == 1 {
		return head
	}

	tail := TruncateRunes(sentences[len(sentences)-1], summaryPartRunes)
	if tail == head {
		return head
	}

	return head + summarySeparator + tail
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}

	if utf8.RuneCountInString(s) <= n {
		return s
	}

	runes := []rune(s)

	return string(runes[:n])
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}

	return false
}

func countOccurrences(text string, words []string) int {
	total := 0
	for _, w := range words {
		total += strings.Count(text, w)
	}

	return total
}
