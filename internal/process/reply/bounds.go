package reply

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Reply length bounds, in runes.
const (
	MaxShortRunes  = 180
	MaxNormalRunes = 500

	shortTargetRunes = 100
	ellipsis         = "…"
	sentenceEnds     = ".!?。…"
)

var sentencePattern = regexp.MustCompile(`[^.!?。…]+[.!?。…]*`)

// ClampRunes shortens s to at most limit runes, cutting at the last sentence
// end when one lies in the second half of the window.
func ClampRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	window := runes[:limit]

	for i := len(window) - 1; i >= limit/2; i-- {
		if strings.ContainsRune(sentenceEnds, window[i]) {
			return strings.TrimSpace(string(window[:i+1]))
		}
	}

	return strings.TrimSpace(string(runes[:limit-1])) + ellipsis
}

// ShortFromNormal derives a short reply from the leading sentences of a long one.
func ShortFromNormal(normal string) string {
	var out string

	for _, sentence := range sentencePattern.FindAllString(strings.TrimSpace(normal), -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		candidate := sentence
		if out != "" {
			candidate = out + " " + sentence
		}

		if out != "" && utf8.RuneCountInString(candidate) > shortTargetRunes {
			break
		}

		out = candidate
	}

	return ClampRunes(out, MaxShortRunes)
}

// withSuffix clamps s so that s plus suffix fits in limit, then appends suffix.
func withSuffix(s, suffix string, limit int) string {
	room := limit - utf8.RuneCountInString(suffix)

	return ClampRunes(s, room) + suffix
}
