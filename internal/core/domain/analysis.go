package domain

// Valence values.
const (
	ValencePositive = "positive"
	ValenceNegative = "negative"
	ValenceNeutral  = "neutral"
)

// Emotion codes, in lexicon declaration order.
const (
	EmotionHappy = "happy"
	EmotionSad   = "sad"
	EmotionAngry = "angry"
	EmotionShy   = "shy"
	EmotionEmpty = "empty"
)

// Result caps.
const (
	MaxEmotions       = 3
	MaxKeywords       = 8
	MaxEvidenceQuotes = 6
	MaxKeywordsAll    = 12
)

// EmotionVocabulary lists every emotion code in declaration order.
var EmotionVocabulary = []string{EmotionHappy, EmotionSad, EmotionAngry, EmotionShy, EmotionEmpty}

// IsEmotion reports whether code belongs to the emotion vocabulary.
func IsEmotion(code string) bool {
	for _, e := range EmotionVocabulary {
		if e == code {
			return true
		}
	}

	return false
}

// IsValence reports whether v is one of the three valence values.
func IsValence(v string) bool {
	return v == ValencePositive || v == ValenceNegative || v == ValenceNeutral
}

// DefaultEmotion returns the fallback emotion for a valence.
func DefaultEmotion(valence string) string {
	switch valence {
	case ValencePositive:
		return EmotionHappy
	case ValenceNegative:
		return EmotionSad
	default:
		return EmotionEmpty
	}
}

// AnalysisResult is the emotional classification of a diary entry.
// EvidenceQuotes and KeywordsAll only enrich generation and are never
// serialized to callers.
type AnalysisResult struct {
	Valence  string   `json:"valence"`
	Emotions []string `json:"emotions"`
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`

	EvidenceQuotes []string `json:"-"`
	KeywordsAll    []string `json:"-"`
}

// HasEmotion reports whether code is among the detected emotions.
func (a AnalysisResult) HasEmotion(code string) bool {
	for _, e := range a.Emotions {
		if e == code {
			return true
		}
	}

	return false
}

// Clone returns a deep copy. Emotions and Keywords are never nil in the copy
// so they serialize as JSON lists.
func (a AnalysisResult) Clone() AnalysisResult {
	return AnalysisResult{
		Valence:        a.Valence,
		Emotions:       copyStrings(a.Emotions),
		Keywords:       copyStrings(a.Keywords),
		Summary:        a.Summary,
		EvidenceQuotes: append([]string(nil), a.EvidenceQuotes...),
		KeywordsAll:    append([]string(nil), a.KeywordsAll...),
	}
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)

	return out
}

// CrisisAnalysis is the placeholder analysis attached to a crisis response.
func CrisisAnalysis() AnalysisResult {
	return AnalysisResult{
		Valence:  ValenceNegative,
		Emotions: []string{EmotionSad},
		Keywords: []string{},
		Summary:  "",
	}
}
