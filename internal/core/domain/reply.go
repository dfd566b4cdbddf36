package domain

import "sort"

// Risk categories of the coarse scan.
const (
	RiskSelfHarm = "self_harm"
	RiskViolence = "violence"
	RiskAbuse    = "abuse"
)

// Flag keys of DiaryReplyOutput.Flags.
const (
	FlagCrisis      = "crisis"
	FlagPIIDetected = "pii_detected"
	flagRiskPrefix  = "risk_"
)

// SafetyVerdict collects the outcome of the safety gate.
type SafetyVerdict struct {
	PIIDetected bool
	Crisis      bool
	RiskFlags   map[string]bool
}

// RiskHit reports whether any coarse risk category matched.
func (v SafetyVerdict) RiskHit() bool {
	for _, hit := range v.RiskFlags {
		if hit {
			return true
		}
	}

	return false
}

// SafetyFlag is true for crisis or any coarse risk hit.
func (v SafetyVerdict) SafetyFlag() bool {
	return v.Crisis || v.RiskHit()
}

// Flags renders the verdict as the caller-facing flag map.
func (v SafetyVerdict) Flags() map[string]bool {
	flags := map[string]bool{
		FlagCrisis:      v.Crisis,
		FlagPIIDetected: v.PIIDetected,
	}

	for category, hit := range v.RiskFlags {
		flags[flagRiskPrefix+category] = hit
	}

	return flags
}

// RiskCategories returns the matched categories in sorted order.
func (v SafetyVerdict) RiskCategories() []string {
	out := make([]string, 0, len(v.RiskFlags))

	for category, hit := range v.RiskFlags {
		if hit {
			out = append(out, category)
		}
	}

	sort.Strings(out)

	return out
}

// ReplyPair holds the two reply variants. An empty field was not requested.
type ReplyPair struct {
	Short  string
	Normal string
}

// DiaryReplyOutput is the final pipeline result.
type DiaryReplyOutput struct {
	ReplyShort  *string         `json:"reply_short"`
	ReplyNormal *string         `json:"reply_normal"`
	SafetyFlag  bool            `json:"safety_flag"`
	Flags       map[string]bool `json:"flags"`
	Analysis    *AnalysisResult `json:"analysis"`

	// Provenance, used by persistence and logging only.
	PresetUsed string `json:"-"`
	MoodHint   string `json:"-"`
	LongMode   bool   `json:"-"`
	Fallback   bool   `json:"-"`
}

// EmptyOutput is returned for whitespace-only input.
func EmptyOutput() DiaryReplyOutput {
	return DiaryReplyOutput{
		Flags: map[string]bool{},
	}
}

// NewOutput assembles an output from a reply pair. Empty variants stay nil.
func NewOutput(pair ReplyPair, verdict SafetyVerdict, analysis AnalysisResult) DiaryReplyOutput {
	a := analysis.Clone()

	out := DiaryReplyOutput{
		SafetyFlag: verdict.SafetyFlag(),
		Flags:      verdict.Flags(),
		Analysis:   &a,
	}

	if pair.Short != "" {
		s := pair.Short
		out.ReplyShort = &s
	}

	if pair.Normal != "" {
		n := pair.Normal
		out.ReplyNormal = &n
	}

	return out
}

// Short returns the short reply or "".
func (o DiaryReplyOutput) Short() string {
	if o.ReplyShort == nil {
		return ""
	}

	return *o.ReplyShort
}

// Normal returns the normal reply or "".
func (o DiaryReplyOutput) Normal() string {
	if o.ReplyNormal == nil {
		return ""
	}

	return *o.ReplyNormal
}
