package pipeline

import "time"

// State is a step of one pipeline run.
type State string

// Pipeline states. EMPTY, CRISIS_SHORT_CIRCUIT and DONE are terminal.
const (
	StateReceived State = "received"
	StateEmpty    State = "empty"
	StateMasked   State = "masked"
	StateCrisis   State = "crisis_short_circuit"
	StateClassify State = "classify"
	StateGenerate State = "generate"
	StatePersist  State = "persist"
	StateDone     State = "done"
)

// Outcome labels for the request counter.
const (
	OutcomeEmpty    = "empty"
	OutcomeCrisis   = "crisis"
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Classification paths for the duration histogram.
const (
	PathShort  = "short"
	PathLong   = "long"
	PathCrisis = "crisis"
)

// Log field constants
const (
	LogFieldRequestID = "request_id"
	LogFieldUserID    = "user_id"
	LogFieldState     = "state"
	LogFieldPath      = "path"
	LogFieldPreset    = "preset"
	LogFieldLatencyMS = "latency_ms"
	LogFieldLogID     = "log_id"
	LogFieldTextLen   = "text_len"
)

const (
	// DefaultLongTextThreshold is the rune count above which the long path runs.
	DefaultLongTextThreshold = 1000

	defaultPersistTimeout = 3 * time.Second
	moodEmotionCount      = 2
	moodSeparator         = ","
)
