package reply

const (
	logKeyPreset    = "preset"
	logKeyLength    = "length"
	logKeyReason    = "reason"
	logKeyRawLength = "raw_length"

	stepReplyPair   = "reply_pair"
	schemaNamePair  = "diary_reply_pair"
	defaultMaxToken = 700
	defaultTemp     = 0.6
)

// Fallback reasons for metrics and logs.
const (
	ReasonNoProvider       = "no_provider"
	ReasonBudget           = "budget"
	ReasonCircuitOpen      = "circuit_open"
	ReasonRetriesExhausted = "retries_exhausted"
	ReasonError            = "error"
)
