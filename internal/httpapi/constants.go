package httpapi

import "time"

// HTTP header constants.
const (
	headerContentType = "Content-Type"
	headerRequestID   = "X-Request-Id"
	headerAPIKey      = "X-API-Key"
	headerUserID      = "X-User-Id"
	headerPreset      = "X-Preset"

	contentTypeJSON = "application/json"
)

// Routes.
const (
	routeReplyV1   = "POST /v1/diary/reply"
	routeReply     = "POST /diary/reply"
	routeLogs      = "GET /diary/logs"
	routeSetPreset = "POST /user/preset"
	routeGetPreset = "GET /user/preset/{user_id}"
)

// Paths that skip API key checks.
var publicPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/version": true,
}

// Log field constants.
const (
	logFieldRequestID = "request_id"
	logFieldMethod    = "method"
	logFieldPath      = "path"
	logFieldStatus    = "status"
	logFieldLatencyMS = "latency_ms"
	logFieldClientIP  = "client_ip"
)

// Rate limiting constants.
const (
	rateLimitRequests = 30
	rateLimitBurst    = 10
	rateLimitWindow   = time.Minute
)

const (
	requestIDLength   = 8
	maxBodyBytes      = 1 << 20
	defaultLogLimit   = 20
	maxLogLimit       = 200
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 90 * time.Second
)

// Error details.
const (
	detailForbidden        = "Forbidden"
	detailTooManyRequests  = "Too Many Requests"
	detailInvalidBody      = "invalid request body"
	detailPresetNotFound   = "Preset not found"
	detailStorageDisabled  = "storage disabled"
	detailGenerationFailed = "reply generation unavailable"
	detailInternal         = "internal error"
	detailInvalidLimit     = "limit must be between 1 and 200"
	detailUserIDRequired   = "user_id is required"
)
