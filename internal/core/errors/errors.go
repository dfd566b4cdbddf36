// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Validation errors. These are raised before the pipeline runs and surfaced
// by the caller layer (HTTP 400, bot help message).
var (
	// ErrEmptyText indicates the diary text is empty or whitespace only.
	ErrEmptyText = errors.New("text is empty")

	// ErrTextTooShort indicates the diary text is below the minimum length.
	ErrTextTooShort = errors.New("text is too short")

	// ErrTextTooLong indicates the diary text exceeds the maximum length.
	ErrTextTooLong = errors.New("text is too long")

	// ErrInvalidPreset indicates an unknown reply preset name.
	ErrInvalidPreset = errors.New("invalid preset")

	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Generation errors.
var (
	// ErrParseFailure indicates a structured response could not be parsed.
	// It is always recovered at the smallest scope and never reaches the caller.
	ErrParseFailure = errors.New("malformed structured response")

	// ErrTransientProvider indicates a timeout, rate limit or provider-side fault.
	ErrTransientProvider = errors.New("transient provider failure")

	// ErrGenerationUnavailable indicates no reply could be generated: no provider
	// is configured, the budget is exhausted, or retries were exhausted.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrNoProvidersAvailable indicates that no text-generation provider is registered or usable.
	ErrNoProvidersAvailable = errors.New("no LLM providers available")

	// ErrEmptyResponse indicates an empty completion was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrBudgetExceeded indicates the daily token budget is exhausted.
	ErrBudgetExceeded = errors.New("daily token budget exceeded")
)

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Storage errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrPersistence indicates a diary log could not be written. Recovered locally.
	ErrPersistence = errors.New("persistence failure")

	// ErrStorageDisabled indicates no storage backend is configured.
	ErrStorageDisabled = errors.New("storage disabled")
)

// Ingestion errors.
var (
	// ErrUnsupportedInputShape indicates a chat export in an unrecognized format.
	ErrUnsupportedInputShape = errors.New("unsupported input shape")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join is a convenience wrapper around errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// New is a convenience wrapper around errors.New.
func New(text string) error {
	return errors.New(text)
}
