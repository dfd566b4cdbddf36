package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	coreerrors "github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/platform/observability"
	"github.com/lueurxax/diary-replier/internal/platform/worker"
)

// RetryPolicy bounds retries of transient failures.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, including the first one.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt. It doubles per attempt.
	BaseDelay time.Duration

	// CallTimeout bounds every single attempt. A timeout counts as transient.
	CallTimeout time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}

	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}

	if p.BaseDelay == 0 {
		p.BaseDelay = defaultRetryBase
	}

	if p.CallTimeout <= 0 {
		p.CallTimeout = defaultCallTimeout
	}

	return p
}

// retryingClient retries transient failures of the wrapped client.
type retryingClient struct {
	inner  Client
	policy RetryPolicy
	logger *zerolog.Logger
}

// NewRetryingClient wraps inner with bounded exponential backoff. When every
// attempt fails transiently the returned error wraps ErrGenerationUnavailable.
// Other errors are returned after the first attempt.
func NewRetryingClient(inner Client, policy RetryPolicy, logger *zerolog.Logger) Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &retryingClient{
		inner:  inner,
		policy: policy.withDefaults(),
		logger: logger,
	}
}

// Complete implements Client.
func (c *retryingClient) Complete(ctx context.Context, req Request) (string, error) {
	delay := c.policy.BaseDelay

	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		var out string

		err := worker.RunWithTimeout(ctx, c.policy.CallTimeout, func(callCtx context.Context) error {
			var callErr error
			out, callErr = c.inner.Complete(callCtx, req)

			return callErr
		})
		if err == nil {
			return out, nil
		}

		if ctx.Err() != nil {
			return "", fmt.Errorf("%s aborted: %w", req.Task, ctx.Err())
		}

		if !IsTransient(err) {
			return "", err
		}

		lastErr = err

		if attempt == c.policy.MaxAttempts {
			break
		}

		observability.LLMRetries.WithLabelValues(string(req.Task)).Inc()
		c.logger.Warn().
			Err(err).
			Str(logKeyTask, string(req.Task)).
			Int(logKeyAttempt, attempt).
			Dur(logKeyDelay, delay).
			Msg("transient LLM failure, retrying")

		if err := worker.Wait(ctx, delay); err != nil {
			return "", fmt.Errorf("%s aborted: %w", req.Task, err)
		}

		delay *= retryDelayMultipler
	}

	return "", fmt.Errorf("%w: %s failed after %d attempts: %w",
		coreerrors.ErrGenerationUnavailable, req.Task, c.policy.MaxAttempts, lastErr)
}

// IsTransient reports whether err is worth retrying: a per-call timeout, a
// rate limit or a provider-side fault.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, coreerrors.ErrNoProvidersAvailable) || errors.Is(err, coreerrors.ErrBudgetExceeded) ||
		errors.Is(err, coreerrors.ErrCircuitBreakerOpen) {
		return false
	}

	if errors.Is(err, coreerrors.ErrTransientProvider) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if status, ok := providerStatusCode(err); ok {
		return isRetryableStatus(status)
	}

	return isRateLimitError(err) || isServerError(err)
}

func providerStatusCode(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}

	return 0, false
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func isRateLimitError(err error) bool {
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	errStr := strings.ToLower(err.Error())

	for _, marker := range []string{"500", "502", "503", "504", "internal server error", "server_error", "overloaded", "timeout"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}

	return false
}
