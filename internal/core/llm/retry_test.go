package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/lueurxax/diary-replier/internal/core/errors"
)

var fastPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, CallTimeout: time.Second}

// scriptedClient returns errs in order, then out.
type scriptedClient struct {
	errs  []error
	out   string
	calls atomic.Int32
}

func (c *scriptedClient) Complete(_ context.Context, _ Request) (string, error) {
	n := int(c.calls.Add(1)) - 1
	if n < len(c.errs) {
		return "", c.errs[n]
	}

	return c.out, nil
}

func TestRetryingClient_RecoversFromTransient(t *testing.T) {
	inner := &scriptedClient{
		errs: []error{coreerrors.ErrTransientProvider, errors.New("429 too many requests")},
		out:  "ok",
	}

	out, err := NewRetryingClient(inner, fastPolicy, nil).Complete(context.Background(), Request{Task: TaskReplyPair})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRetryingClient_Exhausted(t *testing.T) {
	inner := &scriptedClient{
		errs: []error{
			coreerrors.ErrTransientProvider,
			coreerrors.ErrTransientProvider,
			coreerrors.ErrTransientProvider,
			coreerrors.ErrTransientProvider,
		},
	}

	_, err := NewRetryingClient(inner, fastPolicy, nil).Complete(context.Background(), Request{Task: TaskReplyPair})
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.ErrGenerationUnavailable)
	assert.ErrorIs(t, err, coreerrors.ErrTransientProvider)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRetryingClient_NonTransientNotRetried(t *testing.T) {
	inner := &scriptedClient{errs: []error{coreerrors.ErrNoProvidersAvailable}}

	_, err := NewRetryingClient(inner, fastPolicy, nil).Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, coreerrors.ErrNoProvidersAvailable)
	assert.NotErrorIs(t, err, coreerrors.ErrGenerationUnavailable)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestRetryingClient_CallTimeoutIsTransient(t *testing.T) {
	var calls atomic.Int32

	slow := ClientFunc(func(ctx context.Context, _ Request) (string, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}

		return "late but fine", nil
	})

	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, CallTimeout: 20 * time.Millisecond}

	out, err := NewRetryingClient(slow, policy, nil).Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "late but fine", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryingClient_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	inner := ClientFunc(func(_ context.Context, _ Request) (string, error) {
		cancel()
		return "", coreerrors.ErrTransientProvider
	})

	_, err := NewRetryingClient(inner, fastPolicy, nil).Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, coreerrors.ErrGenerationUnavailable)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sentinel", err: fmt.Errorf("wrap: %w", coreerrors.ErrTransientProvider), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "openai 429", err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}, want: true},
		{name: "openai 503", err: &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable}, want: true},
		{name: "openai 401", err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}, want: false},
		{name: "joined provider failure", err: errors.Join(ErrAllProvidersFailed, errors.New("502 bad gateway")), want: true},
		{name: "overloaded text", err: errors.New("anthropic: Overloaded"), want: true},
		{name: "no providers", err: coreerrors.ErrNoProvidersAvailable, want: false},
		{name: "budget", err: coreerrors.ErrBudgetExceeded, want: false},
		{name: "circuit open", err: fmt.Errorf("openai: %w", coreerrors.ErrCircuitBreakerOpen), want: false},
		{name: "parse failure", err: coreerrors.ErrParseFailure, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
