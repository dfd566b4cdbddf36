package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/lueurxax/diary-replier/internal/core/errors"
)

type fakeProvider struct {
	name      ProviderName
	priority  int
	available bool
	out       string
	err       error
	calls     atomic.Int32
}

func (p *fakeProvider) Name() ProviderName { return p.name }
func (p *fakeProvider) IsAvailable() bool  { return p.available }
func (p *fakeProvider) Priority() int      { return p.priority }
func (p *fakeProvider) Model() string      { return "fake-" + string(p.name) }

func (p *fakeProvider) Complete(_ context.Context, _ Request) (string, error) {
	p.calls.Add(1)

	if p.err != nil {
		return "", p.err
	}

	return p.out, nil
}

var testCircuit = CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Minute}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := NewRegistry(nil, nil)

	low := &fakeProvider{name: ProviderGoogle, priority: PrioritySecondFallback, available: true, out: "google"}
	high := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, out: "openai"}

	r.Register(low, testCircuit)
	r.Register(high, testCircuit)

	out, err := r.Complete(context.Background(), Request{Task: TaskReplyPair})
	require.NoError(t, err)
	assert.Equal(t, "openai", out)
	assert.Equal(t, int32(0), low.calls.Load())
}

func TestRegistry_FallsBackOnError(t *testing.T) {
	r := NewRegistry(nil, nil)

	primary := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errors.New("boom")}
	fallback := &fakeProvider{name: ProviderAnthropic, priority: PriorityFallback, available: true, out: "claude"}

	r.Register(primary, testCircuit)
	r.Register(fallback, testCircuit)

	out, err := r.Complete(context.Background(), Request{Task: TaskReplyPair})
	require.NoError(t, err)
	assert.Equal(t, "claude", out)
	assert.Equal(t, int32(1), primary.calls.Load())
}

func TestRegistry_SkipsUnavailable(t *testing.T) {
	r := NewRegistry(nil, nil)

	off := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: false, out: "never"}
	on := &fakeProvider{name: ProviderMock, priority: PriorityMock, available: true, out: "mock"}

	r.Register(off, testCircuit)
	r.Register(on, testCircuit)

	out, err := r.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "mock", out)
	assert.Equal(t, int32(0), off.calls.Load())
}

func TestRegistry_NoProviders(t *testing.T) {
	r := NewRegistry(nil, nil)

	_, err := r.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, coreerrors.ErrNoProvidersAvailable)
}

func TestRegistry_AllFail(t *testing.T) {
	r := NewRegistry(nil, nil)
	cause := errors.New("503 service unavailable")

	r.Register(&fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: cause}, testCircuit)

	_, err := r.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.ErrorIs(t, err, cause)
}

func TestRegistry_CircuitBreakerOpens(t *testing.T) {
	r := NewRegistry(nil, nil)
	p := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errors.New("down")}

	r.Register(p, testCircuit)

	for range testCircuit.Threshold {
		_, err := r.Complete(context.Background(), Request{})
		require.ErrorIs(t, err, ErrAllProvidersFailed)
	}

	_, err := r.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, coreerrors.ErrCircuitBreakerOpen)
	assert.NotErrorIs(t, err, coreerrors.ErrNoProvidersAvailable)
	assert.Equal(t, int32(testCircuit.Threshold), p.calls.Load())

	statuses := r.GetProviderStatuses()
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].CircuitBreakerOK)

	states := r.ProviderStates()
	require.Len(t, states, 1)
	assert.Equal(t, string(ProviderOpenAI), states[0].Name)
	assert.True(t, states[0].Available)
	assert.False(t, states[0].CircuitOK)
}

func TestRegistry_CanceledCallDoesNotTripBreaker(t *testing.T) {
	r := NewRegistry(nil, nil)
	p := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: context.Canceled}

	r.Register(p, testCircuit)

	for range testCircuit.Threshold + 1 {
		_, err := r.Complete(context.Background(), Request{})
		require.ErrorIs(t, err, context.Canceled)
	}

	assert.Equal(t, int32(testCircuit.Threshold+1), p.calls.Load())
}

func TestRegistry_BudgetExceeded(t *testing.T) {
	budget := NewBudgetTracker(10, nil)
	budget.RecordTokens(10)

	r := NewRegistry(budget, nil)
	p := &fakeProvider{name: ProviderMock, available: true, out: "x"}
	r.Register(p, testCircuit)

	_, err := r.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, coreerrors.ErrBudgetExceeded)
	assert.Equal(t, int32(0), p.calls.Load())
}
