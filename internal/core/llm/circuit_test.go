package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/diary-replier/internal/core/errors"
)

func TestCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Hour}, nil)

	assert.True(t, cb.CanAttempt())
	assert.False(t, cb.RecordFailure(ProviderOpenAI))
	assert.True(t, cb.CanAttempt())

	assert.True(t, cb.RecordFailure(ProviderOpenAI), "second failure opens the circuit")
	assert.True(t, cb.IsOpen())
	assert.False(t, cb.CanAttempt())
	assert.ErrorIs(t, cb.CheckCircuit(), errors.ErrCircuitBreakerOpen)

	assert.False(t, cb.RecordFailure(ProviderOpenAI), "already open")

	cb.Reset()
	assert.True(t, cb.CanAttempt())
	assert.NoError(t, cb.CheckCircuit())
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Hour}, nil)

	cb.RecordFailure(ProviderAnthropic)
	cb.RecordSuccess()
	cb.RecordFailure(ProviderAnthropic)

	assert.False(t, cb.IsOpen())
}
