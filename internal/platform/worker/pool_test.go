package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPoolName = "test-pool"

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}

	got := Map(context.Background(), PoolConfig{Name: testPoolName, Concurrency: 3}, items,
		func(_ context.Context, _ int, v int) int {
			time.Sleep(time.Duration(10-v) * time.Millisecond)
			return v * v
		})

	assert.Equal(t, []int{1, 4, 9, 16, 25, 36}, got)
}

func TestMap_RespectsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	items := make([]int, 12)

	Map(context.Background(), PoolConfig{Name: testPoolName, Concurrency: 2}, items,
		func(_ context.Context, _ int, _ int) struct{} {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)

			return struct{}{}
		})

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestMap_PanicLeavesZeroValue(t *testing.T) {
	got := Map(context.Background(), PoolConfig{Name: testPoolName, Concurrency: 2}, []string{"a", "boom", "c"},
		func(_ context.Context, _ int, v string) string {
			if v == "boom" {
				panic("chunk exploded")
			}

			return v + "!"
		})

	assert.Equal(t, []string{"a!", "", "c!"}, got)
}

func TestMap_Empty(t *testing.T) {
	got := Map(context.Background(), PoolConfig{}, []int(nil), func(context.Context, int, int) int { return 1 })
	assert.Empty(t, got)
}

func TestWait_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithTimeout(t *testing.T) {
	err := RunWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
