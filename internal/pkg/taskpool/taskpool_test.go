package taskpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBoundedConcurrency(t *testing.T) {
	var inFlight, peak int64

	errs := Run(context.Background(), 2, 5, func(ctx context.Context, i int) error {
		current := atomic.AddInt64(&inFlight, 1)
		for {
			observed := atomic.LoadInt64(&peak)
			if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return nil
	})

	require.Len(t, errs, 5)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2), "more than 2 tasks were in flight")
	assert.Equal(t, int64(0), atomic.LoadInt64(&inFlight))
}

func TestRunCollectsPerTaskErrors(t *testing.T) {
	boom := errors.New("boom")

	errs := Run(context.Background(), 3, 4, func(ctx context.Context, i int) error {
		if i%2 == 1 {
			return boom
		}
		return nil
	})

	require.Len(t, errs, 4)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.NoError(t, errs[2])
	assert.ErrorIs(t, errs[3], boom)
}

func TestRunRunsEveryIndexOnce(t *testing.T) {
	seen := make([]int64, 20)

	Run(context.Background(), 4, 20, func(ctx context.Context, i int) error {
		atomic.AddInt64(&seen[i], 1)
		return nil
	})

	for i, count := range seen {
		assert.Equal(t, int64(1), count, "task %d", i)
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed int64
	errs := Run(ctx, 2, 3, func(ctx context.Context, i int) error {
		atomic.AddInt64(&executed, 1)
		return nil
	})

	require.Len(t, errs, 3)
	for _, err := range errs {
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, int64(0), atomic.LoadInt64(&executed))
}

func TestRunZeroTasks(t *testing.T) {
	assert.Nil(t, Run(context.Background(), 2, 0, func(ctx context.Context, i int) error {
		return nil
	}))
}
