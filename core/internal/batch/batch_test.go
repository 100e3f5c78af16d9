package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_RunsEveryJob(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := make(map[int]bool)
	r := NewRunner(WithWorkers(3))
	err := r.Run(context.Background(), 10, func(_ context.Context, i int) error {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = true
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 10)
}

func TestRunner_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	var active, peak atomic.Int32
	r := NewRunner(WithWorkers(2))
	err := r.Run(context.Background(), 20, func(context.Context, int) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		active.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunner_StopsAfterFirstError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := NewRunner(WithWorkers(-1))
	var calls atomic.Int32
	err := r.Run(context.Background(), 5, func(_ context.Context, i int) error {
		calls.Add(1)
		if i == 1 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunner_Workers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NewRunner(WithWorkers(-5)).Workers())
	assert.Equal(t, 4, NewRunner(WithWorkers(4)).Workers())
	assert.Positive(t, NewRunner().Workers())
	require.NoError(t, NewRunner().Run(context.Background(), 0, nil))
}
