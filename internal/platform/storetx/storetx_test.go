package storetx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySerializes(t *testing.T) {
	runner := NewInMemory()
	counter := 0

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.RunInTx(context.Background(), func(context.Context) error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestInMemoryReentrant(t *testing.T) {
	runner := NewInMemory()
	var depth int

	err := runner.RunInTx(context.Background(), func(outer context.Context) error {
		depth++
		// A service called from inside another service's transaction joins
		// the boundary instead of deadlocking on the lock.
		return runner.RunInTx(outer, func(context.Context) error {
			depth++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, depth)
}

func TestInMemoryPropagatesError(t *testing.T) {
	runner := NewInMemory()
	sentinelErr := errors.New("boom")

	err := runner.RunInTx(context.Background(), func(context.Context) error {
		return sentinelErr
	})
	require.ErrorIs(t, err, sentinelErr)

	// The lock must be released; a follow-up transaction still runs.
	require.NoError(t, runner.RunInTx(context.Background(), func(context.Context) error {
		return nil
	}))
}
