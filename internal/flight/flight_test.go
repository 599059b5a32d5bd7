package flight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoCoalescesConcurrentCallers(t *testing.T) {
	var f Flight[int]
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return 42, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]int, callers)
	errs := make([]error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, errs[0] = f.Do(context.Background(), fn)
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = f.Do(context.Background(), fn)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, 42, results[i])
	}
}

func TestDoReleasesSlotAfterSettling(t *testing.T) {
	var f Flight[string]
	var calls atomic.Int32
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		return "ok", nil
	}

	_, _, err := f.Do(context.Background(), fn)
	require.NoError(t, err)
	_, _, err = f.Do(context.Background(), fn)
	require.NoError(t, err)

	require.Equal(t, int32(2), calls.Load())
}

func TestDoSharesFailure(t *testing.T) {
	var f Flight[int]
	boom := errors.New("boom")

	_, _, err := f.Do(context.Background(), func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	v, _, err := f.Do(context.Background(), func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestDoWaiterCancellationDoesNotCancelOperation(t *testing.T) {
	var f Flight[int]
	release := make(chan struct{})
	done := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_, _, err := f.Do(ctx, func(opCtx context.Context) (int, error) {
			<-release
			return 1, opCtx.Err()
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// The operation is still in flight; a new caller joins it and sees success.
	joined := make(chan int, 1)
	go func() {
		v, _, _ := f.Do(context.Background(), func(context.Context) (int, error) {
			return 2, nil
		})
		joined <- v
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	require.Equal(t, 1, <-joined)
}

func TestDoWithDoneContextStartsNothing(t *testing.T) {
	var f Flight[int]
	var calls atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := f.Do(ctx, func(context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	})
	require.ErrorIs(t, err, context.Canceled)

	v, _, err := f.Do(context.Background(), func(context.Context) (int, error) {
		calls.Add(1)
		return 2, nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, v)
	require.Equal(t, int32(1), calls.Load())
}
