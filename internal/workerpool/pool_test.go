package workerpool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/workerpool"
)

// =============================================================================
// Pool capacity and shutdown tests
// =============================================================================

func TestPool_SubmitRespectsCapacity(t *testing.T) {
	pool := workerpool.NewPool("test", 1, context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	ok := pool.Submit(func(ctx context.Context) {
		close(started)
		<-block
	})
	require.True(t, ok)
	<-started

	ok = pool.Submit(func(ctx context.Context) {})
	assert.False(t, ok, "pool at capacity must reject Submit")

	close(block)
}

func TestPool_Shutdown_GracefulWaitsForInFlightJobs(t *testing.T) {
	pool := workerpool.NewPool("test", 2, context.Background())
	var done int32
	pool.Submit(func(ctx context.Context) {
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&done, 1)
	})

	err := pool.Shutdown(false, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&done))
}

func TestPool_Shutdown_GracefulTimesOutWithStuckJob(t *testing.T) {
	pool := workerpool.NewPool("test", 1, context.Background())
	release := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		<-release
	})
	defer close(release)

	err := pool.Shutdown(false, 10*time.Millisecond)
	assert.ErrorIs(t, err, workerpool.ErrNotCleanlyTerminated)
}

func TestPool_Shutdown_KillCancelsJobContext(t *testing.T) {
	pool := workerpool.NewPool("test", 1, context.Background())
	cancelled := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	})

	err := pool.Shutdown(true, time.Second)
	assert.ErrorIs(t, err, workerpool.ErrNotCleanlyTerminated)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("job context was not cancelled by a kill shutdown")
	}
}

func TestPool_SubmitAfterShutdownRejected(t *testing.T) {
	pool := workerpool.NewPool("test", 1, context.Background())
	require.NoError(t, pool.Shutdown(false, time.Second))

	ok := pool.Submit(func(ctx context.Context) {})
	assert.False(t, ok)
}

// =============================================================================
// PeriodicTask tests
// =============================================================================

func TestPeriodicTask_RunsOnEveryTick(t *testing.T) {
	var mu sync.Mutex
	count := 0
	task := workerpool.NewPeriodicTask("test", 5*time.Millisecond, nil, func(ctx context.Context) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task.Start(ctx)
	defer task.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestPeriodicTask_PanicDoesNotStopSchedule(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	task := workerpool.NewPeriodicTask("test", 5*time.Millisecond, nil, func(ctx context.Context) error {
		mu.Lock()
		ticks++
		mu.Unlock()
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task.Start(ctx)
	defer task.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 2
	}, time.Second, 5*time.Millisecond)
}
