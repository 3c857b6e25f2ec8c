package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryRunSingleFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var enteredOnce sync.Once

	s := New(func(ctx context.Context) {
		enteredOnce.Do(func() { close(entered) })
		<-release
	})

	done := make(chan bool)
	go func() { done <- s.TryRun(context.Background()) }()

	<-entered
	assert.True(t, s.Running())
	assert.False(t, s.TryRun(context.Background()), "second caller must be refused while a run is in flight")

	close(release)
	assert.True(t, <-done)
	assert.False(t, s.Running())

	assert.True(t, s.TryRun(context.Background()), "idle again after the run returns")
}

func TestTryStartConcurrentSingleWinner(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32

	s := New(func(ctx context.Context) {
		runs.Add(1)
		<-release
	})

	const callers = 16
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryStart(context.Background()) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load(), "exactly one concurrent trigger may claim the run")

	close(release)
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	assert.True(t, s.TryStart(context.Background()), "idle again once the run finishes")
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)
}

func TestStartSkipsOverlappingTicks(t *testing.T) {
	var depth, maxDepth, runs atomic.Int32

	s := New(func(ctx context.Context) {
		d := depth.Add(1)
		if d > maxDepth.Load() {
			maxDepth.Store(d)
		}
		runs.Add(1)
		time.Sleep(60 * time.Millisecond) // longer than the cadence
		depth.Add(-1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	s.Start(ctx, 20*time.Millisecond, "")

	require.GreaterOrEqual(t, runs.Load(), int32(1))
	assert.Equal(t, int32(1), maxDepth.Load(), "a run must never overlap itself")
	assert.Less(t, runs.Load(), int32(9), "overlapping ticks are skipped, not queued")
}

func TestStartStopsOnCancel(t *testing.T) {
	var runs atomic.Int32
	s := New(func(ctx context.Context) { runs.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Start(ctx, 10*time.Millisecond, "")
		close(stopped)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	n := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, runs.Load(), "no ticks after stop")
}

func TestNextDaily(t *testing.T) {
	now := time.Date(2026, 8, 27, 8, 30, 0, 0, time.UTC)

	next := nextDaily(now, "09:00")
	assert.Equal(t, time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC), next)

	next = nextDaily(now, "08:00")
	assert.Equal(t, time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC), next, "a time already past today rolls to tomorrow")
}
