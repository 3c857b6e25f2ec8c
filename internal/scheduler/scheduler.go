// Package scheduler triggers pipeline runs on a cadence, guaranteeing at
// most one run in flight: a tick that lands while a run is executing is
// skipped, never queued.
package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

type Runner func(ctx context.Context)

type Scheduler struct {
	run     Runner
	running atomic.Bool
}

func New(run Runner) *Scheduler {
	return &Scheduler{run: run}
}

// TryRun executes one run synchronously unless one is already in flight.
// This is the single-flight gate for both scheduled ticks and manual runs.
func (s *Scheduler) TryRun(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	defer s.running.Store(false)
	s.run(ctx)
	return true
}

// TryStart launches a run in the background, reporting whether it won
// the single-flight gate. The CAS itself is the answer, so two racing
// callers can never both see true.
func (s *Scheduler) TryStart(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer s.running.Store(false)
		s.run(ctx)
	}()
	return true
}

func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Start blocks, triggering runs until ctx is cancelled. Cancelling stops
// future ticks; an in-flight run finishes on its own.
func (s *Scheduler) Start(ctx context.Context, every time.Duration, dailyAt string) {
	if dailyAt != "" {
		s.daily(ctx, dailyAt)
		return
	}
	if every <= 0 {
		every = 24 * time.Hour
	}

	t := time.NewTicker(every)
	defer t.Stop()

	s.tick(ctx) // first run right away

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.TryRun(ctx) {
		log.Printf("[scheduler] previous run still in flight, skipping tick")
	}
}

func (s *Scheduler) daily(ctx context.Context, at string) {
	for {
		wait := time.Until(nextDaily(time.Now(), at))
		log.Printf("[scheduler] next run in %s", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.tick(ctx)
		}
	}
}

func nextDaily(now time.Time, at string) time.Time {
	t, err := time.Parse("15:04", at)
	if err != nil {
		// validated at startup; fall back to a day from now
		return now.Add(24 * time.Hour)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
