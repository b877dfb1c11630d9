package snapshot

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler periodically persists the in-memory registry and ledger through
// the provided save func. Saving can be paused and resumed at runtime.
type Scheduler struct {
	save      func() error
	scheduler gocron.Scheduler
	paused    atomic.Bool
	ctx       context.Context
}

// NewScheduler creates a scheduler that calls save every interval.
func NewScheduler(ctx context.Context, save func() error, interval time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	scheduler := &Scheduler{
		save:      save,
		scheduler: s,
		ctx:       ctx,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(scheduler.runSnapshot),
	)
	if err != nil {
		return nil, err
	}

	return scheduler, nil
}

// Start begins the snapshot loop and stops it when the context is done.
func (s *Scheduler) Start() {
	slog.Info("starting snapshot scheduler")
	s.scheduler.Start()

	go func() {
		<-s.ctx.Done()
		s.Stop()
	}()
}

// Stop halts the snapshot loop.
func (s *Scheduler) Stop() {
	slog.Info("stopping snapshot scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		slog.Error("error shutting down snapshot scheduler", "err", err)
	}
}

// Pause suspends snapshotting without stopping the loop.
func (s *Scheduler) Pause() {
	s.paused.Store(true)
	slog.Info("snapshotting paused")
}

// Resume re-enables snapshotting.
func (s *Scheduler) Resume() {
	s.paused.Store(false)
	slog.Info("snapshotting resumed")
}

// Paused reports whether snapshotting is currently suspended.
func (s *Scheduler) Paused() bool {
	return s.paused.Load()
}

func (s *Scheduler) runSnapshot() {
	if s.paused.Load() {
		slog.Info("snapshotting is paused, skipping save")
		return
	}

	if err := s.save(); err != nil {
		slog.Error("snapshot save failed", "err", err)
	}
}
