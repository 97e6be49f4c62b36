package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// gcTarget is the part of the Coordinator the scheduler drives.
type gcTarget interface {
	GC()
	Stats() Stats
}

// GCScheduler triggers garbage collection periodically once enough elements
// have been removed since the last cycle.
//
// Each tick the scheduler reads the coordinator's Stats:
//   - skipped while a cycle is already running
//   - skipped while RemovesSinceGC < minRemoves
//   - otherwise a GC trigger is sent
//
// The coordinator still enforces the one-cycle-at-a-time rule, so a trigger
// that races with a manual /gc request is harmless.
type GCScheduler struct {
	target     gcTarget
	log        *slog.Logger
	ctx        context.Context    // Context for cancellation
	cancel     context.CancelFunc // Cancel function for shutdown
	interval   time.Duration      // How often to consider a cycle
	minRemoves int64              // Removes needed before a cycle is worth it
	wg         sync.WaitGroup     // Wait group for graceful shutdown
}

// NewGCScheduler creates a scheduler for target.
// minRemoves <= 0 means every tick triggers a cycle.
func NewGCScheduler(target gcTarget, interval time.Duration, minRemoves int64, log *slog.Logger) *GCScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = slog.Default()
	}

	return &GCScheduler{
		target:     target,
		log:        log.With("system", "gc-scheduler"),
		interval:   interval,
		minRemoves: minRemoves,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start runs the scheduling loop until ctx or Stop ends it.
// This method blocks; run it in its own goroutine.
func (s *GCScheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	if ctx == nil {
		ctx = s.ctx
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("gc scheduler started", "interval", s.interval, "min_removes", s.minRemoves)

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-ctx.Done():
			s.log.Info("gc scheduler stopping due to context cancellation")
			return
		case <-s.ctx.Done():
			s.log.Info("gc scheduler stopping due to internal cancellation")
			return
		}
	}
}

// Stop ends the loop and waits for it to return.
func (s *GCScheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// tick reports whether a GC trigger was sent.
func (s *GCScheduler) tick() bool {
	stats := s.target.Stats()
	if stats.State != StateNormal.String() {
		return false
	}
	if stats.RemovesSinceGC < s.minRemoves {
		return false
	}
	s.log.Debug("triggering gc", "removes_since_gc", stats.RemovesSinceGC, "generation", stats.Generation)
	s.target.GC()
	return true
}
