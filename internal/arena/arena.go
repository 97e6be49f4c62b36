package arena

import (
	"context"
	"sync"
	"sync/atomic"
)

// Stats contains counters about one arena
type Stats struct {
	Generation uint64 `json:"generation"` // Tree generation this arena backs
	Spawned    int64  `json:"spawned"`    // Units ever started in this arena
	Live       int64  `json:"live"`       // Units still running
}

// Arena owns every goroutine of one tree generation.
// Discard stops them all at once, so no per-node teardown is needed.
type Arena struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex // Protects discarded and wg.Add
	wg        sync.WaitGroup
	discarded bool

	generation uint64
	spawned    atomic.Int64
	live       atomic.Int64
}

// New creates an arena for the given generation
// The arena's context is derived from parent
func New(parent context.Context, generation uint64) *Arena {
	ctx, cancel := context.WithCancel(parent)
	return &Arena{
		ctx:        ctx,
		cancel:     cancel,
		generation: generation,
	}
}

// Generation returns the tree generation this arena belongs to
func (a *Arena) Generation() uint64 {
	return a.generation
}

// Spawn runs fn on a new goroutine owned by the arena
// fn must return once ctx is done
// Returns false without running fn if the arena was already discarded
func (a *Arena) Spawn(fn func(ctx context.Context)) bool {
	a.mu.Lock()
	if a.discarded {
		a.mu.Unlock()
		return false
	}
	a.wg.Add(1)
	a.mu.Unlock()

	a.spawned.Add(1)
	a.live.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.live.Add(-1)
		fn(a.ctx)
	}()
	return true
}

// Discard cancels every unit in the arena and waits for them to exit
// Safe to call more than once
func (a *Arena) Discard() {
	a.mu.Lock()
	a.discarded = true
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
}

// Done is closed once Discard has been called or the parent context ends
func (a *Arena) Done() <-chan struct{} {
	return a.ctx.Done()
}

// Stats returns arena statistics
func (a *Arena) Stats() Stats {
	return Stats{
		Generation: a.generation,
		Spawned:    a.spawned.Load(),
		Live:       a.live.Load(),
	}
}
