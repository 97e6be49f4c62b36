// Package arena groups the goroutines of one tree generation so they can be
// torn down together.
//
// # Overview
//
// Every tree node runs as its own goroutine. Rather than having parents stop
// their children one by one, all nodes of a generation are spawned into the
// same Arena. When a garbage-collection cycle completes, the coordinator
// discards the old arena wholesale:
//
//	gen 1 arena            gen 2 arena
//	┌──────────────┐       ┌──────────────┐
//	│ root(5)      │ copy  │ root(0, ✝)   │
//	│ ├── 3        │ ────▶ │ └── 5        │
//	│ └── 8 ✝      │       │     └── 3    │
//	└──────────────┘       └──────────────┘
//	      │
//	      ▼ Discard()
//	  all goroutines exit
//
// # Concurrency
//
// Spawn and Discard may be called from any goroutine. Spawn after Discard is
// refused and reports false. Discard blocks until every unit has returned,
// so units must honor their context.
//
// # Usage
//
//	a := arena.New(ctx, 2)
//	a.Spawn(func(ctx context.Context) {
//	    <-ctx.Done()
//	})
//	a.Discard()
//	a.Stats() // {Generation: 2, Spawned: 1, Live: 0}
package arena
