// Package coordinator implements the entry point of the tree set: it routes
// operations to the current root, queues them while a garbage-collection
// cycle is running, and swaps in the freshly copied tree when the cycle
// completes.
//
// # Overview
//
// The set is a binary search tree in which every position is its own
// goroutine (see package treenode). The coordinator is the only component
// that knows which tree is current. Callers never talk to nodes directly:
//
//	caller ──Submit──▶ Coordinator ──▶ root ──▶ … ──▶ node resolving op
//	   ▲                                                     │
//	   └───────────────────── Reply ◀────────────────────────┘
//
// Replies bypass the coordinator entirely; the resolving node delivers them
// to the operation's Requester.
//
// # States
//
// The coordinator is a two-state machine driven by a dispatch table keyed on
// (state, message kind):
//
//	             GC()
//	  ┌────────┐ ─────────────▶ ┌────────────────────┐
//	  │ Normal │                │ GarbageCollecting  │
//	  └────────┘ ◀───────────── └────────────────────┘
//	       CopyFinished from old root
//
//	                    Normal            GarbageCollecting
//	  Operation         forward to root   append to pending
//	  GC                start cycle       ignore
//	  CopyFinished      drop (logged)     swap roots, replay pending
//
// # Garbage Collection Cycle
//
// Removes only tombstone a node. A cycle compacts the tree:
//
//  1. A new arena (generation+1) is created with an empty, tombstoned root.
//  2. CopyTo(newRoot) is sent to the current root. Every live node re-inserts
//     its element into the new tree, and every node reports CopyFinished to
//     its parent once it and all its children are done.
//  3. When the old root reports CopyFinished, the old arena is discarded,
//     the new root becomes current, and the pending queue is replayed in the
//     order it was received.
//
// Operations submitted before the trigger were already routed into the old
// tree ahead of CopyTo on every path, so they complete against the old tree
// and their effects are carried over by the copy.
//
// # Scheduling
//
// GCScheduler triggers cycles on a ticker once RemovesSinceGC reaches a
// threshold. Manual triggers (Coordinator.GC) can be throttled by
// Config.GCLimiter, a golang.org/x/time/rate token bucket.
//
// # Concurrency
//
// Submit, GC, and CopyFinished only enqueue into an unbounded mailbox and
// never block. All routing state lives on the coordinator goroutine. Stats
// is safe from any goroutine and reads atomically published counters.
//
// # Usage
//
//	coord := coordinator.New(ctx, coordinator.Config{Logger: logger})
//	defer coord.Stop()
//
//	coord.Submit(protocol.Operation{Requester: r, Kind: protocol.Insert, ID: 1, Elem: 5})
//	coord.GC()
//
//	sched := coordinator.NewGCScheduler(coord, time.Minute, 1000, logger)
//	go sched.Start(ctx)
//	defer sched.Stop()
//
// # Metrics
//
// Exported through the default Prometheus registry:
//   - treeset_operations_total{kind}
//   - treeset_operations_deferred_total, treeset_pending_operations
//   - treeset_gc_cycles_started_total, treeset_gc_cycles_completed_total
//   - treeset_gc_triggers_ignored_total{reason="in_progress|throttled"}
//   - treeset_gc_duration_seconds, treeset_generation
package coordinator
