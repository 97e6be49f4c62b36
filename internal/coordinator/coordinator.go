// Package coordinator implements the single entry point of the tree set.
// See doc.go for complete package documentation.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dreamware/treeset/internal/arena"
	"github.com/dreamware/treeset/internal/mailbox"
	"github.com/dreamware/treeset/internal/protocol"
	"github.com/dreamware/treeset/internal/treenode"
)

// State is the coordinator's current behavior.
type State int32

const (
	// StateNormal forwards operations to the root.
	StateNormal State = iota
	// StateGarbageCollecting queues operations until the new root is swapped in.
	StateGarbageCollecting
	numStates
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateGarbageCollecting:
		return "garbage_collecting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// rootElem is the placeholder element of an empty root. The root is created
// tombstoned, so the placeholder is never reported as a member.
const rootElem = 0

// Config holds optional coordinator settings.
type Config struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// GCLimiter throttles GC triggers. Triggers denied by the limiter are
	// dropped. Nil means every trigger in Normal state starts a cycle.
	GCLimiter *rate.Limiter
}

// Stats is a point-in-time view of the coordinator.
type Stats struct {
	State          string `json:"state"`
	Generation     uint64 `json:"generation"`
	Pending        int64  `json:"pending"`
	RemovesSinceGC int64  `json:"removes_since_gc"`
	Cycles         int64  `json:"gc_cycles"`
	Nodes          int64  `json:"nodes"`
}

// Coordinator owns the current root and mediates GC cycles.
//
// All tree-facing state is confined to the coordinator's goroutine; the
// exported methods only enqueue messages. Stats reads a handful of counters
// published with atomics.
type Coordinator struct {
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mailbox *mailbox.Mailbox[message]
	log     *slog.Logger
	nodeLog *slog.Logger
	limiter *rate.Limiter

	// owned by run
	state     State
	root      *treenode.Node
	rootArena *arena.Arena
	newRoot   *treenode.Node
	newArena  *arena.Arena
	pending   []protocol.Operation
	gcStarted time.Time

	// published for Stats
	publishedState atomic.Int32
	generation     atomic.Uint64
	pendingLen     atomic.Int64
	removes        atomic.Int64
	cycles         atomic.Int64
	currentArena   atomic.Pointer[arena.Arena]
}

// New creates a coordinator with an empty tree and starts its goroutine.
// The coordinator runs until Stop is called or ctx is canceled.
func New(ctx context.Context, cfg Config) *Coordinator {
	c := newCoordinator(ctx, cfg)
	go c.run()
	return c
}

func newCoordinator(ctx context.Context, cfg Config) *Coordinator {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Coordinator{
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		mailbox: mailbox.New[message](),
		log:     log.With("system", "coordinator"),
		nodeLog: log,
		limiter: cfg.GCLimiter,
		state:   StateNormal,
	}

	c.rootArena = arena.New(ctx, 1)
	c.root = treenode.Spawn(c.rootArena, c, rootElem, true, log)
	c.generation.Store(1)
	c.currentArena.Store(c.rootArena)
	generationGauge.Set(1)
	return c
}

// Submit routes op to the tree. The reply is delivered to op.Requester.
func (c *Coordinator) Submit(op protocol.Operation) {
	c.send(message{kind: msgOperation, op: op})
}

// GC requests a garbage-collection cycle. It is ignored while one is running.
func (c *Coordinator) GC() {
	c.send(message{kind: msgGC})
}

// CopyFinished is sent by the root once the whole old tree has been copied.
func (c *Coordinator) CopyFinished(from *treenode.Node) {
	c.send(message{kind: msgCopyFinished, from: from})
}

// Done is closed once the coordinator has stopped and every node has exited.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Stop shuts the coordinator and all tree nodes down and waits for them.
// Operations still in flight receive no reply.
func (c *Coordinator) Stop() {
	c.cancel()
	<-c.done
}

// Stats returns a snapshot of the coordinator's counters.
func (c *Coordinator) Stats() Stats {
	var nodes int64
	if a := c.currentArena.Load(); a != nil {
		nodes = a.Stats().Live
	}
	return Stats{
		State:          State(c.publishedState.Load()).String(),
		Generation:     c.generation.Load(),
		Pending:        c.pendingLen.Load(),
		RemovesSinceGC: c.removes.Load(),
		Cycles:         c.cycles.Load(),
		Nodes:          nodes,
	}
}

func (c *Coordinator) send(m message) {
	if !c.mailbox.Send(m) {
		c.log.Warn("coordinator stopped, message dropped", "message", m.kind)
	}
}

func (c *Coordinator) run() {
	defer close(c.done)
	defer c.teardown()

	c.log.Info("coordinator started", "generation", c.generation.Load())
	for {
		m, err := c.mailbox.Receive(c.ctx)
		if err != nil {
			return
		}
		c.handle(m)
	}
}

func (c *Coordinator) teardown() {
	c.mailbox.Close()
	if c.newArena != nil {
		c.newArena.Discard()
	}
	c.rootArena.Discard()
	if n := len(c.pending); n > 0 {
		c.log.Warn("dropping queued operations on shutdown", "count", n)
	}
	c.log.Info("coordinator stopped", "generation", c.generation.Load())
}

func (c *Coordinator) handle(m message) {
	h := dispatch[c.state][m.kind]
	if h == nil {
		c.log.Error("unexpected message", "state", c.state, "message", m.kind)
		unexpectedMessages.WithLabelValues(c.state.String(), m.kind.String()).Inc()
		return
	}
	h(c, m)
}

func (c *Coordinator) setState(s State) {
	c.state = s
	c.publishedState.Store(int32(s))
}

func (c *Coordinator) count(op protocol.Operation) {
	operationsSubmitted.WithLabelValues(op.Kind.String()).Inc()
	if op.Kind == protocol.Remove {
		c.removes.Add(1)
	}
}

func (c *Coordinator) forward(m message) {
	c.count(m.op)
	c.root.Submit(m.op)
}

func (c *Coordinator) enqueue(m message) {
	c.count(m.op)
	c.pending = append(c.pending, m.op)
	c.pendingLen.Store(int64(len(c.pending)))
	operationsDeferred.Inc()
	pendingOperations.Set(float64(len(c.pending)))
}

func (c *Coordinator) startGC(message) {
	if c.limiter != nil && !c.limiter.Allow() {
		c.log.Debug("gc trigger throttled")
		gcTriggersIgnored.WithLabelValues("throttled").Inc()
		return
	}

	gen := c.generation.Load() + 1
	c.newArena = arena.New(c.ctx, gen)
	c.newRoot = treenode.Spawn(c.newArena, c, rootElem, true, c.nodeLog)
	c.gcStarted = time.Now()
	c.removes.Store(0)
	c.setState(StateGarbageCollecting)

	c.root.CopyTo(c.newRoot)

	gcCyclesStarted.Inc()
	c.log.Info("gc started", "generation", gen)
}

func (c *Coordinator) ignoreGC(message) {
	c.log.Debug("gc already in progress, trigger ignored")
	gcTriggersIgnored.WithLabelValues("in_progress").Inc()
}

func (c *Coordinator) finishGC(m message) {
	if m.from != c.root {
		c.log.Error("copy finished from a node that is not the root")
		unexpectedMessages.WithLabelValues(c.state.String(), m.kind.String()).Inc()
		return
	}

	old := c.rootArena
	c.root, c.rootArena = c.newRoot, c.newArena
	c.newRoot, c.newArena = nil, nil
	c.generation.Store(c.rootArena.Generation())
	c.currentArena.Store(c.rootArena)
	old.Discard()

	queued := c.pending
	c.pending = nil
	c.pendingLen.Store(0)
	pendingOperations.Set(0)
	c.setState(StateNormal)

	for _, op := range queued {
		c.root.Submit(op)
	}

	took := time.Since(c.gcStarted)
	c.cycles.Add(1)
	gcCyclesCompleted.Inc()
	gcDuration.Observe(took.Seconds())
	generationGauge.Set(float64(c.rootArena.Generation()))
	c.log.Info("gc finished",
		"generation", c.rootArena.Generation(),
		"replayed", len(queued),
		"nodes", c.rootArena.Stats().Live,
		"took", took)
}
