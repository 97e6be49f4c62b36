package treenode

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dreamware/treeset/internal/mailbox"
	"github.com/dreamware/treeset/internal/protocol"
)

// Position selects a child slot.
type Position int

const (
	Left Position = iota
	Right
)

func (p Position) String() string {
	if p == Left {
		return "left"
	}
	return "right"
}

// positionOf applies the ordering used for both placement and lookup.
func positionOf(elem, nodeElem int) Position {
	if elem < nodeElem {
		return Left
	}
	return Right
}

// State is the behavior a node is currently running.
type State int

const (
	// StateNormal serves Insert, Contains, Remove and accepts CopyTo.
	StateNormal State = iota
	// StateCopying only accepts the self-insert echo and child CopyFinished.
	StateCopying
	// StateFinished has reported CopyFinished and accepts nothing. The node
	// lives until its arena is discarded.
	StateFinished
	numStates
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateCopying:
		return "copying"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// copyInsertID tags the insert a node sends to the new tree for its own
// element. The reply comes back to the node itself, never to a caller.
const copyInsertID int64 = -1

// Parent receives CopyFinished from a child once the child's whole subtree
// has been copied. Both Node and the coordinator implement it.
type Parent interface {
	CopyFinished(from *Node)
}

// Spawner starts node goroutines. *arena.Arena satisfies it.
type Spawner interface {
	Spawn(fn func(ctx context.Context)) bool
	Generation() uint64
}

// Node owns one element of the set and the subtree below it.
// All fields except elem are touched only by the node's own goroutine.
type Node struct {
	parent   Parent
	spawner  Spawner
	mailbox  *mailbox.Mailbox[message]
	log      *slog.Logger
	baseLog  *slog.Logger
	expected map[*Node]struct{}
	children [2]*Node
	elem     int
	removed  bool
	state    State
}

// Spawn creates a node and starts its goroutine in s.
// The initial root of a tree is created with removed set, standing for
// "empty".
func Spawn(s Spawner, parent Parent, elem int, removed bool, log *slog.Logger) *Node {
	if log == nil {
		log = slog.Default()
	}
	n := &Node{
		parent:  parent,
		spawner: s,
		mailbox: mailbox.New[message](),
		baseLog: log,
		log:     log.With("system", "treenode", "generation", s.Generation(), "elem", elem),
		elem:    elem,
		removed: removed,
		state:   StateNormal,
	}
	if !s.Spawn(n.run) {
		n.log.Warn("arena discarded, node not started")
		n.mailbox.Close()
		return n
	}
	nodesSpawned.Inc()
	return n
}

// Elem returns the node's element.
func (n *Node) Elem() int {
	return n.elem
}

// Submit routes op into this node's subtree.
func (n *Node) Submit(op protocol.Operation) {
	n.send(message{kind: msgOperation, op: op})
}

// CopyTo asks the subtree to re-insert its live elements into dest.
func (n *Node) CopyTo(dest *Node) {
	n.send(message{kind: msgCopyTo, dest: dest})
}

// CopyFinished reports that child's subtree is fully copied.
func (n *Node) CopyFinished(child *Node) {
	n.send(message{kind: msgCopyFinished, from: child})
}

// Deliver receives the reply to the node's own copy-time insert.
func (n *Node) Deliver(r protocol.Reply) {
	n.send(message{kind: msgReply, reply: r})
}

func (n *Node) send(m message) {
	if !n.mailbox.Send(m) {
		n.log.Debug("dropped message for stopped node", "message", m.kind)
	}
}

func (n *Node) run(ctx context.Context) {
	defer n.mailbox.Close()
	for {
		m, err := n.mailbox.Receive(ctx)
		if err != nil {
			return
		}
		n.handle(m)
	}
}

func (n *Node) handle(m message) {
	h := dispatch[n.state][m.kind]
	if h == nil {
		n.log.Error("unexpected message", "state", n.state, "message", m.kind)
		unexpectedMessages.WithLabelValues(n.state.String(), m.kind.String()).Inc()
		return
	}
	h(n, m)
}

func (n *Node) handleOperation(m message) {
	op := m.op

	if op.Elem == n.elem {
		switch op.Kind {
		case protocol.Insert:
			n.removed = false
			n.reply(op, protocol.Finished(op.ID))
		case protocol.Contains:
			n.reply(op, protocol.Result(op.ID, !n.removed))
		case protocol.Remove:
			n.removed = true
			n.reply(op, protocol.Finished(op.ID))
		}
		return
	}

	pos := positionOf(op.Elem, n.elem)
	if child := n.children[pos]; child != nil {
		child.Submit(op)
		return
	}

	switch op.Kind {
	case protocol.Insert:
		n.children[pos] = Spawn(n.spawner, n, op.Elem, false, n.baseLog)
		n.log.Debug("created child", "position", pos, "child", op.Elem)
		n.reply(op, protocol.Finished(op.ID))
	case protocol.Contains:
		n.reply(op, protocol.Result(op.ID, false))
	case protocol.Remove:
		n.reply(op, protocol.Finished(op.ID))
	}
}

func (n *Node) reply(op protocol.Operation, r protocol.Reply) {
	if op.Requester == nil {
		n.log.Error("operation has no requester", "kind", op.Kind, "id", op.ID)
		return
	}
	op.Requester.Deliver(r)
}

func (n *Node) startCopy(m message) {
	n.state = StateCopying
	n.expected = map[*Node]struct{}{n: {}}
	for _, child := range n.children {
		if child != nil {
			n.expected[child] = struct{}{}
		}
	}

	if n.removed {
		delete(n.expected, n)
	} else {
		m.dest.Submit(protocol.Operation{
			Requester: n,
			Kind:      protocol.Insert,
			ID:        copyInsertID,
			Elem:      n.elem,
		})
		copyInserts.Inc()
	}

	for _, child := range n.children {
		if child != nil {
			child.CopyTo(m.dest)
		}
	}

	n.finishIfDone()
}

func (n *Node) copyInserted(m message) {
	if m.reply.Kind != protocol.OperationFinished || m.reply.ID != copyInsertID {
		n.log.Error("unexpected reply while copying", "reply", m.reply.Kind, "id", m.reply.ID)
		unexpectedMessages.WithLabelValues(n.state.String(), m.kind.String()).Inc()
		return
	}
	delete(n.expected, n)
	n.finishIfDone()
}

func (n *Node) childCopied(m message) {
	if _, ok := n.expected[m.from]; !ok || m.from == n {
		n.log.Error("copy finished from unknown child")
		unexpectedMessages.WithLabelValues(n.state.String(), m.kind.String()).Inc()
		return
	}
	delete(n.expected, m.from)
	n.finishIfDone()
}

func (n *Node) finishIfDone() {
	if len(n.expected) > 0 {
		return
	}
	n.state = StateFinished
	n.expected = nil
	n.parent.CopyFinished(n)
}
