package treenode

import (
	"fmt"

	"github.com/dreamware/treeset/internal/protocol"
)

type msgKind int

const (
	msgOperation msgKind = iota
	msgCopyTo
	msgCopyFinished
	msgReply
	numMsgKinds
)

func (k msgKind) String() string {
	switch k {
	case msgOperation:
		return "operation"
	case msgCopyTo:
		return "copy_to"
	case msgCopyFinished:
		return "copy_finished"
	case msgReply:
		return "reply"
	default:
		return fmt.Sprintf("message(%d)", int(k))
	}
}

// message is everything a node's mailbox carries. Only the fields for kind
// are set.
type message struct {
	op    protocol.Operation // msgOperation
	dest  *Node              // msgCopyTo
	from  *Node              // msgCopyFinished
	reply protocol.Reply     // msgReply
	kind  msgKind
}

type handlerFunc func(n *Node, m message)

// dispatch maps (state, message kind) to a handler. A nil entry means the
// message is not accepted in that state. Filled in init to break the
// initialization cycle through Spawn.
var dispatch [numStates][numMsgKinds]handlerFunc

func init() {
	dispatch[StateNormal][msgOperation] = (*Node).handleOperation
	dispatch[StateNormal][msgCopyTo] = (*Node).startCopy

	dispatch[StateCopying][msgReply] = (*Node).copyInserted
	dispatch[StateCopying][msgCopyFinished] = (*Node).childCopied
}
