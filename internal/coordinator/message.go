package coordinator

import (
	"fmt"

	"github.com/dreamware/treeset/internal/protocol"
	"github.com/dreamware/treeset/internal/treenode"
)

type msgKind int

const (
	msgOperation msgKind = iota
	msgGC
	msgCopyFinished
	numMsgKinds
)

func (k msgKind) String() string {
	switch k {
	case msgOperation:
		return "operation"
	case msgGC:
		return "gc"
	case msgCopyFinished:
		return "copy_finished"
	default:
		return fmt.Sprintf("message(%d)", int(k))
	}
}

type message struct {
	op   protocol.Operation // msgOperation
	from *treenode.Node     // msgCopyFinished
	kind msgKind
}

type handlerFunc func(c *Coordinator, m message)

var dispatch = [numStates][numMsgKinds]handlerFunc{
	StateNormal: {
		msgOperation: (*Coordinator).forward,
		msgGC:        (*Coordinator).startGC,
	},
	StateGarbageCollecting: {
		msgOperation:    (*Coordinator).enqueue,
		msgGC:           (*Coordinator).ignoreGC,
		msgCopyFinished: (*Coordinator).finishGC,
	},
}
