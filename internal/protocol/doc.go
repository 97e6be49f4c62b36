// Package protocol defines the messages exchanged between callers, the
// coordinator, and tree nodes, plus the small JSON helpers used by the HTTP
// surface.
//
// # Operations and replies
//
// An Operation is a tagged struct with a Kind of Insert, Contains, or Remove.
// Every operation names a Requester and carries a caller-chosen ID. Exactly
// one Reply bearing that ID is eventually delivered to the Requester:
//
//	Insert   -> OperationFinished{id}
//	Remove   -> OperationFinished{id}
//	Contains -> ContainsResult{id, found}
//
// IDs are opaque. Nothing in the system orders or deduplicates by ID, so
// callers that need to match replies must pick unique IDs themselves.
//
// # Requesters
//
// Requester.Deliver is called from whichever tree node resolves the
// operation, on that node's goroutine. Implementations must return quickly
// and must not call back into the tree synchronously.
//
//	inbox := make(chan protocol.Reply, 1)
//	coord.Submit(protocol.Operation{
//	    Requester: protocol.RequesterFunc(func(r protocol.Reply) { inbox <- r }),
//	    Kind:      protocol.Insert,
//	    ID:        1,
//	    Elem:      5,
//	})
//	<-inbox // OperationFinished{1}
//
// # Wire helpers
//
// PostJSON and GetJSON are thin wrappers over net/http with a shared 5s
// client timeout. Any status >= 300 is returned as an error.
package protocol
