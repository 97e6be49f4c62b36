// Package treenode implements one position of the tree set as its own
// goroutine.
//
// A Node owns an immutable element, a tombstone flag, and at most two
// children. Operations enter at the root and travel down by the usual binary
// search order (Left when the element is smaller, Right otherwise) until they
// reach the node holding the element or an empty child slot:
//
//	op          equal element          empty slot
//	Insert      clear tombstone        spawn child, reply finished
//	Contains    reply !removed         reply false
//	Remove      set tombstone          reply finished
//
// Removal never unlinks a node. Tombstoned nodes keep routing until a copy
// drops them.
//
// # Copy Protocol
//
// CopyTo(dest) walks the whole subtree. Each node inserts its element into
// dest when it is live, forwards CopyTo to its children, and waits for its
// own insert to be acknowledged and for every child to report CopyFinished.
// It then reports CopyFinished to its Parent and stops accepting messages:
//
//	Normal ──CopyTo──▶ Copying ──expected empty──▶ Finished
//
// The node never stops its own goroutine. All nodes of a generation share an
// arena and are torn down together once the new tree has replaced them.
package treenode
