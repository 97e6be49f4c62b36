// Package mailbox provides the unbounded FIFO inbox every actor in the tree
// drains one message at a time.
package mailbox

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Receive once the mailbox is closed and drained.
var ErrClosed = errors.New("mailbox closed")

// Mailbox is an unbounded FIFO queue with a single consumer.
// Send never blocks, so actors can message each other in any direction
// without risking a send cycle.
type Mailbox[T any] struct {
	mu     sync.Mutex
	queue  []T
	notify chan struct{} // capacity 1, signals the consumer
	closed bool
}

func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send enqueues msg. It reports false if the mailbox is closed, in which case
// the message is dropped.
func (m *Mailbox[T]) Send(msg T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	m.wake()
	return true
}

// Receive returns the oldest message, blocking until one arrives, the context
// is done, or the mailbox is closed and empty.
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			msg := m.queue[0]
			m.queue[0] = zero
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return msg, nil
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return zero, ErrClosed
		}

		select {
		case <-m.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Close rejects further sends. Messages already queued can still be received.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wake()
}

// Len returns the number of queued messages.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Mailbox[T]) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
