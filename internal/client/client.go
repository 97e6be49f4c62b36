// Package client offers a blocking API over the asynchronous tree set
// protocol. It assigns a unique id to every request and routes each reply
// back to the goroutine waiting for it.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/dreamware/treeset/internal/protocol"
)

// ErrStopped is returned when the backend stops before replying.
var ErrStopped = errors.New("coordinator stopped")

// Backend accepts operations. *coordinator.Coordinator satisfies it.
type Backend interface {
	Submit(op protocol.Operation)
	GC()
	Done() <-chan struct{}
}

// Client is safe for concurrent use.
type Client struct {
	backend Backend
	pending *xsync.MapOf[int64, chan protocol.Reply]
	nextID  atomic.Int64
	log     *slog.Logger
}

func New(b Backend, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		backend: b,
		pending: xsync.NewMapOf[int64, chan protocol.Reply](),
		log:     log.With("system", "client"),
	}
}

// Deliver implements protocol.Requester. Replies for requests whose caller
// already gave up are dropped.
func (c *Client) Deliver(r protocol.Reply) {
	ch, ok := c.pending.LoadAndDelete(r.ID)
	if !ok {
		c.log.Debug("reply for abandoned request", "id", r.ID, "kind", r.Kind)
		return
	}
	ch <- r
}

// Do submits one operation and waits for its reply.
func (c *Client) Do(ctx context.Context, kind protocol.Kind, elem int) (protocol.Reply, error) {
	id := c.nextID.Add(1)
	ch := make(chan protocol.Reply, 1)
	c.pending.Store(id, ch)

	c.backend.Submit(protocol.Operation{
		Requester: c,
		Kind:      kind,
		ID:        id,
		Elem:      elem,
	})

	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		c.pending.Delete(id)
		return protocol.Reply{}, fmt.Errorf("%s %d: %w", kind, elem, ctx.Err())
	case <-c.backend.Done():
		c.pending.Delete(id)
		return protocol.Reply{}, fmt.Errorf("%s %d: %w", kind, elem, ErrStopped)
	}
}

func (c *Client) Insert(ctx context.Context, elem int) error {
	_, err := c.Do(ctx, protocol.Insert, elem)
	return err
}

func (c *Client) Contains(ctx context.Context, elem int) (bool, error) {
	r, err := c.Do(ctx, protocol.Contains, elem)
	if err != nil {
		return false, err
	}
	return r.Found, nil
}

func (c *Client) Remove(ctx context.Context, elem int) error {
	_, err := c.Do(ctx, protocol.Remove, elem)
	return err
}

// GC requests a collection cycle without waiting for it.
func (c *Client) GC() {
	c.backend.GC()
}

// InFlight returns the number of requests still waiting for a reply.
func (c *Client) InFlight() int {
	return c.pending.Size()
}
