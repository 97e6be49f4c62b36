package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/treeset/internal/coordinator"
	"github.com/dreamware/treeset/internal/protocol"
)

// silentBackend accepts operations and never answers.
type silentBackend struct {
	mu   sync.Mutex
	ops  []protocol.Operation
	gcs  int
	done chan struct{}
}

func (b *silentBackend) Submit(op protocol.Operation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, op)
}

func (b *silentBackend) GC() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gcs++
}

func (b *silentBackend) Done() <-chan struct{} { return b.done }

func newCoordinatorClient(t *testing.T) *Client {
	t.Helper()
	coord := coordinator.New(context.Background(), coordinator.Config{})
	t.Cleanup(coord.Stop)
	return New(coord, nil)
}

func TestClientAgainstCoordinator(t *testing.T) {
	ctx := context.Background()
	c := newCoordinatorClient(t)

	require.NoError(t, c.Insert(ctx, 5))
	found, err := c.Contains(ctx, 5)
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, c.Remove(ctx, 5))
	found, err = c.Contains(ctx, 5)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Insert(ctx, 3))
	c.GC()
	found, err = c.Contains(ctx, 3)
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, 0, c.InFlight())
}

func TestClientConcurrent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c := newCoordinatorClient(t)

	var wg sync.WaitGroup
	errs := make(chan error, 400)
	for i := 0; i < 400; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := c.Insert(ctx, i); err != nil {
				errs <- err
			}
			if i%97 == 0 {
				c.GC()
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	for i := 0; i < 400; i += 37 {
		found, err := c.Contains(ctx, i)
		require.NoError(t, err)
		assert.True(t, found, "elem %d", i)
	}
}

func TestClientReplyMatchesRequest(t *testing.T) {
	b := &silentBackend{done: make(chan struct{})}
	c := New(b, nil)

	type result struct {
		r   protocol.Reply
		err error
	}
	out := make(chan result, 2)
	go func() {
		r, err := c.Do(context.Background(), protocol.Contains, 1)
		out <- result{r, err}
	}()

	var op protocol.Operation
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		if len(b.ops) == 0 {
			return false
		}
		op = b.ops[0]
		return true
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, c.InFlight())
	assert.Equal(t, protocol.Contains, op.Kind)
	assert.Equal(t, 1, op.Elem)
	assert.Same(t, c, op.Requester)

	// a reply nobody is waiting for is dropped
	c.Deliver(protocol.Result(op.ID+100, true))
	c.Deliver(protocol.Result(op.ID, true))

	res := <-out
	require.NoError(t, res.err)
	assert.Equal(t, protocol.Result(op.ID, true), res.r)
	assert.Equal(t, 0, c.InFlight())
}

func TestClientContextCancel(t *testing.T) {
	b := &silentBackend{done: make(chan struct{})}
	c := New(b, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.Insert(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.InFlight())

	// late reply is harmless
	c.Deliver(protocol.Finished(1))
}

func TestClientBackendStopped(t *testing.T) {
	b := &silentBackend{done: make(chan struct{})}
	close(b.done)
	c := New(b, nil)

	_, err := c.Contains(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrStopped))

	c.GC()
	assert.Equal(t, 1, b.gcs)
}

func TestClientAfterCoordinatorStop(t *testing.T) {
	coord := coordinator.New(context.Background(), coordinator.Config{})
	c := New(coord, nil)
	coord.Stop()

	err := c.Remove(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStopped)
}
