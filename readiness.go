package authgate

import (
	"context"
	"sync"
)

// readyCell is a boolean with a broadcast wait. Waiters grab the current
// channel and block on it; setting ready closes the channel, releasing all
// of them at once.
type readyCell struct {
	mu    sync.Mutex
	ready bool
	ch    chan struct{}
}

func newReadyCell() *readyCell {
	return &readyCell{ch: make(chan struct{})}
}

func (c *readyCell) isReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// markReadyLocked must be called with c.mu held.
func (c *readyCell) markReadyLocked() bool {
	if c.ready {
		return false
	}
	c.ready = true
	close(c.ch)
	return true
}

// resetLocked must be called with c.mu held.
func (c *readyCell) resetLocked() {
	if !c.ready {
		return
	}
	c.ready = false
	c.ch = make(chan struct{})
}

func (c *readyCell) wait(ctx context.Context) error {
	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		return nil
	}
	ch := c.ch
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
