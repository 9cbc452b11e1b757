package watcher

import (
	"sync"
	"time"
)

// Coalescer holds live events for a short window so that editor save
// sequences collapse into one event. Events for the same path within the
// window are merged according to these rules:
//   - ADD + CHANGE = ADD (file is still new)
//   - ADD + REMOVE = nothing (file never really existed)
//   - CHANGE + REMOVE = REMOVE (file is gone)
//   - REMOVE + ADD = CHANGE (file was replaced)
//
// Batches keep the order in which paths were first seen.
type Coalescer struct {
	window  time.Duration
	pending map[string]*pendingEvent
	order   []string
	mu      sync.Mutex
	flushMu sync.Mutex
	output  chan []FileEvent
	timer   *time.Timer
	stopCh  chan struct{}
	stopped bool
}

type pendingEvent struct {
	event   FileEvent
	firstOp Operation
}

// NewCoalescer creates a coalescer with the given window.
func NewCoalescer(window time.Duration) *Coalescer {
	return &Coalescer{
		window:  window,
		pending: make(map[string]*pendingEvent),
		output:  make(chan []FileEvent, 16),
		stopCh:  make(chan struct{}),
	}
}

// Add queues an event and restarts the window.
func (c *Coalescer) Add(event FileEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	path := event.RelPath
	if existing, ok := c.pending[path]; ok {
		merged, keep := coalesce(existing.firstOp, existing.event, event)
		if keep {
			existing.event = merged
		} else {
			delete(c.pending, path)
			c.dropFromOrder(path)
		}
	} else {
		c.pending[path] = &pendingEvent{event: event, firstOp: event.Operation}
		c.order = append(c.order, path)
	}

	c.scheduleFlush()
}

// coalesce merges next into the pending event. keep is false when the pair
// cancels out.
func coalesce(firstOp Operation, existing, next FileEvent) (FileEvent, bool) {
	switch firstOp {
	case OpAdd:
		switch next.Operation {
		case OpChange:
			return existing, true
		case OpRemove:
			return FileEvent{}, false
		}
	case OpRemove:
		if next.Operation == OpAdd || next.Operation == OpChange {
			next.Operation = OpChange
			return next, true
		}
	case OpChange:
		if next.Operation == OpAdd {
			next.Operation = OpChange
			return next, true
		}
	}
	return next, true
}

func (c *Coalescer) dropFromOrder(path string) {
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// scheduleFlush restarts the window timer. Must be called with lock held.
func (c *Coalescer) scheduleFlush() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.flush)
}

// flush emits all pending events as one batch.
func (c *Coalescer) flush() {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if c.stopped || len(c.order) == 0 {
		c.mu.Unlock()
		return
	}
	events := make([]FileEvent, 0, len(c.order))
	for _, path := range c.order {
		events = append(events, c.pending[path].event)
	}
	c.pending = make(map[string]*pendingEvent)
	c.order = nil
	c.mu.Unlock()

	select {
	case c.output <- events:
	case <-c.stopCh:
	}
}

// Output returns the channel of coalesced batches.
func (c *Coalescer) Output() <-chan []FileEvent {
	return c.output
}

// Stop discards pending events. Safe to call multiple times.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
	close(c.stopCh)
}
