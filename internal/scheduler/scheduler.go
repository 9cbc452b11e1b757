// Package scheduler coalesces bursts of change notifications into a single
// rebuild that runs after a quiet period.
//
// The scheduler starts with its gate closed: triggers are ignored until Open
// is called once the initial directory scan is complete. After that every
// Trigger restarts the quiet-period timer. When the timer expires its
// generation is delivered on C; the owner of the event loop passes it to
// Consume and rebuilds only if Consume returns true. Rebuilds therefore run on
// the owner's goroutine and never overlap.
package scheduler

import (
	"sync"
	"time"
)

// DefaultWindow is the quiet period before a rebuild runs.
const DefaultWindow = 500 * time.Millisecond

// State is the scheduler state.
type State int

const (
	// GateClosed ignores triggers until the initial scan completes.
	GateClosed State = iota
	// Idle has no rebuild pending.
	Idle
	// Armed has a pending rebuild timer.
	Armed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case GateClosed:
		return "GATE_CLOSED"
	case Idle:
		return "IDLE"
	case Armed:
		return "ARMED"
	default:
		return "UNKNOWN"
	}
}

// Scheduler is a debounced rebuild trigger with an initial gate.
type Scheduler struct {
	window  time.Duration
	mu      sync.Mutex
	state   State
	gen     uint64
	timer   *time.Timer
	fire    chan uint64
	stopCh  chan struct{}
	stopped bool
}

// New creates a scheduler with the given quiet period.
// A non-positive window uses DefaultWindow.
func New(window time.Duration) *Scheduler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scheduler{
		window: window,
		state:  GateClosed,
		fire:   make(chan uint64),
		stopCh: make(chan struct{}),
	}
}

// Window returns the quiet period.
func (s *Scheduler) Window() time.Duration {
	return s.window
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open opens the gate. It returns true the first time it is called; the
// caller is then expected to run one immediate rebuild.
func (s *Scheduler) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.state != GateClosed {
		return false
	}
	s.state = Idle
	return true
}

// Trigger requests a rebuild. Any pending timer is cancelled and a new one
// started. Returns false if the gate is closed or the scheduler is stopped.
func (s *Scheduler) Trigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.state == GateClosed {
		return false
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.state = Armed
	s.timer = time.AfterFunc(s.window, func() {
		s.expire(gen)
	})
	return true
}

// expire delivers gen on the fire channel if it is still the pending timer.
func (s *Scheduler) expire(gen uint64) {
	s.mu.Lock()
	current := !s.stopped && s.state == Armed && s.gen == gen
	s.mu.Unlock()

	if !current {
		return
	}

	select {
	case s.fire <- gen:
	case <-s.stopCh:
	}
}

// C returns the channel on which expired timer generations are delivered.
func (s *Scheduler) C() <-chan uint64 {
	return s.fire
}

// Consume reports whether gen is the pending rebuild and, if so, returns the
// scheduler to Idle. Stale generations are ignored.
func (s *Scheduler) Consume(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.state != Armed || s.gen != gen {
		return false
	}
	s.state = Idle
	s.timer = nil
	return true
}

// Stop cancels any pending rebuild. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	close(s.stopCh)
}
