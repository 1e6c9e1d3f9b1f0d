// Package tasks runs delayed actions on the editor's logic goroutine.
//
// Timers fire on their own goroutines; the scheduler only queues the action
// and signals Ready. The owner of the logic goroutine calls Drain to run
// queued actions, so actions never race with the rest of the editor.
package tasks

import (
	"log/slog"
	"sync"
	"time"
)

type entry struct {
	gen   uint64
	timer Timer
}

// Scheduler holds keyed delayed actions. Scheduling a key that is already
// pending replaces it, so the latest call wins (a debounce).
type Scheduler struct {
	clock  Clock
	logger *slog.Logger

	mu      sync.Mutex
	gen     uint64
	pending map[string]*entry
	due     []func()
	ready   chan struct{}
}

func New(clock Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		clock:   clock,
		logger:  logger,
		pending: map[string]*entry{},
		ready:   make(chan struct{}, 1),
	}
}

// Schedule arms fn to run after delay, cancelling any pending action with the same key.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.pending[key]; ok {
		e.timer.Stop()
	}

	s.gen++
	gen := s.gen
	e := &entry{gen: gen}
	s.pending[key] = e
	e.timer = s.clock.AfterFunc(delay, func() { s.fire(key, gen, fn) })
}

func (s *Scheduler) fire(key string, gen uint64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a stale timer lost the race against Stop
	if e, ok := s.pending[key]; !ok || e.gen != gen {
		return
	}
	delete(s.pending, key)

	s.due = append(s.due, fn)
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Cancel drops the pending action for key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.pending[key]; ok {
		e.timer.Stop()
		delete(s.pending, key)
	}
}

// Pending reports whether an action is armed for key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.pending[key]
	return ok
}

// Ready receives a value whenever actions became due since the last Drain.
func (s *Scheduler) Ready() <-chan struct{} {
	return s.ready
}

// Drain runs every due action on the calling goroutine and returns how many ran.
func (s *Scheduler) Drain() int {
	s.mu.Lock()
	due := s.due
	s.due = nil
	s.mu.Unlock()

	for _, fn := range due {
		fn()
	}

	if len(due) > 0 {
		s.logger.Debug("tasks drained", slog.Int("count", len(due)))
	}
	return len(due)
}

// Stop cancels every pending action. Due actions stay queued until drained.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, key)
	}
}
