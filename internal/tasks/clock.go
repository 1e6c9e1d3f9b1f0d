package tasks

import (
	"slices"
	"sync"
	"time"
)

// Clock starts timers. The scheduler only ever needs AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type Timer interface {
	// Stop prevents the timer from firing, reporting whether it was still pending.
	Stop() bool
}

// Real is the wall clock.
type Real struct{}

func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Manual is a clock that only moves when told to.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock *Manual
	at    time.Duration
	seq   int
	fn    func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{clock: m, at: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	m := t.clock
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.timers)
	m.timers = slices.DeleteFunc(m.timers, func(o *manualTimer) bool { return o == t })
	return len(m.timers) != n
}

// Advance moves the clock forward by d and fires every timer that became
// due, earliest first, on the calling goroutine.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	now := m.now

	var due []*manualTimer
	m.timers = slices.DeleteFunc(m.timers, func(t *manualTimer) bool {
		if t.at <= now {
			due = append(due, t)
			return true
		}
		return false
	})
	m.mu.Unlock()

	slices.SortFunc(due, func(a, b *manualTimer) int {
		if a.at != b.at {
			return int(a.at - b.at)
		}
		return a.seq - b.seq
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending is the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
