package internal

import (
	"reflect"
	"slices"
)

type Signal struct {
	rt *Runtime

	value        any
	pendingValue *any // nil if no pending value

	// the write version of the signal, taken from the runtime clock
	version int

	// height of the node in the dependency graph, 0 for plain signals
	height int

	subs []*Computed
}

func (r *Runtime) NewSignal(initial any) *Signal {
	return &Signal{
		rt:    r,
		value: initial,
	}
}

func (s *Signal) Read() any {
	s.rt.tracker.Track(s)

	return s.Value()
}

func (s *Signal) Write(v any) {
	if isEqual(s.Value(), v) {
		return
	}

	s.pendingValue = &v
	s.version = s.rt.Time()

	s.rt.nodeQueue.Enqueue(s)
	s.rt.heap.InsertAll(s.subs)
	s.rt.Schedule()
}

func (s *Signal) Value() any {
	if s.pendingValue != nil {
		return *s.pendingValue
	}

	return s.value
}

func (s *Signal) Version() int {
	return s.version
}

// Commit applies the pending value to the signal
func (s *Signal) Commit() {
	if s.pendingValue != nil {
		s.value = *s.pendingValue
		s.pendingValue = nil
	}
}

func (s *Signal) addSub(c *Computed) {
	if !slices.Contains(s.subs, c) {
		s.subs = append(s.subs, c)
	}
}

func (s *Signal) removeSub(c *Computed) {
	s.subs = slices.DeleteFunc(s.subs, func(sub *Computed) bool { return sub == c })
}

// values flowing through the graph are often slices (brush extents, tuples)
// so plain == is not usable here
func isEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
