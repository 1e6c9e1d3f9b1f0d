// Package signals implements the editor's signal registry: the ordered
// table of named reactive values that every primitive and interaction
// compiles into.
//
// A Registry is a persistent value. Every operation returns a new registry
// and leaves the receiver untouched; entries that an operation does not
// change are shared between the two.
package signals

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"cogentcore.org/core/base/ordmap"
)

var (
	// ErrDuplicateName is returned when defining a signal whose name is taken.
	ErrDuplicateName = errors.New("signals: duplicate signal name")

	// ErrUnknownSignal is returned when referencing a signal that does not exist.
	ErrUnknownSignal = errors.New("signals: unknown signal")
)

// Prefix is shared by every signal the editor owns.
const Prefix = "lyra"

const (
	// Delta carries the pointer delta {x, y} of the current manipulator drag.
	Delta = Prefix + "_delta"

	// Anchor carries the item the current drag started on.
	Anchor = Prefix + "_anchor"

	// Mode selects between the "handles" and "channels" manipulators.
	Mode = Prefix + "_mode"

	// Cell is the drop zone currently under the pointer while dragging.
	Cell = Prefix + "_cell"

	// Selected is the item currently selected in the view.
	Selected = Prefix + "_selected"
)

// EventSource names what drives a stream: another signal or a raw event selector.
type EventSource struct {
	Signal string `json:"signal,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Stream is one update rule of a signal.
type Stream struct {
	Events EventSource `json:"events"`
	Update string      `json:"update"`
}

// Signal is an immutable registry entry.
type Signal struct {
	Name    string   `json:"name"`
	Init    any      `json:"init"`
	Streams []Stream `json:"streams,omitempty"`

	// Index is the definition order of the signal. It is never reused
	// within a registry generation.
	Index int `json:"_idx"`
}

// Registry is an insertion-ordered table of signals.
type Registry struct {
	entries *ordmap.Map[string, *Signal]

	// next index to hand out, survives removals
	next int
}

// New returns an empty registry, starting a new index generation.
func New() *Registry {
	return &Registry{entries: ordmap.New[string, *Signal]()}
}

// clone copies the ordered table; the *Signal entries are shared.
func (r *Registry) clone() *Registry {
	if r == nil {
		return New()
	}

	return &Registry{
		entries: ordmap.Make(slices.Clone(r.entries.Order)),
		next:    r.next,
	}
}

// Define adds a signal with the given initial value.
func (r *Registry) Define(name string, init any) (*Registry, error) {
	if r.Has(name) {
		return r, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	nr := r.clone()
	nr.entries.Add(name, &Signal{Name: name, Init: init, Index: nr.next})
	nr.next++

	return nr, nil
}

// AddStream appends a stream to the named signal.
func (r *Registry) AddStream(name string, stream Stream) (*Registry, error) {
	return r.modify(name, func(s *Signal) {
		s.Streams = append(slices.Clone(s.Streams), stream)
	})
}

// SetStreams replaces the stream list of the named signal.
func (r *Registry) SetStreams(name string, streams []Stream) (*Registry, error) {
	return r.modify(name, func(s *Signal) {
		s.Streams = slices.Clone(streams)
	})
}

// SetInit replaces the initial value of the named signal.
func (r *Registry) SetInit(name string, init any) (*Registry, error) {
	return r.modify(name, func(s *Signal) {
		s.Init = init
	})
}

func (r *Registry) modify(name string, fn func(s *Signal)) (*Registry, error) {
	old, ok := r.Get(name)
	if !ok {
		return r, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
	}

	updated := *old
	fn(&updated)

	nr := r.clone()
	nr.entries.Add(name, &updated)

	return nr, nil
}

// RemoveByOwner removes every signal belonging to the primitive (ownerType, ownerID)
// and returns the removed names in definition order.
func (r *Registry) RemoveByOwner(ownerType string, ownerID int) (*Registry, []string) {
	prefix := OwnerPrefix(ownerType, ownerID)

	var kept []ordmap.KeyValue[string, *Signal]
	var removed []string
	for _, kv := range r.all() {
		if strings.HasPrefix(kv.Key, prefix) {
			removed = append(removed, kv.Key)
			continue
		}
		kept = append(kept, kv)
	}

	if len(removed) == 0 {
		return r, nil
	}

	return &Registry{entries: ordmap.Make(kept), next: r.next}, removed
}

// Remove deletes a single signal. Removing an unknown name is an error.
func (r *Registry) Remove(name string) (*Registry, error) {
	if !r.Has(name) {
		return r, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
	}

	nr := r.clone()
	nr.entries.DeleteKey(name)
	return nr, nil
}

func (r *Registry) all() []ordmap.KeyValue[string, *Signal] {
	if r == nil || r.entries == nil {
		return nil
	}
	return r.entries.Order
}

func (r *Registry) Get(name string) (*Signal, bool) {
	if r == nil || r.entries == nil {
		return nil, false
	}
	return r.entries.ValueByKeyTry(name)
}

func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.entries.Len()
}

// Names returns the signal names in definition order.
func (r *Registry) Names() []string {
	if r == nil || r.entries == nil {
		return nil
	}
	return r.entries.Keys()
}

// All returns the signals in definition order.
func (r *Registry) All() []*Signal {
	if r == nil || r.entries == nil {
		return nil
	}
	return r.entries.Values()
}

// PropName is the name of the signal backing property prop of primitive (typ, id),
// e.g. lyra_rect_1_x.
func PropName(typ string, id int, prop string) string {
	return OwnerPrefix(typ, id) + prop
}

// OwnerPrefix is the name prefix shared by every signal of primitive (typ, id).
func OwnerPrefix(typ string, id int) string {
	return Prefix + "_" + typ + "_" + strconv.Itoa(id) + "_"
}

// Ref wraps a signal name in the delimiters the specification compiler resolves.
func Ref(name string) string {
	return "{{#" + name + "}}"
}
