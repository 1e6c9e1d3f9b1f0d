// Package view defines what the editor needs from the rendering engine,
// and an in-process implementation built on the reactive runtime.
package view

import (
	"encoding/json"
	"log/slog"

	"cogentcore.org/core/base/errors"

	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/reactive"
)

// Handler receives the new value of a signal.
type Handler func(name string, value any)

// View is the rendering engine as seen by the editor. Signals are scoped by
// group name; the empty group is the top level scope.
type View interface {
	Signal(group, name string) any
	SetSignal(group, name string, value any)

	// OnSignal calls fn each time the signal changes. The returned func
	// removes the listener.
	OnSignal(group, name string, fn Handler) (cancel func())

	// Render replaces the running visualization.
	Render(spec json.RawMessage) error

	// Parsing reports whether a Render is still being processed.
	Parsing() bool

	// Selected is the mark under the pointer, if any.
	Selected() (scene.Ref, bool)
}

type key struct {
	group, name string
}

// Local keeps signals in reactive cells on the calling goroutine.
type Local struct {
	logger *slog.Logger

	values   map[key]*reactive.Signal[any]
	parsing  bool
	selected *scene.Ref

	spec    json.RawMessage
	renders int
}

func NewLocal(logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}

	return &Local{
		logger: logger,
		values: map[key]*reactive.Signal[any]{},
	}
}

func (l *Local) cell(group, name string) *reactive.Signal[any] {
	k := key{group, name}
	s, ok := l.values[k]
	if !ok {
		s = reactive.NewSignal[any](nil)
		l.values[k] = s
	}
	return s
}

func (l *Local) Signal(group, name string) any {
	return l.cell(group, name).Peek()
}

func (l *Local) SetSignal(group, name string, value any) {
	l.cell(group, name).Write(value)
}

func (l *Local) OnSignal(group, name string, fn Handler) func() {
	s := l.cell(group, name)
	owner := reactive.NewOwner()

	errors.Log(owner.Run(func() error {
		first := true
		reactive.NewEffect(func() {
			v := s.Read()
			if first {
				first = false
				return
			}

			reactive.Untrack(func() struct{} {
				fn(name, v)
				return struct{}{}
			})
		})
		return nil
	}))

	return owner.Dispose
}

func (l *Local) Render(spec json.RawMessage) error {
	l.spec = spec
	l.renders++
	l.logger.Debug("view rendered", slog.Int("bytes", len(spec)), slog.Int("renders", l.renders))
	return nil
}

func (l *Local) Parsing() bool {
	return l.parsing
}

func (l *Local) SetParsing(parsing bool) {
	l.parsing = parsing
}

func (l *Local) Selected() (scene.Ref, bool) {
	if l.selected == nil {
		return scene.Ref{}, false
	}
	return *l.selected, true
}

// Select marks ref as the item under the pointer; nil clears it.
func (l *Local) Select(ref *scene.Ref) {
	l.selected = ref
}

// Spec is the last rendered specification.
func (l *Local) Spec() json.RawMessage {
	return l.spec
}

// Renders counts calls to Render.
func (l *Local) Renders() int {
	return l.renders
}
