// Package demo infers what an interaction should do from the gesture the
// user performs on the running visualization, and proposes candidate
// selections and applications for it.
package demo

import (
	"log/slog"
	"maps"
	"reflect"
	"strconv"
	"time"

	"cogentcore.org/core/base/errors"

	"github.com/AnatoleLucet/lyra/internal/binding"
	"github.com/AnatoleLucet/lyra/internal/metrics"
	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/tasks"
	"github.com/AnatoleLucet/lyra/internal/view"
)

// DefaultDebounce is how long signal updates settle before a demonstration is classified.
const DefaultDebounce = 250 * time.Millisecond

// PreviewSink receives every demonstration signal value, to be mirrored
// into the candidate previews of the interaction.
type PreviewSink func(interactionID int, name string, value any)

type session struct {
	id     int
	group  string
	values map[string]any
	kind   Kind
	cancel []func()
}

// Engine listens to the demonstration signals of attached interactions.
type Engine struct {
	view   view.View
	store  *binding.Store
	tasks  *tasks.Scheduler
	logger *slog.Logger

	sessions map[int]*session

	Debounce time.Duration
	Sink     PreviewSink

	// Keyboard returns the modifier key currently held, if any.
	Keyboard func() *scene.Input
}

func New(v view.View, store *binding.Store, sched *tasks.Scheduler, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		view:     v,
		store:    store,
		tasks:    sched,
		logger:   logger,
		sessions: map[int]*session{},
		Debounce: DefaultDebounce,
	}
}

// Attach starts listening for demonstrations of interaction id in the
// scope of group. Attaching again replaces the previous listeners.
func (e *Engine) Attach(id int, group string) {
	e.Detach(id)

	s := &session{id: id, group: group, values: map[string]any{}}
	e.sessions[id] = s

	for _, name := range []string{BrushX, BrushY, PointsTuple, PointsToggle, Scoped(PointsTuple, id), Scoped(PointsToggle, id)} {
		s.cancel = append(s.cancel, e.view.OnSignal(group, name, func(name string, value any) {
			e.onDemonstration(s, name, value)
		}))
	}
	for _, name := range []string{GridAnchor, GridDelta} {
		s.cancel = append(s.cancel, e.view.OnSignal(group, name, func(name string, value any) {
			e.onGrid(s, name, value)
		}))
	}

	e.logger.Debug("demonstration attached", slog.Int("interaction", id), slog.String("group", group))
}

// Detach stops listening and drops any pending classification.
func (e *Engine) Detach(id int) {
	s, ok := e.sessions[id]
	if !ok {
		return
	}

	for _, cancel := range s.cancel {
		cancel()
	}
	e.tasks.Cancel(taskKey(id))
	delete(e.sessions, id)
}

// DetachAll stops listening to every interaction.
func (e *Engine) DetachAll() {
	for id := range e.sessions {
		e.Detach(id)
	}
}

// Attached reports whether interaction id is being listened to.
func (e *Engine) Attached(id int) bool {
	_, ok := e.sessions[id]
	return ok
}

// Kind is the last classification of interaction id.
func (e *Engine) Kind(id int) Kind {
	if s, ok := e.sessions[id]; ok {
		return s.kind
	}
	return Unset
}

// Values returns a copy of the last seen demonstration signal values.
func (e *Engine) Values(id int) map[string]any {
	if s, ok := e.sessions[id]; ok {
		return maps.Clone(s.values)
	}
	return nil
}

func (e *Engine) onDemonstration(s *session, name string, value any) {
	if old, ok := s.values[name]; ok && reflect.DeepEqual(old, value) {
		return
	}

	s.values[name] = value
	e.tasks.Schedule(taskKey(s.id), e.Debounce, func() { e.classify(s) })
	e.preview(s, name, value)
}

func (e *Engine) onGrid(s *session, name string, value any) {
	s.values[name] = value
	e.preview(s, name, value)
}

func (e *Engine) preview(s *session, name string, value any) {
	if e.Sink != nil {
		e.Sink(s.id, name, value)
	}
}

func (e *Engine) classify(s *session) {
	if e.sessions[s.id] != s {
		return
	}

	s.kind = Classify(s.values, s.kind)
	metrics.Classifications.WithLabelValues(s.kind.String()).Inc()
	if s.kind == Unset {
		return
	}

	b, err := e.store.Binding(s.id)
	if errors.Log(err) != nil {
		return
	}
	if KindOf(b.Input) == s.kind {
		return
	}

	var keyboard *scene.Input
	if e.Keyboard != nil {
		keyboard = e.Keyboard()
	}

	applied, err := e.store.DemonstrateInput(s.kind.Mouse(), s.id, keyboard)
	if errors.Log(err) != nil {
		return
	}
	if applied {
		metrics.DemonstratedInputs.Inc()
	}

	e.logger.Info("demonstration classified",
		slog.Int("interaction", s.id),
		slog.String("kind", s.kind.String()),
		slog.Bool("applied", applied))
}

func taskKey(id int) string {
	return "classify/" + strconv.Itoa(id)
}
