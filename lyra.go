// Package lyra is the editor core of a visual editor for interactive
// visualizations. An Editor owns the document, keeps the compiled
// specification in sync with it, and infers interactions from gestures
// demonstrated on the running view.
package lyra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cerrors "cogentcore.org/core/base/errors"
	"github.com/Masterminds/semver/v3"

	"github.com/AnatoleLucet/lyra/internal/binding"
	"github.com/AnatoleLucet/lyra/internal/demo"
	"github.com/AnatoleLucet/lyra/internal/handles"
	"github.com/AnatoleLucet/lyra/internal/metrics"
	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/signals"
	"github.com/AnatoleLucet/lyra/internal/tasks"
	"github.com/AnatoleLucet/lyra/internal/timeline"
	"github.com/AnatoleLucet/lyra/internal/vega"
	"github.com/AnatoleLucet/lyra/internal/view"
	"github.com/AnatoleLucet/lyra/reactive"
)

type Options struct {
	Logger *slog.Logger

	// Clock drives the demonstration debounce. Defaults to the wall clock.
	Clock tasks.Clock

	// Debounce is how long demonstration signals settle before being
	// classified. Zero means demo.DefaultDebounce.
	Debounce time.Duration

	Width, Height int

	// TimelineLimit caps the undo history, 0 keeps everything.
	TimelineLimit int

	Version *semver.Version

	// Fields lists the fields of a dataset. Defaults to the dataset schema.
	Fields demo.FieldLookup

	// Keyboard returns the modifier held during a demonstration, if any.
	Keyboard func() *scene.Input
}

type compiled struct {
	raw json.RawMessage
	err error
}

type Editor struct {
	logger *slog.Logger
	opts   Options

	view     view.View
	doc      *scene.Document
	revision *reactive.Signal[int]

	store    *binding.Store
	engine   *demo.Engine
	tasks    *tasks.Scheduler
	timeline *timeline.Timeline

	owner *reactive.Owner
	spec  *reactive.Computed[compiled]

	dragging *demo.Dragging
	previews map[int]map[string]any
}

// New creates an editor rendering into v, with an empty scene saved as the
// timeline baseline.
func New(v view.View, opts Options) (*Editor, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = tasks.Real{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = demo.DefaultDebounce
	}
	if opts.Width <= 0 {
		opts.Width = scene.DefaultSize
	}
	if opts.Height <= 0 {
		opts.Height = scene.DefaultSize
	}

	doc := scene.New()
	if _, err := doc.CreateScene(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	reg, err := manipulators(doc.Signals)
	if err != nil {
		return nil, err
	}
	doc.Signals = reg

	e := &Editor{
		logger:   opts.Logger,
		opts:     opts,
		view:     v,
		doc:      doc,
		revision: reactive.NewSignal(0),
		store:    binding.New(doc, opts.Logger),
		tasks:    tasks.New(opts.Clock, opts.Logger),
		previews: map[int]map[string]any{},
	}

	if e.opts.Fields == nil {
		e.opts.Fields = func(id int) ([]string, bool) { return demo.SchemaLookup(e.doc)(id) }
	}

	e.engine = demo.New(v, e.store, e.tasks, opts.Logger)
	e.engine.Debounce = opts.Debounce
	e.engine.Keyboard = opts.Keyboard
	e.engine.Sink = e.preview

	e.timeline = timeline.New(doc, opts.Logger)
	e.timeline.Limit = opts.TimelineLimit
	metrics.TimelineSize.Set(float64(e.timeline.Len()))

	e.owner = reactive.NewOwner()
	err = e.owner.Run(func() error {
		e.spec = reactive.NewComputed(e.compile)
		reactive.NewEffect(e.render)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return e, nil
}

// manipulators defines the signals the view's manipulators drive.
func manipulators(reg *signals.Registry) (*signals.Registry, error) {
	defs := []struct {
		name    string
		init    any
		streams []signals.Stream
	}{
		{signals.Delta, map[string]any{"x": 0, "y": 0}, []signals.Stream{{
			Events: signals.EventSource{Type: "[mousedown, window:mouseup] > window:mousemove"},
			Update: fmt.Sprintf("{x: x() - %[1]s.x, y: y() - %[1]s.y}", signals.Anchor),
		}}},
		{signals.Anchor, nil, []signals.Stream{
			{Events: signals.EventSource{Type: "mousedown"}, Update: "{x: x(), y: y(), target: item()}"},
			{
				Events: signals.EventSource{Type: "[mousedown, window:mouseup] > window:mousemove"},
				Update: fmt.Sprintf("{x: x(), y: y(), target: %s.target}", signals.Anchor),
			},
		}},
		{signals.Mode, demo.ModeHandles, nil},
		{signals.Cell, map[string]any{}, nil},
		{signals.Selected, map[string]any{}, []signals.Stream{
			{Events: signals.EventSource{Type: "mousedown"}, Update: "item()"},
		}},
	}

	var err error
	for _, d := range defs {
		if reg, err = reg.Define(d.name, d.init); err != nil {
			return nil, err
		}
		if d.streams == nil {
			continue
		}
		if reg, err = reg.SetStreams(d.name, d.streams); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (e *Editor) compile() compiled {
	e.revision.Read()
	e.store.Version()

	start := time.Now()
	raw, err := vega.Marshal(e.doc, vega.Options{Version: e.opts.Version})
	metrics.CompileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CompileErrors.Inc()
	}

	return compiled{raw, err}
}

func (e *Editor) render() {
	c := e.spec.Read()
	if c.err != nil {
		e.logger.Error("spec compilation failed", slog.Any("error", c.err))
		return
	}
	cerrors.Log(e.view.Render(c.raw))
}

// changed marks the document as modified.
func (e *Editor) changed() {
	e.revision.Update(func(v int) int { return v + 1 })
}

// Document is the current document. It must only be modified through the editor.
func (e *Editor) Document() *scene.Document {
	return e.doc
}

// Spec is the compiled specification of the current document.
func (e *Editor) Spec() (json.RawMessage, error) {
	c := e.spec.Read()
	return c.raw, c.err
}

// AddMark adds m to the document and turns its literal properties into
// signals driven by the handle manipulators.
func (e *Editor) AddMark(m *scene.Mark) (int, error) {
	id, err := e.doc.AddMark(m)
	if err != nil {
		return 0, err
	}

	reg, err := handles.Instantiate(e.doc.Signals, m)
	if err != nil {
		_, derr := e.doc.DeleteMark(id)
		cerrors.Log(derr)
		return 0, err
	}
	e.doc.Signals = reg

	e.changed()
	return id, nil
}

// DeleteMark removes a mark, its descendants and their signals.
func (e *Editor) DeleteMark(id int) error {
	removed, err := e.doc.DeleteMark(id)
	if err != nil {
		return err
	}

	e.logger.Debug("mark deleted", slog.Int("mark", id), slog.Any("signals", removed))
	e.changed()
	return nil
}

func (e *Editor) AddScale(s *scene.Scale) int {
	id := e.doc.AddScale(s)
	e.changed()
	return id
}

func (e *Editor) AddDataset(ds *scene.Dataset) int {
	id := e.doc.AddDataset(ds)
	e.changed()
	return id
}

func (e *Editor) AddInteraction(groupID int) (int, error) {
	id, err := e.doc.AddInteraction(groupID)
	if err != nil {
		return 0, err
	}
	e.changed()
	return id, nil
}

func (e *Editor) DeleteInteraction(id int) error {
	e.StopDemonstration(id)
	if err := e.doc.DeleteInteraction(id); err != nil {
		return err
	}
	e.changed()
	return nil
}

// SetMarkVisual points one encode property of a mark at ref.
func (e *Editor) SetMarkVisual(id int, prop string, ref *scene.ValueRef) error {
	if err := e.doc.SetVisual(id, prop, ref); err != nil {
		return err
	}
	e.changed()
	return nil
}

func (e *Editor) Binding(id int) (binding.Binding, error) {
	return e.store.Binding(id)
}

func (e *Editor) SetInput(in scene.Input, id int) error {
	return e.store.SetInput(in, id)
}

func (e *Editor) SetSelection(rec scene.Selection, id int) error {
	return e.store.SetSelection(rec, id)
}

func (e *Editor) SetApplication(rec scene.Application, id int) error {
	return e.store.SetApplication(rec, id)
}

// SelectProjectionField changes the field a projected point selection matches on.
func (e *Editor) SelectProjectionField(id int, field string) error {
	b, err := e.store.Binding(id)
	if err != nil {
		return err
	}

	p, ok := b.Selection.(scene.PointSelection)
	if !ok || !p.Projected() {
		return fmt.Errorf("interaction %d: no projected point selection", id)
	}
	p.Field = field
	return e.store.SetSelection(p, id)
}

// SelectTargetMark changes the mark a mark application restyles.
func (e *Editor) SelectTargetMark(id int, name string) error {
	b, err := e.store.Binding(id)
	if err != nil {
		return err
	}

	app, ok := b.Application.(scene.MarkApplication)
	if !ok {
		return fmt.Errorf("interaction %d: no mark application", id)
	}
	app.TargetMarkName = name
	return e.store.SetApplication(app, id)
}

// Previews lists the candidate selections and applications of interaction id.
// A dataset whose fields cannot be listed degrades to no field candidates.
func (e *Editor) Previews(id int) ([]scene.Selection, []scene.Application, error) {
	ctx, err := demo.NewContext(e.doc, id, e.opts.Fields)
	if errors.Is(err, demo.ErrMissingFieldData) {
		e.logger.Warn("previews without fields", slog.Int("interaction", id), slog.Any("error", err))
	} else if err != nil {
		return nil, nil, err
	}

	sel, app := demo.Previews(ctx)
	return sel, app, nil
}

// CanDemonstrate reports whether gestures on the view can be classified
// for interaction id.
func (e *Editor) CanDemonstrate(id int) bool {
	in, err := e.doc.Interaction(id)
	if err != nil {
		return false
	}
	return demo.CanDemonstrate(e.view, e.doc.ScaleInfo(in.GroupID))
}

// Demonstrate starts listening to gestures for interaction id.
func (e *Editor) Demonstrate(id int) error {
	in, err := e.doc.Interaction(id)
	if err != nil {
		return err
	}
	g, err := e.doc.Mark(in.GroupID)
	if err != nil {
		return err
	}

	e.engine.Attach(id, scene.ExportName(g.Name))
	return nil
}

func (e *Editor) StopDemonstration(id int) {
	e.engine.Detach(id)
	delete(e.previews, id)
}

// Kind is how the last demonstration of interaction id was classified.
func (e *Editor) Kind(id int) demo.Kind {
	return e.engine.Kind(id)
}

func (e *Editor) preview(id int, name string, value any) {
	if e.previews[id] == nil {
		e.previews[id] = map[string]any{}
	}
	e.previews[id][name] = value
}

// PreviewSignals returns the demonstration values to mirror into the
// candidate previews of interaction id.
func (e *Editor) PreviewSignals(id int) map[string]any {
	out := make(map[string]any, len(e.previews[id]))
	for k, v := range e.previews[id] {
		out[k] = v
	}
	return out
}

// Bubbles lists the signals of interaction id that can be dragged onto a mark.
func (e *Editor) Bubbles(id int) []string {
	in, err := e.doc.Interaction(id)
	if err != nil {
		return nil
	}
	return demo.Bubbles(e.doc.ScaleInfo(in.GroupID), e.engine.Kind(id))
}

// StartDrag begins dragging signal of interaction id.
func (e *Editor) StartDrag(id int, signal string) error {
	in, err := e.doc.Interaction(id)
	if err != nil {
		return err
	}

	e.dragging = &demo.Dragging{GroupID: in.GroupID, Signal: signal}
	demo.StartDrag(e.view)
	return nil
}

// EndDrag binds the dragged signal to the channel it was dropped on. A
// drop outside any channel binds nothing. Failures are logged and leave the
// document unchanged.
func (e *Editor) EndDrag() error {
	d := e.dragging
	e.dragging = nil

	drop, ok := demo.EndDrag(e.view)
	if d == nil || !ok {
		return nil
	}

	if err := demo.Bind(e.doc, drop, d.Signal, e.logger); err != nil {
		metrics.DropFailures.Inc()
		return cerrors.Log(err)
	}

	e.changed()
	return nil
}

// Save records the current document in the timeline.
func (e *Editor) Save() {
	e.timeline.Save(e.doc)
	metrics.TimelineOps.WithLabelValues("save").Inc()
	metrics.TimelineSize.Set(float64(e.timeline.Len()))
}

func (e *Editor) Undo() bool {
	doc, ok := e.timeline.Undo()
	if ok {
		metrics.TimelineOps.WithLabelValues("undo").Inc()
		e.restore(doc)
	}
	return ok
}

func (e *Editor) Redo() bool {
	doc, ok := e.timeline.Redo()
	if ok {
		metrics.TimelineOps.WithLabelValues("redo").Inc()
		e.restore(doc)
	}
	return ok
}

func (e *Editor) CanUndo() bool { return e.timeline.CanUndo() }
func (e *Editor) CanRedo() bool { return e.timeline.CanRedo() }

func (e *Editor) restore(doc *scene.Document) {
	reactive.NewBatch(func() {
		e.doc = doc
		e.store.Reset(doc)
		e.changed()
	})
}

// Pump runs the debounced actions that are due.
func (e *Editor) Pump() int {
	return e.tasks.Drain()
}

// Ready receives a value when debounced actions are due to be pumped.
func (e *Editor) Ready() <-chan struct{} {
	return e.tasks.Ready()
}

// Run pumps debounced actions as their timers fire until ctx is done.
// It must be called from the goroutine that owns the editor.
func (e *Editor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.Ready():
			e.Pump()
		}
	}
}

// Close stops every demonstration and the specification rendering.
func (e *Editor) Close() {
	e.engine.DetachAll()
	e.tasks.Stop()
	e.owner.Dispose()
}
