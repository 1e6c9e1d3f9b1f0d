package demo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/lyra/internal/binding"
	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/tasks"
	"github.com/AnatoleLucet/lyra/internal/view"
)

type fixture struct {
	engine *Engine
	view   *view.Local
	clock  *tasks.Manual
	sched  *tasks.Scheduler
	store  *binding.Store
	id     int
	group  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	d := scene.New()
	sceneID, err := d.CreateScene(scene.DefaultSize, scene.DefaultSize)
	require.NoError(t, err)
	groupID, err := d.AddMark(&scene.Mark{Parent: sceneID, Type: scene.Group})
	require.NoError(t, err)
	id, err := d.AddInteraction(groupID)
	require.NoError(t, err)

	f := &fixture{
		view:  view.NewLocal(nil),
		clock: tasks.NewManual(),
		store: binding.New(d, nil),
		id:    id,
		group: scene.ExportName(d.Marks[groupID].Name),
	}
	f.sched = tasks.New(f.clock, nil)
	f.engine = New(f.view, f.store, f.sched, nil)
	f.engine.Attach(id, f.group)

	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock.Advance(d)
	f.sched.Drain()
}

func (f *fixture) input(t *testing.T) *scene.Input {
	t.Helper()

	b, err := f.store.Binding(f.id)
	require.NoError(t, err)
	return b.Input
}

func TestEngine(t *testing.T) {
	t.Run("classifies once signals settle", func(t *testing.T) {
		f := newFixture(t)

		f.view.SetSignal(f.group, BrushX, []float64{0, 10})
		f.view.SetSignal(f.group, BrushY, []float64{0, 50})

		f.advance(DefaultDebounce - time.Millisecond)
		assert.Equal(t, Unset, f.engine.Kind(f.id))
		assert.Nil(t, f.input(t))

		f.advance(time.Millisecond)
		assert.Equal(t, Interval, f.engine.Kind(f.id))
		assert.Equal(t, scene.Drag, f.input(t).Mouse)
	})

	t.Run("last value wins", func(t *testing.T) {
		f := newFixture(t)

		f.view.SetSignal(f.group, BrushX, []float64{0, 10})
		f.view.SetSignal(f.group, BrushY, []float64{0, 50})
		f.advance(100 * time.Millisecond)

		f.view.SetSignal(f.group, BrushX, []float64{10, 10})
		f.view.SetSignal(f.group, PointsTuple, map[string]any{"_vgsid_": 2})
		f.advance(200 * time.Millisecond)
		assert.Equal(t, Unset, f.engine.Kind(f.id))

		f.advance(50 * time.Millisecond)
		assert.Equal(t, Point, f.engine.Kind(f.id))
		assert.Equal(t, scene.Click, f.input(t).Mouse)
	})

	t.Run("degenerate brush leaves the kind unset", func(t *testing.T) {
		f := newFixture(t)

		f.view.SetSignal(f.group, BrushX, []float64{10, 10})
		f.view.SetSignal(f.group, BrushY, []float64{0, 50})
		f.advance(DefaultDebounce)

		assert.Equal(t, Unset, f.engine.Kind(f.id))
		assert.Nil(t, f.input(t))
	})

	t.Run("listens in the group scope only", func(t *testing.T) {
		f := newFixture(t)

		f.view.SetSignal("", PointsTuple, map[string]any{"_vgsid_": 2})
		f.advance(DefaultDebounce)
		assert.Equal(t, Unset, f.engine.Kind(f.id))
	})

	t.Run("modifier key is carried into the input", func(t *testing.T) {
		f := newFixture(t)
		f.engine.Keyboard = func() *scene.Input { return &scene.Input{Keycode: 16, Key: "shift"} }

		f.view.SetSignal(f.group, PointsTuple, map[string]any{"_vgsid_": 2})
		f.advance(DefaultDebounce)

		assert.Equal(t, &scene.Input{Mouse: scene.Click, Keycode: 16, Key: "shift"}, f.input(t))
	})

	t.Run("committed interactions keep their input", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.SetSelection(scene.PointSelection{Preview: scene.Preview{ID: "single"}, PointType: scene.Single, Field: scene.RowID}, f.id))

		f.view.SetSignal(f.group, BrushX, []float64{0, 10})
		f.view.SetSignal(f.group, BrushY, []float64{0, 50})
		f.advance(DefaultDebounce)

		assert.Equal(t, Interval, f.engine.Kind(f.id))
		assert.Equal(t, scene.Click, f.input(t).Mouse)
	})

	t.Run("every value reaches the previews", func(t *testing.T) {
		f := newFixture(t)

		type update struct {
			id    int
			name  string
			value any
		}
		var got []update
		f.engine.Sink = func(id int, name string, value any) {
			got = append(got, update{id, name, value})
		}

		f.view.SetSignal(f.group, GridAnchor, 1)
		f.view.SetSignal(f.group, Scoped(PointsToggle, f.id), true)
		f.view.SetSignal(f.group, BrushX, []float64{0, 10})

		assert.Equal(t, []update{
			{f.id, GridAnchor, 1},
			{f.id, Scoped(PointsToggle, f.id), true},
			{f.id, BrushX, []float64{0, 10}},
		}, got)
		assert.Equal(t, []float64{0, 10}, f.engine.Values(f.id)[BrushX])
	})

	t.Run("detach drops pending classifications", func(t *testing.T) {
		f := newFixture(t)

		f.view.SetSignal(f.group, PointsTuple, map[string]any{"_vgsid_": 2})
		f.engine.Detach(f.id)
		assert.False(t, f.engine.Attached(f.id))

		f.advance(DefaultDebounce)
		assert.Nil(t, f.input(t))

		f.view.SetSignal(f.group, PointsTuple, map[string]any{"_vgsid_": 3})
		assert.False(t, f.sched.Pending(taskKey(f.id)))
	})
}

func TestCanDemonstrateView(t *testing.T) {
	v := view.NewLocal(nil)
	info := scene.ScaleInfo{XScaleName: "x", XFieldName: "a"}

	assert.True(t, CanDemonstrate(v, info))
	assert.False(t, CanDemonstrate(v, scene.ScaleInfo{XScaleName: "x"}))

	v.SetParsing(true)
	assert.False(t, CanDemonstrate(v, info))
}
