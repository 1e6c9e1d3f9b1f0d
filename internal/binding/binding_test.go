package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/reactive"
)

var (
	single = scene.PointSelection{Preview: scene.Preview{ID: "single", Label: "Single point"}, PointType: scene.Single, Field: scene.RowID}
	brush  = scene.IntervalSelection{Preview: scene.Preview{ID: "brush", Label: "Brush"}, Field: scene.AxisXY}
	color  = scene.MarkApplication{Preview: scene.Preview{ID: "color_single", Label: "Color"}, TargetMarkName: "Rect_3", PropertyName: "fill", DefaultValue: "#797979"}
	zoom   = scene.ScaleApplication{Preview: scene.Preview{ID: "panzoom", Label: "Pan and zoom"}}
)

func newStore(t *testing.T) (*Store, int) {
	t.Helper()

	d := scene.New()
	sceneID, err := d.CreateScene(scene.DefaultSize, scene.DefaultSize)
	require.NoError(t, err)
	groupID, err := d.AddMark(&scene.Mark{Parent: sceneID, Type: scene.Group})
	require.NoError(t, err)
	id, err := d.AddInteraction(groupID)
	require.NoError(t, err)

	return New(d, nil), id
}

func TestUnknownInteraction(t *testing.T) {
	s, _ := newStore(t)

	assert.ErrorIs(t, s.SetInput(scene.Input{Mouse: scene.Drag}, 99), ErrUnknownInteraction)
	assert.ErrorIs(t, s.SetSelection(brush, 99), ErrUnknownInteraction)
	assert.ErrorIs(t, s.SetApplication(color, 99), ErrUnknownInteraction)
	_, err := s.DemonstrateInput(scene.Drag, 99, nil)
	assert.ErrorIs(t, err, ErrUnknownInteraction)
	_, err = s.Binding(99)
	assert.ErrorIs(t, err, ErrUnknownInteraction)
}

func TestSetInput(t *testing.T) {
	t.Run("drops incompatible records", func(t *testing.T) {
		s, id := newStore(t)
		require.NoError(t, s.SetSelection(brush, id))
		require.NoError(t, s.SetApplication(zoom, id))

		require.NoError(t, s.SetInput(scene.Input{Mouse: scene.Click}, id))

		b, err := s.Binding(id)
		require.NoError(t, err)
		assert.Equal(t, scene.Click, b.Input.Mouse)
		assert.True(t, b.Input.Explicit)
		assert.Nil(t, b.Selection)
		assert.Nil(t, b.Application)
	})

	t.Run("keeps gesture-free applications", func(t *testing.T) {
		s, id := newStore(t)
		require.NoError(t, s.SetSelection(single, id))
		require.NoError(t, s.SetApplication(color, id))

		require.NoError(t, s.SetInput(scene.Input{Mouse: scene.Drag}, id))

		b, _ := s.Binding(id)
		assert.Nil(t, b.Selection)
		assert.Equal(t, color, b.Application)
	})
}

func TestSetSelection(t *testing.T) {
	t.Run("input follows the record", func(t *testing.T) {
		s, id := newStore(t)
		require.NoError(t, s.SetSelection(brush, id))

		b, _ := s.Binding(id)
		assert.Equal(t, brush, b.Selection)
		assert.Equal(t, scene.Drag, b.Input.Mouse)
		assert.False(t, b.Input.Explicit)
	})

	t.Run("explicit input without records follows too", func(t *testing.T) {
		s, id := newStore(t)
		require.NoError(t, s.SetInput(scene.Input{Mouse: scene.Click, Keycode: 16, Key: "shift"}, id))
		require.NoError(t, s.SetSelection(brush, id))

		b, _ := s.Binding(id)
		assert.Equal(t, brush, b.Selection)
		assert.Equal(t, scene.Input{Mouse: scene.Drag, Keycode: 16, Key: "shift"}, *b.Input)
	})

	t.Run("explicit input with records is guarded", func(t *testing.T) {
		s, id := newStore(t)
		require.NoError(t, s.SetInput(scene.Input{Mouse: scene.Click}, id))
		require.NoError(t, s.SetSelection(single, id))

		before := s.version.Peek()
		assert.ErrorIs(t, s.SetSelection(brush, id), ErrInputConflict)
		assert.ErrorIs(t, s.SetApplication(zoom, id), ErrInputConflict)
		assert.Equal(t, before, s.version.Peek())

		b, _ := s.Binding(id)
		assert.Equal(t, single, b.Selection)
		assert.Equal(t, scene.Click, b.Input.Mouse)
	})

	t.Run("inferred input with records switches", func(t *testing.T) {
		s, id := newStore(t)
		require.NoError(t, s.SetSelection(brush, id))
		require.NoError(t, s.SetApplication(zoom, id))

		require.NoError(t, s.SetSelection(single, id))

		b, _ := s.Binding(id)
		assert.Equal(t, single, b.Selection)
		assert.Equal(t, scene.Click, b.Input.Mouse)
		assert.Nil(t, b.Application)
	})
}

func TestDemonstrateInput(t *testing.T) {
	t.Run("applies when there is no input", func(t *testing.T) {
		s, id := newStore(t)

		ok, err := s.DemonstrateInput(scene.Drag, id, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		b, _ := s.Binding(id)
		assert.Equal(t, scene.Drag, b.Input.Mouse)
	})

	t.Run("applies when nothing is committed", func(t *testing.T) {
		s, id := newStore(t)
		require.NoError(t, s.SetInput(scene.Input{Mouse: scene.Click}, id))

		ok, err := s.DemonstrateInput(scene.Drag, id, &scene.Input{Keycode: 16, Key: "shift"})
		require.NoError(t, err)
		assert.True(t, ok)

		b, _ := s.Binding(id)
		assert.Equal(t, scene.Input{Mouse: scene.Drag, Keycode: 16, Key: "shift"}, *b.Input)
	})

	t.Run("ignored once committed", func(t *testing.T) {
		s, id := newStore(t)
		require.NoError(t, s.SetSelection(single, id))

		ok, err := s.DemonstrateInput(scene.Drag, id, nil)
		require.NoError(t, err)
		assert.False(t, ok)

		b, _ := s.Binding(id)
		assert.Equal(t, scene.Click, b.Input.Mouse)
		assert.Equal(t, single, b.Selection)
	})
}

func TestVersion(t *testing.T) {
	s, id := newStore(t)

	runs := 0
	spec := reactive.NewComputed(func() int {
		runs++
		return s.Version()
	})
	assert.Equal(t, 0, spec.Read())

	require.NoError(t, s.SetSelection(single, id))
	assert.Equal(t, 1, spec.Read())

	assert.Error(t, s.SetSelection(single, 99))
	assert.Equal(t, 1, spec.Read())
	assert.Equal(t, 2, runs)

	s.Reset(scene.New())
	assert.Equal(t, 2, spec.Read())
}
