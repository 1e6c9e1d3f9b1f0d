package timeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/signals"
)

var registries = cmp.Comparer(func(a, b *signals.Registry) bool {
	return cmp.Equal(a.All(), b.All())
})

func diff(a, b *scene.Document) string {
	return cmp.Diff(a, b, registries, cmpopts.EquateEmpty())
}

func baseline(t *testing.T) *scene.Document {
	t.Helper()

	d := scene.New()
	_, err := d.CreateScene(scene.DefaultSize, scene.DefaultSize)
	require.NoError(t, err)
	return d
}

func addGroup(t *testing.T, d *scene.Document) int {
	t.Helper()

	id, err := d.AddMark(&scene.Mark{Parent: d.SceneID, Type: scene.Group})
	require.NoError(t, err)
	return id
}

func TestUndoRedo(t *testing.T) {
	t.Run("undo returns the pre-save snapshot and redo the saved one", func(t *testing.T) {
		d := baseline(t)
		tl := New(d, nil)
		before := d.Clone()

		addGroup(t, d)
		tl.Save(d)

		undone, ok := tl.Undo()
		require.True(t, ok)
		assert.Empty(t, diff(before, undone))

		redone, ok := tl.Redo()
		require.True(t, ok)
		assert.Empty(t, diff(d, redone))
	})

	t.Run("no-op at the ends", func(t *testing.T) {
		tl := New(baseline(t), nil)

		_, ok := tl.Undo()
		assert.False(t, ok)
		_, ok = tl.Redo()
		assert.False(t, ok)
		assert.Equal(t, 0, tl.Pos())
	})

	t.Run("save after undo discards redo history", func(t *testing.T) {
		d := baseline(t)
		tl := New(d, nil)

		addGroup(t, d)
		tl.Save(d)
		addGroup(t, d)
		tl.Save(d)
		assert.Equal(t, 3, tl.Len())

		d, _ = tl.Undo()
		d, _ = tl.Undo()
		assert.Equal(t, 0, tl.Pos())

		addGroup(t, d)
		tl.Save(d)

		assert.Equal(t, 2, tl.Len())
		assert.False(t, tl.CanRedo())
		assert.Equal(t, uint64(3), tl.Current().Seq)
	})

	t.Run("snapshots do not alias the live document", func(t *testing.T) {
		d := baseline(t)
		tl := New(d, nil)

		id := addGroup(t, d)
		tl.Save(d)
		d.Marks[id].Name = "changed"

		undone, _ := tl.Undo()
		undone.Marks[d.SceneID].Name = "also changed"

		redone, _ := tl.Redo()
		assert.Equal(t, "Group 2", redone.Marks[id].Name)
		assert.Equal(t, "Scene", tl.entries[0].Doc.Marks[d.SceneID].Name)
	})
}

func TestLimit(t *testing.T) {
	d := baseline(t)
	tl := New(d, nil)
	tl.Limit = 2

	for range 5 {
		addGroup(t, d)
		tl.Save(d)
	}

	assert.Equal(t, 3, tl.Len())
	assert.Equal(t, 2, tl.Pos())
	assert.Equal(t, uint64(0), tl.entries[0].Seq)
	assert.Equal(t, uint64(4), tl.entries[1].Seq)

	tl.Undo()
	tl.Undo()
	base, ok := tl.Undo()
	assert.False(t, ok)
	assert.Nil(t, base)
	assert.Len(t, tl.entries[0].Doc.Marks, 1)
}
