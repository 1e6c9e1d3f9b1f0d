// Package timeline keeps the undo history of the document as a list of
// deep copied snapshots.
package timeline

import (
	"log/slog"

	"github.com/AnatoleLucet/lyra/internal/scene"
)

type Entry struct {
	// Seq increases with every Save and is never reused.
	Seq uint64
	Doc *scene.Document
}

// Timeline is a linear history with a cursor. Saving after an undo drops
// the redo branch. The entry at position 0 is the baseline and is never evicted.
type Timeline struct {
	logger  *slog.Logger
	entries []Entry
	pos     int
	seq     uint64

	// Limit caps the number of entries kept after the baseline, 0 keeps all.
	Limit int
}

func New(baseline *scene.Document, logger *slog.Logger) *Timeline {
	if logger == nil {
		logger = slog.Default()
	}

	return &Timeline{
		logger:  logger,
		entries: []Entry{{Seq: 0, Doc: baseline.Clone()}},
	}
}

// Save appends a snapshot of doc after the cursor.
func (t *Timeline) Save(doc *scene.Document) {
	t.entries = t.entries[:t.pos+1]

	t.seq++
	t.entries = append(t.entries, Entry{Seq: t.seq, Doc: doc.Clone()})

	evicted := 0
	for t.Limit > 0 && len(t.entries)-1 > t.Limit {
		t.entries = append(t.entries[:1], t.entries[2:]...)
		evicted++
	}
	t.pos = len(t.entries) - 1

	t.logger.Debug("timeline saved", slog.Uint64("seq", t.seq), slog.Int("len", len(t.entries)), slog.Int("evicted", evicted))
}

// Undo moves the cursor back and returns a copy of the snapshot there.
// At the baseline it returns false.
func (t *Timeline) Undo() (*scene.Document, bool) {
	if !t.CanUndo() {
		return nil, false
	}

	t.pos--
	return t.entries[t.pos].Doc.Clone(), true
}

// Redo moves the cursor forward and returns a copy of the snapshot there.
func (t *Timeline) Redo() (*scene.Document, bool) {
	if !t.CanRedo() {
		return nil, false
	}

	t.pos++
	return t.entries[t.pos].Doc.Clone(), true
}

func (t *Timeline) CanUndo() bool { return t.pos > 0 }
func (t *Timeline) CanRedo() bool { return t.pos < len(t.entries)-1 }

func (t *Timeline) Pos() int { return t.pos }
func (t *Timeline) Len() int { return len(t.entries) }

// Current returns the entry under the cursor. Its document must not be modified.
func (t *Timeline) Current() Entry {
	return t.entries[t.pos]
}
