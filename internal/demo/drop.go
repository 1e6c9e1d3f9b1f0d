package demo

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/signals"
	"github.com/AnatoleLucet/lyra/internal/view"
)

// ErrDropTarget is returned when a dragged signal cannot be bound where it was dropped.
var ErrDropTarget = errors.New("demo: unable to bind signal to drop target")

// Manipulator modes of the view.
const (
	ModeHandles  = "handles"
	ModeChannels = "channels"
)

// Bubbles lists the signals of a demonstration that can be dragged onto
// mark channels.
func Bubbles(info scene.ScaleInfo, kind Kind) []string {
	switch kind {
	case Interval:
		var out []string
		for _, name := range []string{info.XScaleName, info.YScaleName, info.XFieldName, info.YFieldName} {
			if name != "" {
				out = append(out, "brush_"+name)
			}
		}
		return out
	case Point:
		return []string{PointsTuple}
	default:
		return nil
	}
}

// Dragging is a signal bubble being dragged.
type Dragging struct {
	GroupID int
	Signal  string
}

// Drop is where a bubble landed: a channel of a mark.
type Drop struct {
	Target  scene.Ref
	Channel string
}

// StartDrag switches the view to the channel manipulators.
func StartDrag(v view.View) {
	v.SetSignal("", signals.Mode, ModeChannels)
}

// EndDrag resolves where the bubble was dropped, if anywhere, and puts the
// view back on the handle manipulators.
func EndDrag(v view.View) (Drop, bool) {
	defer func() {
		v.SetSignal("", signals.Mode, ModeHandles)
		v.SetSignal("", signals.Cell, map[string]any{})
	}()

	target, ok := v.Selected()
	if !ok {
		return Drop{}, false
	}

	channel := cellKey(v.Signal("", signals.Cell))
	if channel == "" {
		return Drop{}, false
	}

	return Drop{Target: target, Channel: channel}, true
}

func cellKey(cell any) string {
	switch c := cell.(type) {
	case map[string]any:
		key, _ := c["key"].(string)
		return key
	case map[string]string:
		return c["key"]
	default:
		return ""
	}
}

// Bind points the dropped channel of the target mark at the dragged signal.
// The document is left unchanged on error.
func Bind(doc *scene.Document, drop Drop, signal string, logger *slog.Logger) error {
	m, err := doc.Mark(drop.Target.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDropTarget, err)
	}
	if m.Type != drop.Target.Type {
		return fmt.Errorf("%w: mark %d is a %s, not a %s", ErrDropTarget, m.ID, m.Type, drop.Target.Type)
	}

	if err := doc.SetVisual(m.ID, drop.Channel, &scene.ValueRef{Signal: signals.Ref(signal)}); err != nil {
		return fmt.Errorf("%w: %w", ErrDropTarget, err)
	}

	if logger != nil {
		logger.Info("signal bound", slog.String("signal", signal), slog.Int("mark", m.ID), slog.String("channel", drop.Channel))
	}
	return nil
}
