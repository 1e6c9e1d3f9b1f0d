// Package binding holds the confirmed input, selection and application of
// every interaction.
package binding

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/reactive"
)

var (
	ErrUnknownInteraction = errors.New("binding: unknown interaction")

	// ErrInputConflict is returned when a record would flip an explicitly
	// chosen input after the user already committed to records under it.
	ErrInputConflict = errors.New("binding: record conflicts with the chosen input")
)

// Binding is the confirmed state of one interaction.
type Binding struct {
	Input       *scene.Input
	Selection   scene.Selection
	Application scene.Application
}

// Committed reports whether a selection or an application was chosen.
func (b Binding) Committed() bool {
	return b.Selection != nil || b.Application != nil
}

// Store mutates the interactions of a document.
type Store struct {
	doc     *scene.Document
	logger  *slog.Logger
	version *reactive.Signal[int]
}

func New(doc *scene.Document, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		doc:     doc,
		logger:  logger,
		version: reactive.NewSignal(0),
	}
}

// Version changes after every successful mutation. Reading it inside a
// computed subscribes the computed to the store.
func (s *Store) Version() int {
	return s.version.Read()
}

func (s *Store) bump() {
	s.version.Update(func(v int) int { return v + 1 })
}

// Reset points the store at another document, e.g. after an undo.
func (s *Store) Reset(doc *scene.Document) {
	s.doc = doc
	s.bump()
}

func (s *Store) interaction(id int) (*scene.Interaction, error) {
	in, ok := s.doc.Interactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownInteraction, id)
	}
	return in, nil
}

func (s *Store) Binding(id int) (Binding, error) {
	in, err := s.interaction(id)
	if err != nil {
		return Binding{}, err
	}

	b := Binding{Selection: in.Selection, Application: in.Application}
	if in.Input != nil {
		input := *in.Input
		b.Input = &input
	}
	return b, nil
}

// SetInput applies an input chosen by the user. Records that cannot run
// under the new input are dropped.
func (s *Store) SetInput(input scene.Input, id int) error {
	in, err := s.interaction(id)
	if err != nil {
		return err
	}

	input.Explicit = true
	in.Input = &input
	dropIncompatible(in)

	s.logger.Debug("input set", slog.Int("interaction", id), slog.String("mouse", string(input.Mouse)))
	s.bump()
	return nil
}

// SetSelection confirms a selection record. A record demonstrated with
// another gesture than an explicit input is refused once anything is
// committed; otherwise the input follows the record.
func (s *Store) SetSelection(rec scene.Selection, id int) error {
	in, err := s.interaction(id)
	if err != nil {
		return err
	}
	if err := s.guard(in, rec.Gesture()); err != nil {
		return err
	}

	in.Selection = rec
	follow(in, rec.Gesture())

	s.logger.Debug("selection set", slog.Int("interaction", id), slog.String("selection", rec.Info().ID))
	s.bump()
	return nil
}

// SetApplication confirms an application record, under the same rules as SetSelection.
func (s *Store) SetApplication(rec scene.Application, id int) error {
	in, err := s.interaction(id)
	if err != nil {
		return err
	}
	if err := s.guard(in, rec.Gesture()); err != nil {
		return err
	}

	in.Application = rec
	follow(in, rec.Gesture())

	s.logger.Debug("application set", slog.Int("interaction", id), slog.String("application", rec.Info().ID))
	s.bump()
	return nil
}

// DemonstrateInput applies an input inferred from a demonstration. It only
// takes effect when the interaction has no input yet or nothing committed.
// keyboard, if set, supplies the modifier key.
func (s *Store) DemonstrateInput(mouse scene.Mouse, id int, keyboard *scene.Input) (bool, error) {
	in, err := s.interaction(id)
	if err != nil {
		return false, err
	}

	if in.Input != nil && (in.Selection != nil || in.Application != nil) {
		return false, nil
	}
	if in.Input != nil && in.Input.Mouse == mouse && keyboard == nil {
		return false, nil
	}

	input := scene.Input{Mouse: mouse}
	if keyboard != nil {
		input.Keycode, input.Key = keyboard.Keycode, keyboard.Key
	}
	in.Input = &input
	dropIncompatible(in)

	s.logger.Debug("input demonstrated", slog.Int("interaction", id), slog.String("mouse", string(mouse)))
	s.bump()
	return true, nil
}

func (s *Store) guard(in *scene.Interaction, gesture scene.Mouse) error {
	if in.Input == nil || !in.Input.Explicit || in.Input.Compatible(gesture) {
		return nil
	}
	if in.Selection == nil && in.Application == nil {
		return nil
	}

	return fmt.Errorf("%w: interaction %d uses %s, record needs %s", ErrInputConflict, in.ID, in.Input.Mouse, gesture)
}

// follow switches the input to gesture when it differs, dropping the
// records the switch invalidates.
func follow(in *scene.Interaction, gesture scene.Mouse) {
	if gesture == "" || in.Input != nil && in.Input.Mouse == gesture {
		return
	}

	input := scene.Input{Mouse: gesture}
	if in.Input != nil {
		input.Keycode, input.Key = in.Input.Keycode, in.Input.Key
	}
	in.Input = &input
	dropIncompatible(in)
}

func dropIncompatible(in *scene.Interaction) {
	if in.Selection != nil && !in.Input.Compatible(in.Selection.Gesture()) {
		in.Selection = nil
	}
	if in.Application != nil && !in.Input.Compatible(in.Application.Gesture()) {
		in.Application = nil
	}
}
