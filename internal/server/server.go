// Package server bridges editor sessions to a rendering engine running in
// the browser, over a websocket.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"cogentcore.org/core/base/errors"
	"github.com/gorilla/websocket"

	"github.com/AnatoleLucet/lyra"
	"github.com/AnatoleLucet/lyra/internal/metrics"
	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/view"
	"github.com/AnatoleLucet/lyra/reactive"
)

// Message types. Signal is sent both ways; the browser reports what the
// user does to the visualization and the editor pushes manipulator state.
const (
	TypeSignal = "signal"
	TypeRender = "render"
	TypeParsed = "parsed"
	TypeSelect = "select"

	TypeDemonstrate = "demonstrate"
	TypeStop        = "stop"
	TypePreviews    = "previews"
	TypeDragStart   = "drag_start"
	TypeDragEnd     = "drag_end"
	TypeSave        = "save"
	TypeUndo        = "undo"
	TypeRedo        = "redo"

	// Binding mutators. The editor answers each with the binding.
	TypeSetInput       = "set_input"
	TypeSetSelection   = "set_selection"
	TypeSetApplication = "set_application"
	TypeSelectField    = "select_field"
	TypeSelectTarget   = "select_target"
	TypeBinding        = "binding"

	TypeError = "error"
)

type Message struct {
	Type string `json:"type"`

	Group string `json:"group,omitempty"`
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`

	Target      *scene.Ref `json:"target,omitempty"`
	Interaction int        `json:"interaction,omitempty"`

	Spec         json.RawMessage     `json:"spec,omitempty"`
	Kind         string              `json:"kind,omitempty"`
	Selections   []scene.Selection   `json:"selections,omitempty"`
	Applications []scene.Application `json:"applications,omitempty"`

	// Input and Record are sent by the browser to confirm a candidate.
	// Record is a type tagged selection or application.
	Input  *scene.Input    `json:"input,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`

	// Selection and Application are the confirmed records of a binding.
	Selection   scene.Selection   `json:"selection,omitempty"`
	Application scene.Application `json:"application,omitempty"`

	Error string `json:"error,omitempty"`
}

// Server runs one editor per websocket connection.
type Server struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// Options configures the editor of every new session.
	Options lyra.Options

	// Setup populates the editor of a new session before its first render
	// is flushed to the browser.
	Setup func(*lyra.Editor) error
}

func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{logger: logger}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if errors.Log(err) != nil {
		return
	}
	defer conn.Close()

	metrics.Sessions.Inc()
	defer metrics.Sessions.Dec()

	logger := s.logger.With(slog.String("remote", r.RemoteAddr))
	logger.Info("session opened")
	defer logger.Info("session closed")

	// the handler goroutine owns the editor and is the only writer
	defer reactive.Release()
	sess := &session{conn: conn, logger: logger, demonstrating: map[int]bool{}}
	if err := sess.run(r, s.Options, s.Setup); err != nil {
		logger.Error("session failed", slog.Any("error", err))
	}
}

type session struct {
	conn   *websocket.Conn
	logger *slog.Logger
	editor *lyra.Editor
	view   *remote

	demonstrating map[int]bool
}

func (s *session) send(m Message) error {
	return s.conn.WriteJSON(m)
}

func (s *session) run(r *http.Request, opts lyra.Options, setup func(*lyra.Editor) error) error {
	opts.Logger = s.logger
	s.view = &remote{Local: view.NewLocal(s.logger), send: s.send}

	var err error
	s.editor, err = lyra.New(s.view, opts)
	if err != nil {
		return err
	}
	defer s.editor.Close()

	if setup != nil {
		if err := setup(s.editor); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
		s.editor.Save()
	}

	in := make(chan Message)
	go func() {
		defer close(in)
		for {
			var m Message
			if err := s.conn.ReadJSON(&m); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("read failed", slog.Any("error", err))
				}
				return
			}
			select {
			case in <- m:
			case <-r.Context().Done():
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return nil
		case m, ok := <-in:
			if !ok {
				return nil
			}
			if err := s.handle(m); err != nil {
				errors.Log(s.send(Message{Type: TypeError, Error: err.Error()}))
			}
		case <-s.editor.Ready():
			if s.editor.Pump() > 0 {
				s.pushPreviews()
			}
		}
	}
}

func (s *session) handle(m Message) error {
	e := s.editor

	switch m.Type {
	case TypeSignal:
		s.view.Local.SetSignal(m.Group, m.Name, m.Value)
	case TypeParsed:
		s.view.SetParsing(false)
	case TypeSelect:
		s.view.Select(m.Target)

	case TypeDemonstrate:
		if err := e.Demonstrate(m.Interaction); err != nil {
			return err
		}
		s.demonstrating[m.Interaction] = true
	case TypeStop:
		e.StopDemonstration(m.Interaction)
		delete(s.demonstrating, m.Interaction)
	case TypePreviews:
		return s.previews(m.Interaction)

	case TypeDragStart:
		return e.StartDrag(m.Interaction, m.Name)
	case TypeDragEnd:
		return e.EndDrag()

	case TypeSetInput:
		if m.Input == nil {
			return fmt.Errorf("%s: missing input", m.Type)
		}
		return s.mutate(m.Interaction, func() error { return e.SetInput(*m.Input, m.Interaction) })
	case TypeSetSelection:
		rec, err := scene.DecodeSelection(m.Record)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Type, err)
		}
		return s.mutate(m.Interaction, func() error { return e.SetSelection(rec, m.Interaction) })
	case TypeSetApplication:
		rec, err := scene.DecodeApplication(m.Record)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Type, err)
		}
		return s.mutate(m.Interaction, func() error { return e.SetApplication(rec, m.Interaction) })
	case TypeSelectField:
		return s.mutate(m.Interaction, func() error { return e.SelectProjectionField(m.Interaction, m.Name) })
	case TypeSelectTarget:
		return s.mutate(m.Interaction, func() error { return e.SelectTargetMark(m.Interaction, m.Name) })

	case TypeSave:
		e.Save()
	case TypeUndo:
		e.Undo()
	case TypeRedo:
		e.Redo()

	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}

// mutate applies fn and answers with the resulting binding of interaction id.
func (s *session) mutate(id int, fn func() error) error {
	if err := fn(); err != nil {
		return err
	}

	b, err := s.editor.Binding(id)
	if err != nil {
		return err
	}
	return s.send(Message{
		Type:        TypeBinding,
		Interaction: id,
		Input:       b.Input,
		Selection:   b.Selection,
		Application: b.Application,
	})
}

func (s *session) previews(id int) error {
	sel, app, err := s.editor.Previews(id)
	if err != nil {
		return err
	}

	return s.send(Message{
		Type:         TypePreviews,
		Interaction:  id,
		Kind:         s.editor.Kind(id).String(),
		Selections:   sel,
		Applications: app,
	})
}

// pushPreviews refreshes the candidates of every demonstrated interaction
// once a classification ran.
func (s *session) pushPreviews() {
	for id := range s.demonstrating {
		errors.Log(s.previews(id))
	}
}
