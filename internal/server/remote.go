package server

import (
	"encoding/json"

	"cogentcore.org/core/base/errors"

	"github.com/AnatoleLucet/lyra/internal/view"
)

// remote is the view of a browser session. Signal state is mirrored in a
// local view so listeners fire the same way they do in process; writes
// made by the editor are forwarded to the browser.
type remote struct {
	*view.Local
	send func(Message) error
}

func (r *remote) SetSignal(group, name string, value any) {
	r.Local.SetSignal(group, name, value)
	errors.Log(r.send(Message{Type: TypeSignal, Group: group, Name: name, Value: value}))
}

// Render ships spec to the browser. The view is parsing until the
// browser acknowledges it.
func (r *remote) Render(spec json.RawMessage) error {
	r.SetParsing(true)
	if err := r.Local.Render(spec); err != nil {
		return err
	}
	return r.send(Message{Type: TypeRender, Spec: spec})
}
