package server

import (
	"slices"

	"github.com/bastiangx/typeahead/pkg/session"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/bastiangx/typeahead/pkg/whitespace"
)

// remote is a session driven by the host over IPC.
type remote struct {
	sess    *session.EditSession
	store   *suggest.Store
	surface *recordingSurface
	view    *recordingView
}

// recordingSurface mirrors the host buffer and keeps every edit the session
// makes so the host can replay it.
type recordingSurface struct {
	*session.Buffer
	groups [][]whitespace.EditOp
}

func newRecordingSurface(text string, cursor int) *recordingSurface {
	buf := session.NewBuffer(text)
	buf.SetCursor(cursor)
	return &recordingSurface{Buffer: buf}
}

func (r *recordingSurface) Apply(ops ...whitespace.EditOp) {
	if len(ops) == 0 {
		return
	}
	r.groups = append(r.groups, slices.Clone(ops))
	r.Buffer.Apply(ops...)
}

// mirror applies a change the host already made without recording it.
func (r *recordingSurface) mirror(op whitespace.EditOp) {
	r.Buffer.Apply(op)
}

func (r *recordingSurface) take() [][]whitespace.EditOp {
	g := r.groups
	r.groups = nil
	return g
}

// recordingView collects popup changes until the next response.
type recordingView struct {
	events []PopupEvent
}

func (v *recordingView) ShowCandidates(c []string) {
	v.events = append(v.events, PopupEvent{Event: "show", Items: slices.Clone(c)})
}

func (v *recordingView) UpdateCandidates(c []string) {
	v.events = append(v.events, PopupEvent{Event: "update", Items: slices.Clone(c)})
}

func (v *recordingView) HideCandidates() {
	v.events = append(v.events, PopupEvent{Event: "hide"})
}

func (v *recordingView) SelectCandidate(i int) {
	v.events = append(v.events, PopupEvent{Event: "select", Selected: i})
}

func (v *recordingView) take() []PopupEvent {
	e := v.events
	v.events = nil
	return e
}

// response drains what the session did into a Response.
func (r *remote) response(id string) Response {
	return Response{
		ID:      id,
		Session: r.sess.ID,
		Edits:   r.surface.take(),
		Popup:   r.view.take(),
		Cursor:  r.surface.Cursor(),
		State:   r.sess.Controller.State().String(),
	}
}
