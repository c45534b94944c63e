// Package session drives completion and autocorrect for one edit window. All
// methods run on the host's event loop; nothing here is safe for concurrent use.
package session

import (
	"time"

	"github.com/bastiangx/typeahead/pkg/autocorrect"
	"github.com/bastiangx/typeahead/pkg/suggest"
)

// Options are the per-session behaviour switches.
type Options struct {
	// AddAllNewWords promotes every word the user finishes typing.
	AddAllNewWords bool
	// TrailingSpaceOnAccept appends a space after an accepted candidate.
	TrailingSpaceOnAccept bool
	// MaxCandidates caps the popup list; zero means no cap.
	MaxCandidates int
	// Debounce delays candidate refreshes; zero refreshes on every edit.
	Debounce time.Duration
	// Scheduler runs debounced refreshes. Required when Debounce is set.
	Scheduler Scheduler
	// Debug panics when an edit leaves the whitespace invariant broken.
	Debug bool
}

// EditSession owns everything one edit window needs.
type EditSession struct {
	ID          string
	Surface     TextSurface
	Store       suggest.Completer
	Autocorrect *autocorrect.Table
	Controller  *Controller
	Options     Options
}

// New wires a session around surface. A nil table disables autocorrect.
func New(id string, surface TextSurface, store suggest.Completer, table *autocorrect.Table, view CandidateView, opts Options) *EditSession {
	if table == nil {
		table = autocorrect.NewTable(nil)
	}
	if view == nil {
		view = ViewFuncs{}
	}
	s := &EditSession{
		ID:          id,
		Surface:     surface,
		Store:       store,
		Autocorrect: table,
		Options:     opts,
	}
	s.Controller = newController(s, view)
	return s
}

// Close hides any open popup and drops pending refreshes.
func (s *EditSession) Close() {
	s.Controller.Dismiss()
}
