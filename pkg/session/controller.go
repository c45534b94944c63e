package session

import (
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/whitespace"
	"github.com/charmbracelet/log"
)

// State of the candidate popup.
type State int

const (
	Idle State = iota
	Suggesting
)

func (s State) String() string {
	if s == Suggesting {
		return "suggesting"
	}
	return "idle"
}

// PopupKey is a key delivered while the popup has focus.
type PopupKey int

const (
	KeyChar PopupKey = iota
	KeyBackspace
	KeyDelete
	KeyReturn
	KeyEscape
	KeyUp
	KeyDown
)

// PopupEvent is a key press in the popup. Char is set for KeyChar.
type PopupEvent struct {
	Key  PopupKey
	Char rune
}

// Controller is the suggestion state machine of one session.
type Controller struct {
	s    *EditSession
	view CandidateView

	state      State
	candidates []string
	selected   int
	overlap    string

	fragment  string
	refreshed bool
	debouncer *Debouncer
	counters  map[string]int
}

func newController(s *EditSession, view CandidateView) *Controller {
	c := &Controller{s: s, view: view, counters: make(map[string]int)}
	if s.Options.Debounce > 0 && s.Options.Scheduler != nil {
		c.debouncer = NewDebouncer(s.Options.Scheduler, s.Options.Debounce)
	}
	return c
}

func (c *Controller) State() State { return c.state }

// Candidates returns the list shown in the popup, nil when Idle.
func (c *Controller) Candidates() []string { return c.candidates }

func (c *Controller) Selected() int { return c.selected }

// Fragment is the word fragment used by the last refresh.
func (c *Controller) Fragment() string { return c.fragment }

// Overlap is the already typed text the current candidates extend.
func (c *Controller) Overlap() string { return c.overlap }

// OnBufferEdit handles an edit the host has already applied: auto-learn,
// whitespace encoding, autocorrect, then a candidate refresh.
func (c *Controller) OnBufferEdit(ev EditEvent) {
	surface := c.s.Surface
	if ev.Pos < 0 || ev.Pos > surface.Len() || (ev.Kind == Insert && ev.Pos >= surface.Len()) {
		log.Warnf("Ignoring %s event at %d outside buffer of %d", ev.Kind, ev.Pos, surface.Len())
		return
	}
	c.counters["edits"]++

	atCursor := surface.Cursor() == ev.Pos
	if ev.Kind == Insert {
		atCursor = surface.Cursor() == ev.Pos+1
		c.learn(ev)
	}

	var ops []whitespace.EditOp
	if ev.Kind == Insert {
		ops = whitespace.OnInsert(surface, ev.Pos, ev.Char)
	} else {
		ops = whitespace.OnDelete(surface, ev.Pos, ev.Dir)
	}
	if len(ops) > 0 {
		surface.Apply(ops...)
	}

	if atCursor {
		c.autocorrect()
	}
	c.checkInvariant(surface.Cursor())
	c.scheduleRefresh()
}

// learn promotes the word just finished by a boundary rune.
func (c *Controller) learn(ev EditEvent) {
	if !c.s.Options.AddAllNewWords || c.isWordRune(ev.Char) || !utils.IsBoundary(ev.Char) {
		return
	}
	start := c.wordStart(ev.Pos, -1)
	if start == ev.Pos {
		return
	}
	word := slice(c.s.Surface, start, ev.Pos)
	if utils.IsOnlyNumbers(word) {
		return
	}
	c.s.Store.Promote(word)
	c.counters["learned"]++
	log.Debugf("Learned %q", word)
}

// autocorrect applies the first rule matching the text before the cursor as one edit.
func (c *Controller) autocorrect() {
	table := c.s.Autocorrect
	n := table.MaxLength()
	if n == 0 {
		return
	}
	surface := c.s.Surface
	cur := surface.Cursor()
	m, ok := table.Apply(whitespace.Decode(slice(surface, cur-n, cur)))
	if !ok {
		return
	}

	op := whitespace.Replace(surface, cur-m.Length, cur, m.Replacement)
	ops := []whitespace.EditOp{op}
	if op.Text == "" {
		// the replacement vanished; the seam it leaves needs encoding too
		buf := make([]rune, surface.Len())
		for i := range buf {
			buf[i] = surface.At(i)
		}
		buf, _ = whitespace.Apply(buf, op)
		ops = append(ops, whitespace.OnDelete(whitespace.Runes(buf), op.Start, whitespace.Backward)...)
	}
	surface.Apply(ops...)
	c.counters["autocorrections"]++
	log.Debugf("Autocorrect rule %d replaced %d runes with %q", m.Rule, m.Length, m.Replacement)
}

func (c *Controller) checkInvariant(pos int) {
	window := slice(c.s.Surface, pos-3, pos+3)
	err := whitespace.CheckInvariant(window)
	if err == nil {
		return
	}
	// a literal space at the window edge may be followed by text outside it
	if ie, ok := err.(*whitespace.InvariantError); ok && ie.Pos == utf8.RuneCountInString(window)-1 && pos+3 < c.s.Surface.Len() {
		return
	}
	if c.s.Options.Debug {
		panic(err)
	}
	log.Errorf("%v near %q", err, whitespace.Visible(window))
}

func (c *Controller) scheduleRefresh() {
	if c.debouncer != nil {
		c.debouncer.Trigger(c.Refresh)
		return
	}
	c.Refresh()
}

// Refresh recomputes the fragment before the cursor and opens, updates or
// closes the popup. An unchanged fragment does nothing.
func (c *Controller) Refresh() {
	fragment, start := c.currentFragment()
	if c.refreshed && fragment == c.fragment {
		return
	}
	c.fragment, c.refreshed = fragment, true

	store := c.s.Store
	if utf8.RuneCountInString(fragment) >= store.MinLength() {
		c.counters["queries"]++
		if list := store.Query(fragment); len(list) > 0 {
			c.suggest(list, fragment)
			return
		}
		if list, root := c.lookBack(fragment, start); len(list) > 0 {
			c.suggest(list, root)
			return
		}
		c.close()
		return
	}
	if c.state == Suggesting {
		if list, root := c.lookBack(fragment, start); len(list) > 0 {
			c.suggest(list, root)
			return
		}
	}
	c.close()
}

// currentFragment returns the run of word runes ending at the cursor and its
// start. A run longer than the store's maximum is no fragment at all.
func (c *Controller) currentFragment() (string, int) {
	cur := c.s.Surface.Cursor()
	start := c.wordStart(cur, c.s.Store.MaxLength()+1)
	if cur-start > c.s.Store.MaxLength() {
		return "", cur
	}
	return slice(c.s.Surface, start, cur), start
}

// lookBack queries with the previous word, one space and fragment.
func (c *Controller) lookBack(fragment string, start int) ([]string, string) {
	surface := c.s.Surface
	if start < 2 || !whitespace.IsSpaceLike(surface.At(start-1)) {
		return nil, ""
	}
	prevStart := c.wordStart(start-1, c.s.Store.MaxLength()+1)
	if prevStart == start-1 {
		return nil, ""
	}
	root := slice(surface, prevStart, start-1) + " " + fragment
	c.counters["lookbacks"]++
	return c.s.Store.Query(root), root
}

// wordStart walks back from end over word runes, at most limit of them when limit > 0.
func (c *Controller) wordStart(end, limit int) int {
	i := end
	for i > 0 && c.isWordRune(c.s.Surface.At(i-1)) {
		if limit > 0 && end-i >= limit {
			break
		}
		i--
	}
	return i
}

func (c *Controller) isWordRune(r rune) bool {
	return c.s.Store.IsWordChar(r) || unicode.IsLetter(r)
}

func (c *Controller) suggest(list []string, root string) {
	if limit := c.s.Options.MaxCandidates; limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	c.candidates, c.overlap, c.selected = list, root, 0
	if c.state == Idle {
		c.state = Suggesting
		c.view.ShowCandidates(list)
		log.Debugf("Suggesting %d candidates for %q", len(list), root)
		return
	}
	c.view.UpdateCandidates(list)
}

func (c *Controller) close() {
	if c.state == Suggesting {
		c.view.HideCandidates()
		log.Debugf("Closing candidates")
	}
	c.state = Idle
	c.candidates, c.overlap, c.selected = nil, "", 0
}

// OnPopupKey handles a key pressed while the popup is open. Typing keys edit
// the surface like normal typing.
func (c *Controller) OnPopupKey(ev PopupEvent) {
	surface := c.s.Surface
	switch ev.Key {
	case KeyChar:
		pos := surface.Cursor()
		surface.Apply(rawInsert(pos, ev.Char))
		c.OnBufferEdit(EditEvent{Kind: Insert, Pos: pos, Char: ev.Char})
	case KeyBackspace, KeyDelete:
		dir := whitespace.Backward
		if ev.Key == KeyDelete {
			dir = whitespace.Forward
		}
		op, ok := rawDelete(surface, dir)
		if !ok {
			return
		}
		surface.Apply(op)
		c.OnBufferEdit(EditEvent{Kind: Delete, Pos: op.Start, Dir: dir})
	case KeyReturn:
		c.AcceptSelection()
	case KeyEscape:
		c.Dismiss()
	case KeyUp, KeyDown:
		if c.state != Suggesting || len(c.candidates) == 0 {
			return
		}
		step := 1
		if ev.Key == KeyUp {
			step = len(c.candidates) - 1
		}
		c.selected = (c.selected + step) % len(c.candidates)
		c.view.SelectCandidate(c.selected)
	}
}

// AcceptSelection inserts the rest of the selected candidate, promotes it and
// closes the popup. It reports false when nothing was selected.
func (c *Controller) AcceptSelection() bool {
	// candidates must match the buffer before one is inserted
	if c.debouncer != nil && c.debouncer.Pending() {
		c.debouncer.Cancel()
		c.Refresh()
	}
	if c.state != Suggesting || len(c.candidates) == 0 {
		return false
	}
	candidate := c.candidates[c.selected]
	rest := candidate[min(len(c.overlap), len(candidate)):]
	if c.s.Options.TrailingSpaceOnAccept {
		rest += " "
	}

	surface := c.s.Surface
	if rest != "" {
		op := whitespace.Insert(surface, surface.Cursor(), rest)
		surface.Apply(op)
	}
	c.s.Store.Promote(candidate)
	c.counters["accepts"]++
	log.Debugf("Accepted %q", candidate)

	c.settle()
	return true
}

// Dismiss closes the popup without touching the buffer. It stays closed
// until the fragment changes.
func (c *Controller) Dismiss() {
	if c.debouncer != nil {
		c.debouncer.Cancel()
	}
	c.settle()
}

func (c *Controller) settle() {
	c.close()
	c.fragment, _ = c.currentFragment()
	c.refreshed = true
}

// Stats returns counters of what the controller has done.
func (c *Controller) Stats() map[string]int {
	out := make(map[string]int, len(c.counters)+1)
	for k, v := range c.counters {
		out[k] = v
	}
	out["candidates"] = len(c.candidates)
	return out
}
