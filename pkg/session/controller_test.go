package session

import (
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/typeahead/pkg/autocorrect"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/bastiangx/typeahead/pkg/whitespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingView struct {
	events []string
}

func (v *recordingView) ShowCandidates(c []string) {
	v.events = append(v.events, "show:"+strings.Join(c, "|"))
}

func (v *recordingView) UpdateCandidates(c []string) {
	v.events = append(v.events, "update:"+strings.Join(c, "|"))
}

func (v *recordingView) HideCandidates() {
	v.events = append(v.events, "hide")
}

func (v *recordingView) SelectCandidate(i int) {
	v.events = append(v.events, "select:"+string(rune('0'+i)))
}

func (v *recordingView) last() string {
	if len(v.events) == 0 {
		return ""
	}
	return v.events[len(v.events)-1]
}

type fixture struct {
	sess  *EditSession
	buf   *Buffer
	store *suggest.Store
	view  *recordingView
}

func newFixture(text string, words []string, rules []autocorrect.Rule, opts Options) *fixture {
	store := suggest.NewStore(3, 15)
	store.Load(words, false)
	buf := NewBuffer(text)
	view := &recordingView{}
	sess := New("test", buf, store, autocorrect.NewTable(rules), view, opts)
	return &fixture{sess: sess, buf: buf, store: store, view: view}
}

func (f *fixture) typeText(text string) {
	for _, r := range text {
		f.sess.Controller.OnBufferEdit(f.buf.TypeRune(r))
	}
}

func (f *fixture) key(k PopupKey) {
	f.sess.Controller.OnPopupKey(PopupEvent{Key: k})
}

var lordWords = []string{"Lord", "Lord God", "Lord Jesus", "love", "lovely"}

func TestTrailingSpaceScenario(t *testing.T) {
	f := newFixture("word1 word2", nil, nil, Options{})
	f.typeText(" ")

	assert.Equal(t, "word1 word2"+string(whitespace.TrailingSpace), f.buf.String())
	assert.Equal(t, "word1 word2 ", f.buf.Text())
	assert.Equal(t, 12, f.buf.Cursor())
}

func TestAutoLearnScenario(t *testing.T) {
	f := newFixture("", []string{"holy", "honour"}, nil, Options{AddAllNewWords: true})
	f.typeText("hous")
	f.typeText("e")
	f.typeText(" ")

	got := f.store.Query("h")
	require.NotEmpty(t, got)
	assert.Equal(t, "house", got[0])
	assert.Equal(t, 1, f.sess.Controller.Stats()["learned"])
}

func TestAutoLearnOff(t *testing.T) {
	f := newFixture("", []string{"holy"}, nil, Options{})
	f.typeText("house ")
	assert.Equal(t, []string{"holy"}, f.store.Query("h"))
}

func TestAutoLearnSkipsNumbers(t *testing.T) {
	f := newFixture("", []string{"1234x"}, nil, Options{AddAllNewWords: true})
	f.typeText("1234 ")
	assert.Equal(t, []string{"1234x"}, f.store.Query("1"))
	assert.Zero(t, f.sess.Controller.Stats()["learned"])
}

func TestSuggestAndAccept(t *testing.T) {
	f := newFixture("", lordWords, nil, Options{TrailingSpaceOnAccept: true})
	c := f.sess.Controller

	f.typeText("Lo")
	assert.Equal(t, Idle, c.State())
	assert.Empty(t, f.view.events)

	f.typeText("r")
	require.Equal(t, Suggesting, c.State())
	assert.Equal(t, []string{"show:Lord|Lord God|Lord Jesus"}, f.view.events)
	assert.Equal(t, "Lor", c.Overlap())

	f.key(KeyReturn)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "hide", f.view.last())
	assert.Equal(t, "Lord"+string(whitespace.TrailingSpace), f.buf.String())
	assert.Equal(t, 5, f.buf.Cursor())
	assert.Equal(t, 1, c.Stats()["accepts"])
}

func TestAcceptPromotes(t *testing.T) {
	f := newFixture("", lordWords, nil, Options{})
	f.typeText("lov")
	require.Equal(t, Suggesting, f.sess.Controller.State())
	f.key(KeyDown)
	assert.Equal(t, "select:1", f.view.last())
	f.key(KeyReturn)

	assert.Equal(t, "lovely", f.buf.Text())
	assert.Equal(t, []string{"lovely", "love"}, f.store.Query("lo"))
}

func TestLookBackAfterSpace(t *testing.T) {
	f := newFixture("", lordWords, nil, Options{})
	c := f.sess.Controller

	f.typeText("Lord")
	assert.Equal(t, "update:Lord God|Lord Jesus", f.view.last())

	f.typeText(" ")
	require.Equal(t, Suggesting, c.State())
	assert.Equal(t, "Lord ", c.Overlap())
	assert.Equal(t, []string{"Lord God", "Lord Jesus"}, c.Candidates())

	f.key(KeyDown)
	f.key(KeyReturn)
	assert.Equal(t, "Lord Jesus", f.buf.String())
	assert.Equal(t, 10, f.buf.Cursor())
	assert.Equal(t, "Lord Jesus", f.store.Query("L")[0])
}

func TestLookBackOnlyWhileSuggesting(t *testing.T) {
	f := newFixture("Lord", lordWords, nil, Options{})
	f.typeText(" ")
	assert.Equal(t, Idle, f.sess.Controller.State())
	assert.Empty(t, f.view.events)
}

func TestLookBackAsFallback(t *testing.T) {
	f := newFixture("", []string{"Lord", "Lord God's"}, nil, Options{})
	c := f.sess.Controller

	// "God" has no bucket of its own, so the previous word joins the query
	f.typeText("Lord God")
	require.Equal(t, Suggesting, c.State())
	assert.Equal(t, []string{"Lord God's"}, c.Candidates())
	assert.Equal(t, "Lord God", c.Overlap())

	f.key(KeyReturn)
	assert.Equal(t, "Lord God's", f.buf.String())
}

func TestEscapeKeepsBuffer(t *testing.T) {
	f := newFixture("", lordWords, nil, Options{})
	c := f.sess.Controller
	f.typeText("Lor")
	f.key(KeyEscape)

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "Lor", f.buf.String())
	assert.Equal(t, "hide", f.view.last())

	// same fragment does not reopen
	c.Refresh()
	assert.Equal(t, Idle, c.State())

	f.typeText("d")
	assert.Equal(t, Suggesting, c.State())
	assert.Equal(t, "show:Lord God|Lord Jesus", f.view.last())
}

func TestPopupEditing(t *testing.T) {
	f := newFixture("", lordWords, nil, Options{})
	c := f.sess.Controller
	f.typeText("Lor")

	c.OnPopupKey(PopupEvent{Key: KeyChar, Char: 'd'})
	assert.Equal(t, "Lord", f.buf.String())
	assert.Equal(t, "update:Lord God|Lord Jesus", f.view.last())

	f.key(KeyBackspace)
	f.key(KeyBackspace)
	assert.Equal(t, "Lo", f.buf.String())
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "hide", f.view.last())

	// forward delete at the end does nothing
	f.key(KeyDelete)
	assert.Equal(t, "Lo", f.buf.String())
}

func TestKeysWhileIdle(t *testing.T) {
	f := newFixture("text", lordWords, nil, Options{})
	c := f.sess.Controller
	f.key(KeyUp)
	f.key(KeyReturn)
	assert.False(t, c.AcceptSelection())
	assert.Equal(t, "text", f.buf.String())
	assert.Empty(t, f.view.events)
}

func TestSelectionWraps(t *testing.T) {
	f := newFixture("", lordWords, nil, Options{})
	c := f.sess.Controller
	f.typeText("Lor")
	f.key(KeyUp)
	assert.Equal(t, 2, c.Selected())
	f.key(KeyDown)
	assert.Equal(t, 0, c.Selected())
}

func TestMaxCandidates(t *testing.T) {
	f := newFixture("", lordWords, nil, Options{MaxCandidates: 1})
	f.typeText("Lor")
	assert.Equal(t, []string{"Lord"}, f.sess.Controller.Candidates())
}

func TestFragmentLongerThanMax(t *testing.T) {
	store := suggest.NewStore(3, 5)
	store.Load([]string{"abcdefgh"}, false)
	buf := NewBuffer("")
	view := &recordingView{}
	sess := New("long", buf, store, nil, view, Options{})

	for _, r := range "abc" {
		sess.Controller.OnBufferEdit(buf.TypeRune(r))
	}
	require.Equal(t, Suggesting, sess.Controller.State())
	for _, r := range "def" {
		sess.Controller.OnBufferEdit(buf.TypeRune(r))
	}
	assert.Equal(t, Idle, sess.Controller.State())
	assert.Equal(t, "", sess.Controller.Fragment())
}

func TestAutocorrectFirstMatchWins(t *testing.T) {
	rules := []autocorrect.Rule{{Input: "--", Output: "–"}, {Input: "–-", Output: "—"}}
	f := newFixture("", nil, rules, Options{})

	f.typeText("a-")
	assert.Equal(t, "a-", f.buf.String())
	f.typeText("-")
	assert.Equal(t, "a–", f.buf.String())
	f.typeText("-")
	assert.Equal(t, "a—", f.buf.String())
	assert.Equal(t, 2, f.sess.Controller.Stats()["autocorrections"])
}

func TestAutocorrectExpansion(t *testing.T) {
	f := newFixture("", nil, autocorrect.DefaultRules, Options{})
	f.typeText("the .lrd")
	assert.Equal(t, `the \nd Lord\nd*`, f.buf.Text())
	assert.Equal(t, f.buf.Len(), f.buf.Cursor())
}

func TestAutocorrectToNothing(t *testing.T) {
	f := newFixture("", nil, []autocorrect.Rule{{Input: "xx", Output: ""}}, Options{})
	f.typeText("a xx")
	assert.Equal(t, "a"+string(whitespace.TrailingSpace), f.buf.String())
	assert.Equal(t, 2, f.buf.Cursor())
}

func TestAutocorrectOnlyAtCursor(t *testing.T) {
	rules := []autocorrect.Rule{{Input: "--", Output: "–"}}
	f := newFixture("-x", nil, rules, Options{})
	f.buf.Apply(whitespace.EditOp{Start: 0, End: 0, Text: "-", Cursor: 2})
	f.sess.Controller.OnBufferEdit(EditEvent{Kind: Insert, Pos: 0, Char: '-'})
	assert.Equal(t, "--x", f.buf.String())
}

func TestInvariantCheck(t *testing.T) {
	broken := func(debug bool) *fixture {
		f := newFixture("ab  ", nil, nil, Options{Debug: debug})
		f.buf.SetCursor(2)
		return f
	}

	f := broken(true)
	assert.Panics(t, func() { f.typeText("x") })

	f = broken(false)
	assert.NotPanics(t, func() { f.typeText("x") })
	assert.Equal(t, "abx  ", f.buf.String())
}

func TestOutOfRangeEventIgnored(t *testing.T) {
	f := newFixture("abc", lordWords, nil, Options{})
	assert.NotPanics(t, func() {
		f.sess.Controller.OnBufferEdit(EditEvent{Kind: Insert, Pos: 3, Char: 'x'})
		f.sess.Controller.OnBufferEdit(EditEvent{Kind: Delete, Pos: 9})
	})
	assert.Zero(t, f.sess.Controller.Stats()["edits"])
}

func TestSpaceRunsThroughSession(t *testing.T) {
	f := newFixture("", nil, nil, Options{})
	f.typeText("a  ")
	assert.Equal(t, "a"+string(whitespace.MultipleSpace), f.buf.String())

	f.typeText("b")
	assert.Equal(t, "a b", f.buf.String())

	f.key(KeyBackspace)
	assert.Equal(t, "a"+string(whitespace.TrailingSpace), f.buf.String())
	f.key(KeyBackspace)
	assert.Equal(t, "a", f.buf.String())
}

func TestSessionClose(t *testing.T) {
	f := newFixture("", lordWords, nil, Options{})
	f.typeText("Lor")
	f.sess.Close()
	assert.Equal(t, Idle, f.sess.Controller.State())
	assert.Equal(t, "hide", f.view.last())
}

func TestDebouncedRefresh(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture("", lordWords, nil, Options{Debounce: 50 * time.Millisecond, Scheduler: sched})
	c := f.sess.Controller

	f.typeText("Lor")
	assert.Empty(t, f.view.events)

	sched.Advance(49 * time.Millisecond)
	assert.Empty(t, f.view.events)

	sched.Advance(time.Millisecond)
	assert.Equal(t, []string{"show:Lord|Lord God|Lord Jesus"}, f.view.events)
	assert.Equal(t, Suggesting, c.State())

	// accepting runs the refresh queued by the last keystroke first
	f.typeText("d")
	f.key(KeyReturn)
	assert.Equal(t, "Lord God", f.buf.String())
	assert.Equal(t, Idle, c.State())

	sched.Advance(time.Second)
	assert.Equal(t, "hide", f.view.last())
	assert.Equal(t, Idle, c.State())
}

func TestDebouncedEscape(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture("", lordWords, nil, Options{Debounce: 10 * time.Millisecond, Scheduler: sched})
	f.typeText("Lor")
	sched.Advance(10 * time.Millisecond)
	f.typeText("d")
	f.key(KeyEscape)

	sched.Advance(time.Second)
	assert.Equal(t, Idle, f.sess.Controller.State())
	assert.Equal(t, []string{"show:Lord|Lord God|Lord Jesus", "hide"}, f.view.events)
}
