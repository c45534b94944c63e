// Package cli runs an interactive edit session on the terminal for debugging
// completion, autocorrect and the whitespace codec.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/autocorrect"
	"github.com/bastiangx/typeahead/pkg/session"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/bastiangx/typeahead/pkg/whitespace"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	wordStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	bufferStyle   = lipgloss.NewStyle().Italic(true)
)

const help = `lines are typed into the buffer one character at a time; commands:
  :a [n]   accept the selected (or nth) candidate
  :esc     dismiss the popup
  :up :dn  move the selection
  :bs [n]  backspace n times
  :del     delete forward
  :nl      type a newline
  :left :right  move the cursor
  :text    print the decoded buffer
  :clear   start over with an empty buffer
  :stats   print counters
  :q       quit`

// InputHandler feeds terminal input through a real edit session.
type InputHandler struct {
	store   *suggest.Store
	rules   []autocorrect.Rule
	opts    session.Options
	out     io.Writer
	buf     *session.Buffer
	sess    *session.EditSession
	showing []string
}

// NewInputHandler creates a handler around store. Each :clear starts a
// fresh session on the same store so promotions carry over.
func NewInputHandler(store *suggest.Store, rules []autocorrect.Rule, opts session.Options, out io.Writer) *InputHandler {
	h := &InputHandler{store: store, rules: rules, opts: opts, out: out}
	h.reset()
	return h
}

func (h *InputHandler) reset() {
	if h.sess != nil {
		h.sess.Close()
	}
	h.buf = session.NewBuffer("")
	view := session.ViewFuncs{
		Show:   h.show,
		Update: h.show,
		Hide: func() {
			h.showing = nil
			fmt.Fprintln(h.out, "  (popup closed)")
		},
		Select: h.printCandidates,
	}
	h.sess = session.New("cli", h.buf, h.store, autocorrect.NewTable(h.rules), view, h.opts)
}

// Start reads lines from r until EOF or :q.
func (h *InputHandler) Start(r io.Reader) error {
	fmt.Fprintln(h.out, "typeahead CLI [debug]")
	fmt.Fprintln(h.out, "type something and press Enter, :help for commands (Ctrl+C to exit)")
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if !h.HandleLine(line) {
			return nil
		}
	}
}

// HandleLine processes one input line and reports false on :q.
func (h *InputHandler) HandleLine(line string) bool {
	ctl := h.sess.Controller
	if !strings.HasPrefix(line, ":") || line == ":" {
		for _, ch := range line {
			ctl.OnBufferEdit(h.buf.TypeRune(ch))
		}
		h.printBuffer()
		return true
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		n = 1
	}
	switch cmd {
	case "q", "quit":
		return false
	case "help", "h":
		fmt.Fprintln(h.out, help)
		return true
	case "a", "accept":
		if count := len(ctl.Candidates()); arg != "" && count > 0 {
			if n > count {
				log.Warn("No such candidate", "n", n, "shown", count)
				return true
			}
			// selection is absolute, so step from wherever :up/:dn left it
			for range (n - 1 - ctl.Selected() + count) % count {
				ctl.OnPopupKey(session.PopupEvent{Key: session.KeyDown})
			}
		}
		if !ctl.AcceptSelection() {
			log.Warn("Nothing to accept")
		}
	case "esc":
		ctl.OnPopupKey(session.PopupEvent{Key: session.KeyEscape})
	case "up":
		ctl.OnPopupKey(session.PopupEvent{Key: session.KeyUp})
	case "dn", "down":
		ctl.OnPopupKey(session.PopupEvent{Key: session.KeyDown})
	case "bs":
		for range n {
			if ev, ok := h.buf.Erase(whitespace.Backward); ok {
				ctl.OnBufferEdit(ev)
			}
		}
	case "del":
		if ev, ok := h.buf.Erase(whitespace.Forward); ok {
			ctl.OnBufferEdit(ev)
		}
	case "nl":
		ctl.OnBufferEdit(h.buf.TypeRune('\n'))
	case "left":
		h.buf.SetCursor(h.buf.Cursor() - n)
		ctl.Dismiss()
	case "right":
		h.buf.SetCursor(h.buf.Cursor() + n)
		ctl.Dismiss()
	case "text":
		fmt.Fprintf(h.out, "  %q\n", h.buf.Text())
		return true
	case "clear":
		h.reset()
	case "stats":
		h.printStats()
		return true
	default:
		log.Errorf("Unknown command: %s (try :help)", cmd)
		return true
	}
	h.printBuffer()
	return true
}

func (h *InputHandler) show(candidates []string) {
	h.showing = candidates
	h.printCandidates(0)
}

func (h *InputHandler) printCandidates(selected int) {
	for i, c := range h.showing {
		style := wordStyle
		marker := " "
		if i == selected {
			style, marker = selectedStyle, ">"
		}
		fmt.Fprintf(h.out, "  %s%2d. %s\n", marker, i+1, style.Render(c))
	}
}

func (h *InputHandler) printBuffer() {
	r := []rune(h.buf.String())
	cur := h.buf.Cursor()
	shown := whitespace.Visible(string(r[:cur])) + "|" + whitespace.Visible(string(r[cur:]))
	fmt.Fprintf(h.out, "  [%s] %s\n", h.sess.Controller.State(), bufferStyle.Render(shown))
}

func (h *InputHandler) printStats() {
	stats := h.sess.Controller.Stats()
	maps.Copy(stats, h.store.Stats())
	for _, k := range slices.Sorted(maps.Keys(stats)) {
		fmt.Fprintf(h.out, "  %-16s %s\n", k, utils.FormatWithCommas(stats[k]))
	}
}
