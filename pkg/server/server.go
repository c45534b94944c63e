package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/autocorrect"
	"github.com/bastiangx/typeahead/pkg/session"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/bastiangx/typeahead/pkg/whitespace"
	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Options configure every session the server opens.
type Options struct {
	// Words is the ranked vocabulary. Each session loads its own copy.
	Words     []string
	MinLength int
	MaxLength int
	Rules     []autocorrect.Rule
	// Session is the template for session options. The server supplies
	// the scheduler when a debounce is set.
	Session     session.Options
	MaxSessions int
}

// Server handles IPC for edit sessions. All session work happens on the
// goroutine running Start.
type Server struct {
	opts     Options
	sessions map[string]*remote
	reader   io.Reader
	enc      *msgpack.Encoder
	tasks    chan func()
	done     chan struct{}
	log      *log.Logger
	requests int
}

type incoming struct {
	req Request
	// bad is set when the message was msgpack but not a Request.
	bad error
	err error
}

// NewServer creates a server using stdin/stdout for IPC.
func NewServer(opts Options) *Server {
	return NewServerIO(opts, os.Stdin, os.Stdout)
}

// NewServerIO creates a server reading requests from r and writing to w.
func NewServerIO(opts Options, r io.Reader, w io.Writer) *Server {
	if opts.MaxSessions < 1 {
		opts.MaxSessions = 16
	}
	return &Server{
		opts:     opts,
		sessions: make(map[string]*remote),
		reader:   r,
		enc:      msgpack.NewEncoder(w),
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
		log:      logger.New("server"),
	}
}

// Start serves requests until the input ends or ctx is cancelled. Open
// sessions are closed on the way out.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting Server.")
	defer close(s.done)
	defer s.closeAll()

	s.send(Response{Status: "ready"})

	in := make(chan incoming)
	go s.readLoop(in)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-s.tasks:
			task()
		case msg := <-in:
			if msg.err != nil {
				if errors.Is(msg.err, io.EOF) {
					s.log.Debug("Input closed, stopping.")
					return nil
				}
				s.log.Errorf("Reading requests: %v", msg.err)
				return msg.err
			}
			if msg.bad != nil {
				s.send(ErrorResponse{ID: msg.req.ID, Error: "Invalid msgpack request", Code: CodeBadRequest})
				continue
			}
			s.handle(msg.req)
		}
	}
}

// readLoop decodes one raw message at a time so a malformed request does not
// desync the stream.
func (s *Server) readLoop(in chan<- incoming) {
	dec := msgpack.NewDecoder(s.reader)
	for {
		raw, err := dec.DecodeRaw()
		if err != nil {
			s.deliver(in, incoming{err: err})
			return
		}
		var msg incoming
		if err := msgpack.Unmarshal(raw, &msg.req); err != nil {
			s.log.Errorf("Unmarshaling request: %v", err)
			msg.bad = err
		}
		if !s.deliver(in, msg) {
			return
		}
	}
}

func (s *Server) deliver(in chan<- incoming, msg incoming) bool {
	select {
	case in <- msg:
		return true
	case <-s.done:
		return false
	}
}

// post queues f on the event loop. Used by session timers.
func (s *Server) post(f func()) {
	select {
	case s.tasks <- f:
	case <-s.done:
	}
}

// sessionOps are the ops that target an open session.
var sessionOps = mapset.NewThreadUnsafeSet(OpEdit, OpMove, OpKey, OpAccept, OpDismiss, OpText, OpClose, OpStats)

type requestError struct {
	code int
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{code: CodeBadRequest, msg: fmt.Sprintf(format, args...)}
}

func (s *Server) handle(req Request) {
	s.requests++
	start := time.Now()

	resp, err := s.dispatch(req)
	if err != nil {
		var re *requestError
		if !errors.As(err, &re) {
			re = &requestError{code: CodeInternal, msg: err.Error()}
		}
		s.log.Debugf("Request %s (%s) failed: %s", req.ID, req.Op, re.msg)
		s.send(ErrorResponse{ID: req.ID, Error: re.msg, Code: re.code})
		return
	}
	resp.ID = req.ID
	resp.TimeTaken = time.Since(start).Microseconds()
	s.send(resp)
}

// dispatch runs one request. A panic inside a session is reported as an
// internal error rather than taking the server down.
func (s *Server) dispatch(req Request) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("Request %s (%s) panicked: %v", req.ID, req.Op, r)
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	switch req.Op {
	case OpHealth:
		return Response{Status: "ok", Stats: map[string]int{"sessions": len(s.sessions)}}, nil
	case OpOpen:
		return s.open(req)
	case OpStats:
		if req.Session == "" {
			return Response{Stats: s.serverStats()}, nil
		}
	}

	if !sessionOps.Contains(req.Op) {
		return Response{}, badRequest("Unknown op: %q", req.Op)
	}
	r, ok := s.sessions[req.Session]
	if !ok {
		return Response{}, &requestError{code: CodeUnknownSession, msg: fmt.Sprintf("Unknown session: %q", req.Session)}
	}

	switch req.Op {
	case OpEdit:
		err = s.edit(r, req)
	case OpMove:
		if req.Cursor == nil {
			return Response{}, badRequest("move needs a cursor")
		}
		r.surface.SetCursor(*req.Cursor)
		r.sess.Controller.Dismiss()
	case OpKey:
		err = s.key(r, req)
	case OpAccept:
		resp.Accepted = r.sess.Controller.AcceptSelection()
	case OpDismiss:
		r.sess.Controller.Dismiss()
	case OpText:
		resp.Text = r.surface.Text()
	case OpClose:
		r.sess.Close()
		delete(s.sessions, req.Session)
		s.log.Debugf("Closed session %s", req.Session)
	case OpStats:
		resp.Stats = sessionStats(r)
	}
	if err != nil {
		return Response{}, err
	}

	out := r.response(req.ID)
	out.Accepted, out.Text, out.Stats = resp.Accepted, resp.Text, resp.Stats
	return out, nil
}

func (s *Server) open(req Request) (Response, error) {
	if len(s.sessions) >= s.opts.MaxSessions {
		return Response{}, &requestError{
			code: CodeTooManySessions,
			msg:  fmt.Sprintf("Session limit of %d reached", s.opts.MaxSessions),
		}
	}
	if !utf8.ValidString(req.Text) {
		return Response{}, badRequest("open text is not valid UTF-8")
	}

	id := uuid.NewString()
	cursor := utf8.RuneCountInString(req.Text)
	if req.Cursor != nil {
		cursor = *req.Cursor
	}

	store := suggest.NewStore(s.opts.MinLength, s.opts.MaxLength)
	store.Load(s.opts.Words, false)
	table := autocorrect.NewTable(slices.Clone(s.opts.Rules))

	opts := s.opts.Session
	if opts.Debounce > 0 {
		opts.Scheduler = session.LoopScheduler{Post: func(f func()) {
			s.post(func() {
				f()
				s.flushRefresh(id)
			})
		}}
	}

	r := &remote{
		store:   store,
		surface: newRecordingSurface(req.Text, cursor),
		view:    &recordingView{},
	}
	r.sess = session.New(id, r.surface, store, table, r.view, opts)
	s.sessions[id] = r
	s.log.Debugf("Opened session %s (%d words)", id, len(store.Words()))
	return r.response(req.ID), nil
}

func (s *Server) edit(r *remote, req Request) error {
	var ev session.EditEvent
	switch req.Kind {
	case "insert":
		ch, size := utf8.DecodeRuneInString(req.Char)
		if size == 0 || size != len(req.Char) || ch == utf8.RuneError {
			return badRequest("insert needs exactly one character, got %q", req.Char)
		}
		if req.Pos < 0 || req.Pos > r.surface.Len() {
			return badRequest("insert position %d out of range", req.Pos)
		}
		r.surface.mirror(whitespace.EditOp{Start: req.Pos, End: req.Pos, Text: req.Char, Cursor: req.Pos + 1})
		ev = session.EditEvent{Kind: session.Insert, Pos: req.Pos, Char: ch}
	case "delete":
		dir, err := parseDirection(req.Dir)
		if err != nil {
			return err
		}
		if req.Pos < 0 || req.Pos >= r.surface.Len() {
			return badRequest("delete position %d out of range", req.Pos)
		}
		r.surface.mirror(whitespace.EditOp{Start: req.Pos, End: req.Pos + 1, Cursor: req.Pos})
		ev = session.EditEvent{Kind: session.Delete, Pos: req.Pos, Dir: dir}
	default:
		return badRequest("Unknown edit kind: %q", req.Kind)
	}
	if req.Cursor != nil {
		r.surface.SetCursor(*req.Cursor)
	}
	r.sess.Controller.OnBufferEdit(ev)
	return nil
}

func parseDirection(d string) (whitespace.Direction, error) {
	switch d {
	case "", "backward":
		return whitespace.Backward, nil
	case "forward":
		return whitespace.Forward, nil
	}
	return 0, badRequest("Unknown direction: %q", d)
}

var popupKeys = map[string]session.PopupKey{
	"char":      session.KeyChar,
	"backspace": session.KeyBackspace,
	"delete":    session.KeyDelete,
	"return":    session.KeyReturn,
	"escape":    session.KeyEscape,
	"up":        session.KeyUp,
	"down":      session.KeyDown,
}

func (s *Server) key(r *remote, req Request) error {
	k, ok := popupKeys[req.Key]
	if !ok {
		return badRequest("Unknown key: %q", req.Key)
	}
	ev := session.PopupEvent{Key: k}
	if k == session.KeyChar {
		ch, size := utf8.DecodeRuneInString(req.Char)
		if size == 0 || size != len(req.Char) || ch == utf8.RuneError {
			return badRequest("char key needs exactly one character, got %q", req.Char)
		}
		ev.Char = ch
	}
	r.sess.Controller.OnPopupKey(ev)
	return nil
}

// flushRefresh pushes the popup changes of a debounced refresh.
func (s *Server) flushRefresh(id string) {
	r, ok := s.sessions[id]
	if !ok {
		return
	}
	resp := r.response("")
	if len(resp.Popup) == 0 && len(resp.Edits) == 0 {
		return
	}
	resp.Op = OpRefresh
	s.send(resp)
}

func (s *Server) closeAll() {
	for id, r := range s.sessions {
		r.sess.Close()
		delete(s.sessions, id)
	}
}

func (s *Server) serverStats() map[string]int {
	return map[string]int{
		"sessions":     len(s.sessions),
		"max_sessions": s.opts.MaxSessions,
		"requests":     s.requests,
		"words":        len(s.opts.Words),
		"rules":        len(s.opts.Rules),
	}
}

func sessionStats(r *remote) map[string]int {
	out := r.sess.Controller.Stats()
	for k, v := range r.store.Stats() {
		out["store_"+k] = v
	}
	for k, v := range r.sess.Autocorrect.Stats() {
		out["autocorrect_"+k] = v
	}
	return out
}

// send encodes a response. The encoder writes straight to the output so
// nothing needs flushing.
func (s *Server) send(v any) {
	if err := s.enc.Encode(v); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}
