/*
Package server exposes edit sessions over msgpack IPC on stdin/stdout.

A host editor keeps its own text buffer and mirrors every keystroke to the
server. The server runs the whitespace codec, autocorrect and the completion
state machine on a copy of that buffer and answers with the edits the host
has to apply and the popup changes it has to show.

# IPC

Messages are consecutive msgpack maps in both directions. Every request carries
an ID and an op; everything but open and health names the session it targets:

	{"id": "1", "op": "open", "x": "In the beginning", "u": 16}
	{"id": "2", "op": "edit", "s": "9b1d...", "k": "insert", "n": 16, "ch": " "}
	{"id": "3", "op": "key", "s": "9b1d...", "key": "return"}

For edit the host has already applied the raw change at n. The response lists
the atomic edit groups to apply next, in order, and the popup events:

	{"id": "2", "s": "9b1d...", "o": [[{"s": 16, "e": 17, "t": "\ue001", "c": 17}]], "u": 17, "st": "idle", "t": 41}

A group is one undo step: its ops apply one after another and the cursor ends
at the last op's c. Popup events are show, update, hide and select:

	{"e": "show", "i": ["Lord", "Lord God"], "n": 0}

Debounced refreshes fire between requests. Their popup events arrive as a
response with an empty ID and op "refresh".

Errors use the minimal shape {"id", "e", "c"} with HTTP-like codes.
*/
package server

import "github.com/bastiangx/typeahead/pkg/whitespace"

// Request ops.
const (
	OpOpen    = "open"
	OpEdit    = "edit"
	OpMove    = "move"
	OpKey     = "key"
	OpAccept  = "accept"
	OpDismiss = "dismiss"
	OpText    = "text"
	OpClose   = "close"
	OpStats   = "stats"
	OpHealth  = "health"
	OpRefresh = "refresh"
)

// Request is one host message.
type Request struct {
	ID      string `msgpack:"id"`
	Op      string `msgpack:"op"`
	Session string `msgpack:"s,omitempty"`
	// Text is the already encoded buffer for open.
	Text string `msgpack:"x,omitempty"`
	// Cursor is the cursor for open and move, and overrides the cursor after edit.
	Cursor *int `msgpack:"u,omitempty"`
	// Kind is "insert" or "delete" for edit.
	Kind string `msgpack:"k,omitempty"`
	Pos  int    `msgpack:"n,omitempty"`
	Char string `msgpack:"ch,omitempty"`
	// Dir is "backward" or "forward" for a delete.
	Dir string `msgpack:"d,omitempty"`
	// Key is char, backspace, delete, return, escape, up or down.
	Key string `msgpack:"key,omitempty"`
}

// PopupEvent is one change to the host's candidate popup.
type PopupEvent struct {
	Event    string   `msgpack:"e"`
	Items    []string `msgpack:"i,omitempty"`
	Selected int      `msgpack:"n"`
}

// Response answers a Request.
type Response struct {
	ID      string                `msgpack:"id"`
	Op      string                `msgpack:"op,omitempty"`
	Session string                `msgpack:"s,omitempty"`
	Edits   [][]whitespace.EditOp `msgpack:"o,omitempty"`
	Popup   []PopupEvent          `msgpack:"p,omitempty"`
	Cursor  int                   `msgpack:"u"`
	State   string                `msgpack:"st,omitempty"`
	// Text is the decoded buffer, sent for text.
	Text     string         `msgpack:"x,omitempty"`
	Accepted bool           `msgpack:"a,omitempty"`
	Stats    map[string]int `msgpack:"stats,omitempty"`
	Status   string         `msgpack:"status,omitempty"`
	// TimeTaken is in microseconds.
	TimeTaken int64 `msgpack:"t"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// Error codes.
const (
	CodeBadRequest      = 400
	CodeUnknownSession  = 404
	CodeTooManySessions = 429
	CodeInternal        = 500
)
