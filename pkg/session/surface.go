package session

import (
	"github.com/bastiangx/typeahead/pkg/whitespace"
)

// TextSurface is the host-owned buffer a session edits. Indexes are rune offsets.
type TextSurface interface {
	whitespace.Text
	Cursor() int
	// Apply performs ops as one atomic edit and moves the cursor to the last op's Cursor.
	Apply(ops ...whitespace.EditOp)
}

// EditKind tells inserts from deletes.
type EditKind int

const (
	Insert EditKind = iota
	Delete
)

func (k EditKind) String() string {
	if k == Delete {
		return "delete"
	}
	return "insert"
}

// EditEvent reports a single character edit the host has already applied.
// For an insert the surface holds Char at Pos; for a delete the runes that
// became neighbours sit at Pos-1 and Pos.
type EditEvent struct {
	Kind EditKind
	Pos  int
	Char rune
	Dir  whitespace.Direction
}

// Buffer is an in-memory TextSurface.
type Buffer struct {
	runes  []rune
	cursor int
}

// NewBuffer returns a buffer holding text with the cursor at the end. text is
// taken as already encoded.
func NewBuffer(text string) *Buffer {
	r := []rune(text)
	return &Buffer{runes: r, cursor: len(r)}
}

func (b *Buffer) Len() int      { return len(b.runes) }
func (b *Buffer) At(i int) rune { return b.runes[i] }
func (b *Buffer) Cursor() int   { return b.cursor }

func (b *Buffer) SetCursor(pos int) {
	b.cursor = max(0, min(pos, len(b.runes)))
}

func (b *Buffer) Apply(ops ...whitespace.EditOp) {
	var cursor int
	b.runes, cursor = whitespace.Apply(b.runes, ops...)
	if cursor >= 0 {
		b.cursor = cursor
	}
}

// String returns the encoded contents.
func (b *Buffer) String() string { return string(b.runes) }

// Text returns the decoded contents.
func (b *Buffer) Text() string { return whitespace.Decode(string(b.runes)) }

// TypeRune inserts ch at the cursor without any codec handling and returns the
// event to report.
func (b *Buffer) TypeRune(ch rune) EditEvent {
	pos := b.cursor
	b.Apply(rawInsert(pos, ch))
	return EditEvent{Kind: Insert, Pos: pos, Char: ch}
}

// Erase removes one rune next to the cursor without any codec handling. It
// reports false when there is nothing to remove in that direction.
func (b *Buffer) Erase(dir whitespace.Direction) (EditEvent, bool) {
	op, ok := rawDelete(b, dir)
	if !ok {
		return EditEvent{}, false
	}
	b.Apply(op)
	return EditEvent{Kind: Delete, Pos: op.Start, Dir: dir}, true
}

func rawInsert(pos int, ch rune) whitespace.EditOp {
	return whitespace.EditOp{Start: pos, End: pos, Text: string(ch), Cursor: pos + 1}
}

func rawDelete(s TextSurface, dir whitespace.Direction) (whitespace.EditOp, bool) {
	cur := s.Cursor()
	if dir == whitespace.Backward {
		if cur == 0 {
			return whitespace.EditOp{}, false
		}
		return whitespace.EditOp{Start: cur - 1, End: cur, Cursor: cur - 1}, true
	}
	if cur >= s.Len() {
		return whitespace.EditOp{}, false
	}
	return whitespace.EditOp{Start: cur, End: cur + 1, Cursor: cur}, true
}

// slice returns the runes of s in [from, to) as a string, clamped to the buffer.
func slice(s whitespace.Text, from, to int) string {
	from, to = max(0, from), min(to, s.Len())
	if from >= to {
		return ""
	}
	out := make([]rune, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, s.At(i))
	}
	return string(out)
}
