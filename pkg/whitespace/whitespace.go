/*
Package whitespace keeps space-like runs in an edit buffer unambiguous.

A literal space in the live buffer always means one word separator. A run of
two or more spaces is held as a single MultipleSpace token and a space that
ends a line is held as a TrailingSpace token. Both are private-use runes that
Decode turns back into one literal space.

The codec never rewrites a whole buffer. After every single character insert or
delete the host calls OnInsert or OnDelete, which look at the two runes around
the edit point and return the EditOps that restore the invariant:

	buf  "word1 word2"   type ' ' at the end
	ops  [{11 12 "" 12}]
	buf  "word1 word2⊤"

Hosts apply the returned ops as one atomic edit.
*/
package whitespace

import (
	"fmt"
	"strings"
)

const (
	// MultipleSpace stands in for a run of two or more spaces.
	MultipleSpace rune = '\uE000'
	// TrailingSpace stands in for a space immediately before end of line.
	TrailingSpace rune = '\uE001'
)

// Direction of a single character delete.
type Direction int

const (
	Backward Direction = iota
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// Text is the read-only view of a buffer the codec inspects. Indexes are rune offsets.
type Text interface {
	Len() int
	At(i int) rune
}

// Runes adapts a rune slice to Text.
type Runes []rune

func (r Runes) Len() int      { return len(r) }
func (r Runes) At(i int) rune { return r[i] }

// EditOp replaces the runes in [Start, End) with Text and moves the cursor to Cursor.
type EditOp struct {
	Start  int    `msgpack:"s"`
	End    int    `msgpack:"e"`
	Text   string `msgpack:"t"`
	Cursor int    `msgpack:"c"`
}

func (op EditOp) String() string {
	return fmt.Sprintf("[%d,%d)->%q@%d", op.Start, op.End, Decode(op.Text), op.Cursor)
}

// IsToken reports whether r is one of the substitute runes.
func IsToken(r rune) bool {
	return r == MultipleSpace || r == TrailingSpace
}

// IsSpaceLike reports whether r is a literal space or a token.
func IsSpaceLike(r rune) bool {
	return r == ' ' || IsToken(r)
}

// Decode replaces every token with one literal space.
func Decode(s string) string {
	if !strings.ContainsRune(s, MultipleSpace) && !strings.ContainsRune(s, TrailingSpace) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if IsToken(r) {
			return ' '
		}
		return r
	}, s)
}

// OnInsert returns the ops needed after ch was inserted at pos. t already holds ch at pos.
func OnInsert(t Text, pos int, ch rune) []EditOp {
	switch ch {
	case ' ':
		start, end := pos, pos+1
		if spaceLike(t, pos-1) {
			start = pos - 1
		}
		if spaceLike(t, pos+1) {
			end = pos + 2
		}
		if start != pos || end != pos+1 {
			return []EditOp{{Start: start, End: end, Text: string(MultipleSpace), Cursor: start + 1}}
		}
		if lineEnd(t, pos+1) {
			return []EditOp{{Start: pos, End: pos + 1, Text: string(TrailingSpace), Cursor: pos + 1}}
		}
		return nil
	case '\n':
		if r, ok := at(t, pos-1); ok && r == ' ' {
			return []EditOp{{Start: pos - 1, End: pos, Text: string(TrailingSpace), Cursor: pos + 1}}
		}
		return nil
	}

	start, end := pos, pos+1
	text := string(ch)
	if isolatedBefore(t, pos-1) {
		start = pos - 1
		text = " " + text
	}
	if isolatedAfter(t, pos+1) {
		end = pos + 2
		text += " "
	}
	if start == pos && end == pos+1 {
		return nil
	}
	return []EditOp{{Start: start, End: end, Text: text, Cursor: pos + 1}}
}

// OnDelete returns the ops needed after one rune was removed at pos. The runes
// that became neighbours are t[pos-1] and t[pos]; the cursor sits at pos for
// either direction.
func OnDelete(t Text, pos int, dir Direction) []EditOp {
	_ = dir
	left, hasLeft := at(t, pos-1)
	right, hasRight := at(t, pos)

	switch {
	case hasLeft && hasRight && IsSpaceLike(left) && IsSpaceLike(right):
		return []EditOp{{Start: pos - 1, End: pos + 1, Text: string(MultipleSpace), Cursor: pos}}
	case hasLeft && left == ' ' && lineEnd(t, pos):
		return []EditOp{{Start: pos - 1, End: pos, Text: string(TrailingSpace), Cursor: pos}}
	case hasLeft && left == TrailingSpace && !lineEnd(t, pos):
		return []EditOp{{Start: pos - 1, End: pos, Text: " ", Cursor: pos}}
	case hasLeft && left == MultipleSpace && !lineEnd(t, pos) && !spaceLike(t, pos-2):
		return []EditOp{{Start: pos - 1, End: pos, Text: " ", Cursor: pos}}
	case hasRight && right == MultipleSpace && !spaceLike(t, pos-1) &&
		!spaceLike(t, pos+1) && !lineEnd(t, pos+1):
		return []EditOp{{Start: pos, End: pos + 1, Text: " ", Cursor: pos}}
	}
	return nil
}

// Replace returns the single op that replaces [start, end) with s while keeping
// the invariant at both seams. Runs of spaces inside s are encoded too. When
// nothing is left to insert the op is a plain delete and callers follow it with
// OnDelete.
func Replace(t Text, start, end int, s string) EditOp {
	if s == "" {
		return EditOp{Start: start, End: end, Cursor: start}
	}
	body := []rune(s)
	if spaceLike(t, start-1) {
		for len(body) > 0 && body[0] == ' ' {
			body = body[1:]
		}
	}
	if spaceLike(t, end) {
		for len(body) > 0 && body[len(body)-1] == ' ' {
			body = body[:len(body)-1]
		}
	}
	if len(body) == 0 {
		return EditOp{Start: start, End: end, Cursor: start}
	}
	body = encode(body, lineEnd(t, end))

	op := EditOp{Start: start, End: end}
	var b strings.Builder
	switch {
	case body[0] == '\n':
		if r, ok := at(t, start-1); ok && r == ' ' {
			op.Start = start - 1
			b.WriteRune(TrailingSpace)
		}
	case !IsSpaceLike(body[0]) && isolatedBefore(t, start-1):
		op.Start = start - 1
		b.WriteRune(' ')
	}
	b.WriteString(string(body))
	op.Cursor = op.Start + len([]rune(b.String()))
	if len(body) > 0 && !IsSpaceLike(body[len(body)-1]) && body[len(body)-1] != '\n' && isolatedAfter(t, end) {
		op.End = end + 1
		b.WriteRune(' ')
	}
	op.Text = b.String()
	return op
}

// Insert is Replace with an empty range.
func Insert(t Text, pos int, s string) EditOp {
	return Replace(t, pos, pos, s)
}

// encode folds space runs of s into tokens. atLineEnd marks s as the end of its line.
func encode(s []rune, atLineEnd bool) []rune {
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			out = append(out, s[i])
			continue
		}
		j := i
		for j+1 < len(s) && IsSpaceLike(s[j+1]) {
			j++
		}
		switch {
		case j > i:
			out = append(out, MultipleSpace)
		case j+1 == len(s) && atLineEnd, j+1 < len(s) && s[j+1] == '\n':
			out = append(out, TrailingSpace)
		default:
			out = append(out, ' ')
		}
		i = j
	}
	return out
}

// isolatedBefore reports whether the token at i must decode because a
// non-space rune now follows it.
func isolatedBefore(t Text, i int) bool {
	r, ok := at(t, i)
	if !ok {
		return false
	}
	switch r {
	case TrailingSpace:
		return true
	case MultipleSpace:
		return !spaceLike(t, i-1)
	}
	return false
}

// isolatedAfter reports whether the multiple-space token at i must decode
// because a non-space rune now precedes it.
func isolatedAfter(t Text, i int) bool {
	r, ok := at(t, i)
	if !ok || r != MultipleSpace {
		return false
	}
	return !spaceLike(t, i+1) && !lineEnd(t, i+1)
}

func at(t Text, i int) (rune, bool) {
	if i < 0 || i >= t.Len() {
		return 0, false
	}
	return t.At(i), true
}

func spaceLike(t Text, i int) bool {
	r, ok := at(t, i)
	return ok && IsSpaceLike(r)
}

func lineEnd(t Text, i int) bool {
	r, ok := at(t, i)
	return !ok || r == '\n'
}
