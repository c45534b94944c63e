package whitespace

import (
	"fmt"
	"strings"
)

// InvariantError describes a buffer position where the space invariant does not hold.
type InvariantError struct {
	Pos    int
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("whitespace invariant violated at %d: %s", e.Pos, e.Reason)
}

// Apply applies ops in order and returns the new buffer and the cursor of the
// last op, or -1 when ops is empty.
func Apply(buf []rune, ops ...EditOp) ([]rune, int) {
	cursor := -1
	for _, op := range ops {
		start, end := clamp(op.Start, 0, len(buf)), clamp(op.End, 0, len(buf))
		if end < start {
			end = start
		}
		ins := []rune(op.Text)
		out := make([]rune, 0, len(buf)-(end-start)+len(ins))
		out = append(out, buf[:start]...)
		out = append(out, ins...)
		out = append(out, buf[end:]...)
		buf = out
		cursor = clamp(op.Cursor, 0, len(buf))
	}
	return buf, cursor
}

// CheckInvariant returns an *InvariantError for the first pair of adjacent
// space-like runes or literal space before end of line in s.
func CheckInvariant(s string) error {
	runes := []rune(s)
	for i, r := range runes {
		if !IsSpaceLike(r) {
			continue
		}
		if i+1 < len(runes) && IsSpaceLike(runes[i+1]) {
			return &InvariantError{Pos: i, Reason: "adjacent space-like runes"}
		}
		if r == ' ' && (i+1 == len(runes) || runes[i+1] == '\n') {
			return &InvariantError{Pos: i, Reason: "literal space at end of line"}
		}
	}
	return nil
}

// Visible renders tokens as printable glyphs, for logs and debugging output.
func Visible(s string) string {
	return strings.NewReplacer(string(MultipleSpace), "▣", string(TrailingSpace), "⊤").Replace(s)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
