// Package suggest is the core, holding the live completion vocabulary in first-character
// buckets and answering prefix queries on every keystroke.
package suggest

// Completer is what an edit session needs from a completion vocabulary.
type Completer interface {
	// Load replaces the vocabulary with words, or extends it when appending.
	// Words are expected best-ranked first.
	Load(words []string, appending bool)

	// Query returns every stored word that starts with fragment, in bucket order.
	Query(fragment string) []string

	// Promote moves word, and each token of a phrase, to the front of its bucket.
	Promote(word string)

	// IsWordChar reports whether r has been seen inside a stored word.
	IsWordChar(r rune) bool

	// MinLength and MaxLength bound fragment lengths worth querying.
	MinLength() int
	MaxLength() int

	// Stats returns statistics about the loaded vocabulary
	Stats() map[string]int
}
