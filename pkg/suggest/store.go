package suggest

import (
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
)

const (
	DefaultMinLength = 3
	DefaultMaxLength = 15
)

// bucket keeps the suffixes sharing one first character, most recently used first.
type bucket struct {
	suffixes []string
	index    map[string]int
}

func newBucket() *bucket {
	return &bucket{index: make(map[string]int)}
}

func (b *bucket) has(suffix string) bool {
	_, ok := b.index[suffix]
	return ok
}

func (b *bucket) push(suffix string) {
	b.index[suffix] = len(b.suffixes)
	b.suffixes = append(b.suffixes, suffix)
}

// toFront moves suffix to position 0, inserting it when absent.
func (b *bucket) toFront(suffix string) {
	i, ok := b.index[suffix]
	if !ok {
		b.suffixes = append(b.suffixes, "")
		i = len(b.suffixes) - 1
	}
	copy(b.suffixes[1:i+1], b.suffixes[:i])
	b.suffixes[0] = suffix
	for j := 0; j <= i; j++ {
		b.index[b.suffixes[j]] = j
	}
}

// Store is the prefix completion store. It is owned by one edit session and is
// not safe for concurrent use; hosts sharing a vocabulary copy the ranked list.
type Store struct {
	buckets   map[rune]*bucket
	wordChars mapset.Set[rune]
	minLength int
	maxLength int
	words     int
}

var _ Completer = (*Store)(nil)

// NewStore creates an empty store. Non-positive lengths fall back to defaults.
func NewStore(minLength, maxLength int) *Store {
	if minLength < 1 {
		minLength = DefaultMinLength
	}
	if maxLength < minLength {
		maxLength = max(DefaultMaxLength, minLength)
	}
	return &Store{
		buckets:   make(map[rune]*bucket),
		wordChars: mapset.NewThreadUnsafeSet[rune](),
		minLength: minLength,
		maxLength: maxLength,
	}
}

func (s *Store) MinLength() int { return s.minLength }
func (s *Store) MaxLength() int { return s.maxLength }

// Load fills the buckets from a ranked word list. Without appending the store
// is emptied first; duplicates within a bucket keep their existing rank.
func (s *Store) Load(words []string, appending bool) {
	if !appending {
		s.buckets = make(map[rune]*bucket)
		s.wordChars = mapset.NewThreadUnsafeSet[rune]()
		s.words = 0
	}
	added := 0
	for _, w := range words {
		if utf8.RuneCountInString(w) < s.minLength {
			continue
		}
		first, suffix := split(w)
		b := s.bucketFor(first)
		if b.has(suffix) {
			continue
		}
		b.push(suffix)
		s.learnChars(w)
		added++
	}
	s.words += added
	log.Debugf("Loaded %d words into completion store (append=%v, total=%d)", added, appending, s.words)
}

// Query returns the full words whose first character and suffix match
// fragment. The fragment itself is never returned.
func (s *Store) Query(fragment string) []string {
	if fragment == "" {
		return nil
	}
	first, rest := split(fragment)
	b, ok := s.buckets[first]
	if !ok {
		return nil
	}
	var out []string
	prefix := string(first)
	for _, suffix := range b.suffixes {
		if suffix != rest && strings.HasPrefix(suffix, rest) {
			out = append(out, prefix+suffix)
		}
	}
	return out
}

// Promote records a use of word. The tokens of a phrase are promoted one by one
// and then the phrase itself, so the phrase ends up in front.
func (s *Store) Promote(word string) {
	word = strings.TrimSpace(word)
	if strings.ContainsRune(word, ' ') {
		for _, token := range strings.Fields(word) {
			s.Promote(token)
		}
		word = strings.Join(strings.Fields(word), " ")
	}
	word = utils.TrimTrailingPunct(word)
	if utf8.RuneCountInString(word) <= s.minLength {
		return
	}
	first, suffix := split(word)
	b := s.bucketFor(first)
	if !b.has(suffix) {
		s.words++
		s.learnChars(word)
	}
	b.toFront(suffix)
}

// IsWordChar reports whether r occurs in any accepted word.
func (s *Store) IsWordChar(r rune) bool {
	return s.wordChars.Contains(r)
}

// WordChars returns a copy of the known word characters.
func (s *Store) WordChars() []rune {
	return s.wordChars.ToSlice()
}

// Words returns every stored word in bucket order, buckets in no particular order.
func (s *Store) Words() []string {
	out := make([]string, 0, s.words)
	for first, b := range s.buckets {
		for _, suffix := range b.suffixes {
			out = append(out, string(first)+suffix)
		}
	}
	return out
}

func (s *Store) Stats() map[string]int {
	largest := 0
	for _, b := range s.buckets {
		largest = max(largest, len(b.suffixes))
	}
	return map[string]int{
		"totalWords":    s.words,
		"buckets":       len(s.buckets),
		"largestBucket": largest,
		"wordChars":     s.wordChars.Cardinality(),
		"minLength":     s.minLength,
		"maxLength":     s.maxLength,
	}
}

func (s *Store) bucketFor(first rune) *bucket {
	b, ok := s.buckets[first]
	if !ok {
		b = newBucket()
		s.buckets[first] = b
	}
	return b
}

func (s *Store) learnChars(w string) {
	for _, r := range w {
		if r == ' ' || r == '.' {
			continue
		}
		s.wordChars.Add(r)
	}
}

func split(w string) (rune, string) {
	r, size := utf8.DecodeRuneInString(w)
	return r, w[size:]
}
