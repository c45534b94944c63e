package corpus

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// FrequencyTable counts words and phrases, remembering the order in which
// each entry was first seen so that ranking ties stay stable.
type FrequencyTable struct {
	counts map[string]int
	order  []string
}

func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{counts: make(map[string]int)}
}

// Add increases the count of word by n.
func (f *FrequencyTable) Add(word string, n int) {
	if _, ok := f.counts[word]; !ok {
		f.order = append(f.order, word)
	}
	f.counts[word] += n
}

// Merge sums other into f. Entries new to f are appended in other's order.
func (f *FrequencyTable) Merge(other *FrequencyTable) {
	if other == nil {
		return
	}
	for _, w := range other.order {
		f.Add(w, other.counts[w])
	}
}

func (f *FrequencyTable) Count(word string) int {
	return f.counts[word]
}

func (f *FrequencyTable) Len() int {
	return len(f.order)
}

// Words returns the entries in first-seen order.
func (f *FrequencyTable) Words() []string {
	return slices.Clone(f.order)
}

// Counts returns a copy of the word to count mapping.
func (f *FrequencyTable) Counts() map[string]int {
	out := make(map[string]int, len(f.counts))
	for w, n := range f.counts {
		out[w] = n
	}
	return out
}

// Rank drops entries shorter than minLength runes and phrases whose count is
// at or below phraseThreshold, then sorts by descending count. Ties keep
// first-seen order.
func (f *FrequencyTable) Rank(minLength, phraseThreshold int) []string {
	ranked := make([]string, 0, len(f.order))
	for _, w := range f.order {
		if utf8.RuneCountInString(w) < minLength {
			continue
		}
		if strings.ContainsRune(w, ' ') && f.counts[w] <= phraseThreshold {
			continue
		}
		ranked = append(ranked, w)
	}
	slices.SortStableFunc(ranked, func(a, b string) int {
		return f.counts[b] - f.counts[a]
	})
	return ranked
}
