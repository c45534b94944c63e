package suggest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore(0, 0)
	assert.Equal(t, DefaultMinLength, s.MinLength())
	assert.Equal(t, DefaultMaxLength, s.MaxLength())

	s = NewStore(20, 5)
	assert.Equal(t, 20, s.MinLength())
	assert.Equal(t, 20, s.MaxLength())
}

func TestLoad(t *testing.T) {
	s := NewStore(3, 15)
	s.Load([]string{"Lord", "Lo", "light", "Lord", "Lord God", "land"}, false)

	assert.Equal(t, []string{"Lord", "Lord God"}, s.Query("Lo"))
	assert.Equal(t, []string{"light", "land"}, s.Query("l"))
	assert.Equal(t, 4, s.Stats()["totalWords"])

	// replace drops the old vocabulary
	s.Load([]string{"grace"}, false)
	assert.Empty(t, s.Query("Lo"))
	assert.Equal(t, []string{"grace"}, s.Query("gr"))
	assert.False(t, s.IsWordChar('L'))
}

func TestLoadAppendKeepsRank(t *testing.T) {
	s := NewStore(3, 15)
	s.Load([]string{"house", "holy"}, false)
	s.Load([]string{"holy", "hope"}, true)
	assert.Equal(t, []string{"house", "holy", "hope"}, s.Query("h"))
}

func TestWordChars(t *testing.T) {
	s := NewStore(3, 15)
	s.Load([]string{"Lord's house.", "jó-napot"}, false)

	for _, r := range "Lord'shuejó-napt" {
		assert.True(t, s.IsWordChar(r), "%q", r)
	}
	assert.False(t, s.IsWordChar(' '))
	assert.False(t, s.IsWordChar('.'))
	assert.False(t, s.IsWordChar('z'))
}

func TestQuery(t *testing.T) {
	s := NewStore(3, 15)
	s.Load([]string{"shall", "shalt", "she", "sheep"}, false)

	tests := []struct {
		fragment string
		want     []string
	}{
		{"sh", []string{"shall", "shalt", "she", "sheep"}},
		{"sha", []string{"shall", "shalt"}},
		{"she", []string{"sheep"}},
		{"shall", nil},
		{"x", nil},
		{"", nil},
	}
	for _, tc := range tests {
		t.Run(tc.fragment, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Query(tc.fragment))
		})
	}
}

func TestPromoteMovesToFront(t *testing.T) {
	s := NewStore(3, 15)
	s.Load([]string{"these", "there", "their", "them"}, false)

	s.Promote("their")
	assert.Equal(t, []string{"their", "these", "there", "them"}, s.Query("th"))

	// every prefix of the promoted word sees it first
	word := "them"
	s.Promote(word)
	for k := 1; k < len(word); k++ {
		got := s.Query(word[:k])
		require.NotEmpty(t, got)
		assert.Equal(t, word, got[0], "prefix %q", word[:k])
	}
}

func TestPromoteTrimsAndFilters(t *testing.T) {
	s := NewStore(3, 15)
	s.Load([]string{"water", "wait"}, false)

	s.Promote("wait.")
	assert.Equal(t, []string{"wait", "water"}, s.Query("wa"))

	// at or below minLength nothing changes
	s.Promote("war")
	assert.Equal(t, []string{"wait", "water"}, s.Query("wa"))

	// unknown words are learned at the front
	s.Promote("wander!")
	assert.Equal(t, []string{"wander", "wait", "water"}, s.Query("wa"))
	assert.Equal(t, 3, s.Stats()["totalWords"])
}

func TestPromotePhrase(t *testing.T) {
	s := NewStore(3, 15)
	s.Load([]string{"Lord", "God", "Lord God", "Lord Jesus", "Lamb"}, false)

	s.Promote("Lord  Jesus")
	assert.Equal(t, []string{"Lord Jesus", "Lord", "Lord God"}, s.Query("Lo"))

	s.Promote("Lamb")
	assert.Equal(t, []string{"Lamb", "Lord Jesus", "Lord", "Lord God"}, s.Query("L"))
}

func TestScenarioLordGod(t *testing.T) {
	s := NewStore(3, 15)
	// ranked output of the indexer for "the Lord God is good. The Lord is great."
	s.Load([]string{"Lord", "the", "The", "God", "good", "great"}, false)
	assert.Equal(t, []string{"Lord"}, s.Query("Lo"))

	s.Promote("Lord God")
	s.Promote("Lord God")
	s.Load([]string{"Lord", "Lord God", "Lord's"}, true)

	got := s.Query("Lo")
	assert.Equal(t, []string{"Lord God", "Lord", "Lord's"}, got)
	assert.Contains(t, s.Query("Lor"), "Lord")
}

func TestScenarioAutoLearnHouse(t *testing.T) {
	s := NewStore(3, 15)
	s.Load([]string{"holy", "honour"}, false)
	s.Promote("house")
	assert.Equal(t, "house", s.Query("h")[0])
}

var typingPatterns = [][]string{
	{"h", "he", "hel", "hell", "hello"},
	{"p", "pr", "pro", "prog", "progr", "progra", "program"},
	{"i", "in", "int", "inte", "inter", "intern", "interna", "internat", "internati", "internatio", "internation", "internationa", "international"},
}

// Promotions reorder buckets in place; a long session must not grow them.
func TestRepeatedUseDoesNotGrow(t *testing.T) {
	s := NewStore(3, 15)
	s.Load([]string{"hello", "help", "program", "progress", "international", "intern"}, false)
	before := s.Stats()

	for i := 0; i < 1000; i++ {
		pattern := typingPatterns[i%len(typingPatterns)]
		for _, prefix := range pattern {
			s.Query(prefix)
		}
		s.Promote(pattern[len(pattern)-1])
	}

	after := s.Stats()
	assert.Equal(t, before["totalWords"], after["totalWords"])
	assert.Equal(t, before["largestBucket"], after["largestBucket"])
	assert.Equal(t, "international", s.Query("inter")[0])
}

func BenchmarkQuery(b *testing.B) {
	s := NewStore(3, 15)
	words := make([]string, 0, 20000)
	for i := range 20000 {
		words = append(words, fmt.Sprintf("%c%05dword", 'a'+rune(i%26), i))
	}
	s.Load(words, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Query("b001")
	}
}

func BenchmarkPromote(b *testing.B) {
	s := NewStore(3, 15)
	words := make([]string, 0, 5000)
	for i := range 5000 {
		words = append(words, fmt.Sprintf("w%05d", i))
	}
	s.Load(words, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Promote(words[i%len(words)])
	}
}
