package corpus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndexer() *Indexer {
	return NewIndexer(DefaultOptions())
}

func TestIndexDocumentScenario(t *testing.T) {
	ix := newTestIndexer()
	table := ix.IndexDocument("GEN", []string{`\v 1 the Lord God is good. The Lord is great.`}, 1)

	assert.Equal(t, 2, table.Count("Lord"))
	assert.Equal(t, 1, table.Count("Lord God"))
	assert.Equal(t, 1, table.Count("good"))
	assert.Equal(t, 1, table.Count("is great"))
	assert.Equal(t, 1, table.Count("the Lord God is good"))
	assert.Zero(t, table.Count("good. The"))
	assert.Zero(t, table.Count("good."))

	ranked := table.Rank(DefaultMinWordLength, DefaultPhraseThreshold)
	assert.Equal(t, []string{"Lord", "the", "God", "good", "The", "great"}, ranked)
}

func TestIndexDocumentSentenceBoundary(t *testing.T) {
	ix := newTestIndexer()
	lines := []string{
		`\p`,
		`\v 1 In the beginning. God created the heaven! And the earth`,
		`\v 2 was without form? Yes it was.`,
	}
	table := ix.IndexDocument("GEN", lines, 1)
	require.Positive(t, table.Len())
	for _, w := range table.Words() {
		for _, b := range []string{". ", "? ", "! "} {
			assert.NotContains(t, w, b)
		}
		assert.LessOrEqual(t, len(strings.Fields(w)), MaxPhraseWords)
	}
	assert.Equal(t, 1, table.Count("And the earth"))
	// a verse continues its paragraph
	assert.Equal(t, 1, table.Count("the earth was without"))
}

func TestIndexDocumentMarkers(t *testing.T) {
	ix := newTestIndexer()
	lines := []string{
		"\ufeff\\id GEN Genesis",
		`# a comment line`,
		`\h Genesis`,
		`\c 1`,
		`\s1 The Creation`,
		`\p`,
		`\v 1 In the \nd beginning\nd* God\f + \fr 1:1 \ft footnote words\f* created`,
		`the heaven—and the earth.`,
		`\v 2 And the \w earth|lemma="erets"\w* was`,
		`\rem not printable words`,
		`still remark text`,
	}
	table := ix.IndexDocument("GEN", lines, 1)

	assert.Equal(t, 1, table.Count("Creation"))
	assert.Equal(t, 1, table.Count("beginning God created"))
	assert.Equal(t, 1, table.Count("created the heaven"))
	assert.Equal(t, 1, table.Count("heaven"))
	assert.Equal(t, 1, table.Count("and the earth"))
	assert.Equal(t, 2, table.Count("earth"))
	assert.Equal(t, 1, table.Count("And the earth was"))

	for _, missing := range []string{"Genesis", "footnote", "words", "remark", "lemma", "erets", "1", "heaven—and"} {
		assert.Zero(t, table.Count(missing), missing)
	}
	// headings start a new stream
	assert.Zero(t, table.Count("Creation In"))
}

func TestIndexDocumentErrorMarker(t *testing.T) {
	ix := newTestIndexer()
	table := ix.IndexDocument("EXO", []string{"\\v 1 these are b\uFFFDd names of Israel"}, 1)

	assert.Zero(t, table.Count("b\uFFFDd"))
	assert.Equal(t, 1, table.Count("these are"))
	assert.Zero(t, table.Count("are names"))
	assert.Equal(t, 1, table.Count("names of Israel"))
}

func TestIndexDocumentContentBeforeMarker(t *testing.T) {
	ix := newTestIndexer()
	table := ix.IndexDocument("LEV", []string{"stray words here", `\v 1 kept words`}, 1)
	assert.Zero(t, table.Count("stray"))
	assert.Equal(t, 1, table.Count("kept words"))
}

func TestIndexDocumentPunctuation(t *testing.T) {
	ix := newTestIndexer()
	table := ix.IndexDocument("NUM", []string{`\q1 “house, house; house.” said he, “Go”`}, 1)

	assert.Equal(t, 3, table.Count("house"))
	assert.Equal(t, 1, table.Count("house, house"))
	assert.Equal(t, 1, table.Count("said he, “Go"))
	assert.Equal(t, 1, table.Count("Go"))
}

func TestIndexDocumentNumberBreaksPhrase(t *testing.T) {
	ix := newTestIndexer()
	table := ix.IndexDocument("NUM", []string{`\p went to chapter 5. Begin again`}, 1)

	assert.Zero(t, table.Count("chapter Begin"))
	assert.Equal(t, 1, table.Count("went to chapter"))
	assert.Equal(t, 1, table.Count("Begin again"))
}

func TestIndexDocumentQuotedSentenceEnd(t *testing.T) {
	ix := newTestIndexer()
	table := ix.IndexDocument("NUM", []string{"\\p he said \u201cStop.\u201d Then he went, \u2018Why?\u2019 Now"}, 1)

	assert.Zero(t, table.Count("Stop.\u201d Then"))
	assert.Zero(t, table.Count("Stop Then"))
	assert.Zero(t, table.Count("Why?\u2019 Now"))
	assert.Equal(t, 1, table.Count("he said \u201cStop"))
	assert.Equal(t, 1, table.Count("Then he went"))
	assert.Equal(t, 1, table.Count("he went, \u2018Why"))
}

func TestIndexDocumentWeightAndExclusion(t *testing.T) {
	ix := newTestIndexer()
	table := ix.IndexDocument("RUT", []string{`\v 1 whither thou goest`}, CurrentDocumentWeight)
	assert.Equal(t, 3, table.Count("whither"))
	assert.Equal(t, 3, table.Count("whither thou goest"))

	excluded := ix.IndexDocument("glo", []string{`\v 1 glossary entries`}, 1)
	assert.Zero(t, excluded.Len())
}

func TestSplitMarker(t *testing.T) {
	tests := []struct {
		line, marker, rest string
	}{
		{`\v 1 text`, "v", "1 text"},
		{`\p`, "p", ""},
		{`\q1 poem`, "q1", "poem"},
		{`\f* tail`, "f", "tail"},
		{`\p\v 1 joined`, "p", `\v 1 joined`},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			marker, rest := splitMarker(tc.line)
			assert.Equal(t, tc.marker, marker)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestFrequencyTableRank(t *testing.T) {
	f := NewFrequencyTable()
	f.Add("aa", 10)
	f.Add("beta", 2)
	f.Add("gamma", 5)
	f.Add("delta", 2)
	f.Add("two words", 4)
	f.Add("three word phrase", 5)

	assert.Equal(t, []string{"gamma", "three word phrase", "beta", "delta"}, f.Rank(3, 4))
	assert.Equal(t, []string{"aa", "gamma", "three word phrase", "two words", "beta", "delta"}, f.Rank(0, 0))
}
