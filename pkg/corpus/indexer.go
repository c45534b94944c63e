// Package corpus turns a set of USFM-style marked-up documents into a ranked
// list of words and short phrases for seeding a completion store.
package corpus

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
)

const (
	// MaxPhraseWords is the longest n-gram counted.
	MaxPhraseWords = 5

	// CurrentDocumentWeight multiplies occurrences in the document being edited.
	CurrentDocumentWeight = 3

	DefaultMinWordLength   = 3
	DefaultPhraseThreshold = 4
	DefaultErrorMarker     = '\uFFFD'
)

// DefaultPrintableMarkers are the paragraph-level markers whose text is indexed.
var DefaultPrintableMarkers = []string{
	"v", "p", "m", "mi", "nb", "pc", "pi", "pi1", "pi2", "pi3", "pm", "pr",
	"q", "q1", "q2", "q3", "q4", "qc", "qr", "qm", "qm1", "qm2",
	"li", "li1", "li2", "li3", "d", "s", "s1", "s2", "s3", "sp", "cls",
}

// DefaultExcludedDocuments are peripheral books that are never indexed.
var DefaultExcludedDocuments = []string{"FRT", "BAK", "OTH", "INT", "CNC", "GLO", "TDX", "NDX"}

var (
	notePattern    = regexp.MustCompile(`\\(f|fe|x)\s.*?\\(f|fe|x)\*`)
	attrPattern    = regexp.MustCompile(`\|[^\\]*`)
	verseNumber    = regexp.MustCompile(`\\v\s+\S+\s?`)
	inlineMarker   = regexp.MustCompile(`\\\+?[A-Za-z0-9]+(\*| ?)`)
	sentenceEnds   = ".?!"
	closingQuotes  = "\"'\u201d\u2019\u00bb\u203a"
	dashBreaks     = strings.NewReplacer("—", " ", "–", " ")
)

// Options configures an Indexer.
type Options struct {
	PrintableMarkers  []string
	ExcludedDocuments []string
	ErrorMarker       rune
	MinWordLength     int
	PhraseThreshold   int
	Sink              StatusSink
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		PrintableMarkers:  DefaultPrintableMarkers,
		ExcludedDocuments: DefaultExcludedDocuments,
		ErrorMarker:       DefaultErrorMarker,
		MinWordLength:     DefaultMinWordLength,
		PhraseThreshold:   DefaultPhraseThreshold,
	}
}

// Indexer scans documents. Its marker sets are fixed at construction and only
// read afterwards, so IndexDocument may run on many goroutines at once.
type Indexer struct {
	printable       mapset.Set[string]
	excluded        mapset.Set[string]
	errorMarker     rune
	minWordLength   int
	phraseThreshold int
	sink            StatusSink
}

func NewIndexer(opts Options) *Indexer {
	if opts.ErrorMarker == 0 {
		opts.ErrorMarker = DefaultErrorMarker
	}
	if opts.MinWordLength < 1 {
		opts.MinWordLength = DefaultMinWordLength
	}
	if opts.PhraseThreshold < 0 {
		opts.PhraseThreshold = DefaultPhraseThreshold
	}
	if opts.Sink == nil {
		opts.Sink = LogSink{}
	}
	excluded := mapset.NewThreadUnsafeSet[string]()
	for _, id := range opts.ExcludedDocuments {
		excluded.Add(strings.ToUpper(id))
	}
	return &Indexer{
		printable:       mapset.NewThreadUnsafeSet(opts.PrintableMarkers...),
		excluded:        excluded,
		errorMarker:     opts.ErrorMarker,
		minWordLength:   opts.MinWordLength,
		phraseThreshold: opts.PhraseThreshold,
		sink:            opts.Sink,
	}
}

// Excluded reports whether documentID is skipped entirely.
func (ix *Indexer) Excluded(documentID string) bool {
	return ix.excluded.Contains(strings.ToUpper(documentID))
}

// IndexDocument counts every 1 to MaxPhraseWords word sequence in lines,
// each occurrence adding weight. Sequences spanning a sentence break are not
// counted.
//
// A line starting with a backslash opens a marker whose text is indexed only
// when the marker is printable. Every marker line starts a new word stream
// except \v, which continues the paragraph it belongs to. Lines without a
// marker continue the previous marker.
func (ix *Indexer) IndexDocument(documentID string, lines []string, weight int) *FrequencyTable {
	table := NewFrequencyTable()
	if ix.Excluded(documentID) {
		log.Debugf("Skipping excluded document %s", documentID)
		return table
	}
	if weight < 1 {
		weight = 1
	}

	var (
		window     []string
		seenMarker bool
		printable  bool
	)
	for n, line := range lines {
		if n == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		text := line
		if line[0] == '\\' {
			marker, rest := splitMarker(line)
			seenMarker = true
			printable = ix.printable.Contains(marker)
			if marker == "v" || marker == "c" {
				rest = dropFirstField(rest)
			}
			if marker != "v" || !printable {
				window = window[:0]
			}
			text = rest
		} else if !seenMarker {
			log.Errorf("%s:%d: text before the first marker skipped: %q", documentID, n+1, line)
			continue
		}
		if !printable {
			continue
		}
		window = ix.countLine(table, window, text, weight)
	}
	return table
}

func (ix *Indexer) countLine(table *FrequencyTable, window []string, text string, weight int) []string {
	for _, word := range strings.Fields(cleanText(text)) {
		if strings.ContainsRune(word, ix.errorMarker) {
			window = window[:0]
			continue
		}
		if !hasLetter(word) {
			window = window[:0]
			continue
		}
		if len(window) == MaxPhraseWords {
			copy(window, window[1:])
			window = window[:MaxPhraseWords-1]
		}
		window = append(window, word)

		for size := 1; size <= len(window); size++ {
			candidate := strings.Join(window[len(window)-size:], " ")
			if spansSentence(candidate) {
				break
			}
			candidate = utils.TrimLeadingPunct(utils.TrimTrailingPunct(candidate))
			if candidate == "" {
				continue
			}
			table.Add(candidate, weight)
		}
	}
	return window
}

// cleanText removes notes, attributes and inline markers and turns dashes into breaks.
func cleanText(text string) string {
	if strings.ContainsRune(text, '\\') {
		text = notePattern.ReplaceAllString(text, " ")
		text = attrPattern.ReplaceAllString(text, "")
		text = verseNumber.ReplaceAllString(text, " ")
		text = inlineMarker.ReplaceAllString(text, "")
	}
	return dashBreaks.Replace(text)
}

// splitMarker splits a marker line into its marker name and the remaining text.
// The name ends at a space, an asterisk or the next backslash.
func splitMarker(line string) (string, string) {
	body := line[1:]
	end := strings.IndexAny(body, " \t*\\")
	if end < 0 {
		return body, ""
	}
	rest := body[end:]
	if rest[0] == '*' {
		rest = rest[1:]
	}
	return body[:end], strings.TrimLeft(rest, " \t")
}

func dropFirstField(s string) string {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return strings.TrimLeft(s[i:], " \t")
	}
	return ""
}

// spansSentence reports whether any word but the last of a space-joined
// phrase ends a sentence, allowing closing quotes after the stop.
func spansSentence(s string) bool {
	words := strings.Split(s, " ")
	for _, w := range words[:len(words)-1] {
		w = strings.TrimRight(w, closingQuotes)
		if w != "" && strings.ContainsRune(sentenceEnds, rune(w[len(w)-1])) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
