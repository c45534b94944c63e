// Package autocorrect applies literal as-you-type substitutions. A rule fires
// when the text just before the cursor ends with its trigger; rules are tried
// in list order and the first match wins.
package autocorrect

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Rule replaces Input with Output when Input is typed.
type Rule struct {
	Input  string `toml:"input" msgpack:"i"`
	Output string `toml:"output" msgpack:"o"`
}

func (r Rule) String() string {
	return fmt.Sprintf("%q -> %q", r.Input, r.Output)
}

// Match is the result of a successful Apply. Length counts runes.
type Match struct {
	Rule        int
	Length      int
	Replacement string
}

// DefaultRules cycle quote and dash styles through repeated keys and expand a
// couple of shorthand markers.
var DefaultRules = []Rule{
	{Input: "<<", Output: "“"},
	{Input: ">>", Output: "”"},
	{Input: "“<", Output: "‘"},
	{Input: "”>", Output: "’"},
	{Input: "‘<", Output: "<"},
	{Input: "’>", Output: ">"},
	{Input: "--", Output: "–"},
	{Input: "–-", Output: "—"},
	{Input: "—-", Output: "-"},
	{Input: ".lrd", Output: "\\nd Lord\\nd*"},
	{Input: ".fq", Output: "\\f + \\fr \\fq \\ft \\f*"},
}

// Table holds an ordered rule list. Triggers are kept reversed in a patricia
// trie so one walk over the reversed tail finds every rule that matches.
type Table struct {
	rules  []Rule
	trie   *patricia.Trie
	maxLen int
}

// NewTable creates a table holding rules.
func NewTable(rules []Rule) *Table {
	t := &Table{}
	t.SetRules(rules, false)
	return t
}

// NewDefaultTable creates a table seeded with DefaultRules.
func NewDefaultTable() *Table {
	return NewTable(DefaultRules)
}

// SetRules replaces the rule list, or extends it when appending.
func (t *Table) SetRules(rules []Rule, appending bool) {
	if !appending {
		t.rules = nil
	}
	t.rules = append(t.rules, rules...)
	t.rebuild()
	log.Debugf("Autocorrect table holds %d rules (max trigger %d)", len(t.rules), t.maxLen)
}

func (t *Table) rebuild() {
	t.trie = patricia.NewTrie()
	t.maxLen = 0
	for i, r := range t.rules {
		n := utf8.RuneCountInString(r.Input)
		if n == 0 {
			log.Warnf("Skipping autocorrect rule %d with empty trigger", i)
			continue
		}
		t.maxLen = max(t.maxLen, n)
		// Insert keeps the first index for a repeated trigger
		t.trie.Insert(patricia.Prefix(reverse(r.Input)), i)
	}
}

// Rules returns a copy of the rule list.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// MaxLength is the longest trigger in runes.
func (t *Table) MaxLength() int {
	return t.maxLen
}

// Apply looks for a rule whose trigger ends preceding. The earliest rule in
// list order wins regardless of trigger length.
func (t *Table) Apply(preceding string) (Match, bool) {
	if t.maxLen == 0 || preceding == "" {
		return Match{}, false
	}
	tail := lastRunes(preceding, t.maxLen)

	best := -1
	_ = t.trie.VisitPrefixes(patricia.Prefix(reverse(tail)), func(_ patricia.Prefix, item patricia.Item) error {
		if i, ok := item.(int); ok && (best < 0 || i < best) {
			best = i
		}
		return nil
	})
	if best < 0 {
		return Match{}, false
	}
	r := t.rules[best]
	return Match{
		Rule:        best,
		Length:      utf8.RuneCountInString(r.Input),
		Replacement: r.Output,
	}, true
}

func (t *Table) Stats() map[string]int {
	return map[string]int{
		"rules":     len(t.rules),
		"triggers":  t.countTriggers(),
		"maxLength": t.maxLen,
	}
}

func (t *Table) countTriggers() int {
	n := 0
	_ = t.trie.Visit(func(patricia.Prefix, patricia.Item) error {
		n++
		return nil
	})
	return n
}

type ruleFile struct {
	Rules []Rule `toml:"rules"`
}

// LoadRuleFile reads [[rules]] entries from a TOML file.
func LoadRuleFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f ruleFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", path, err)
	}
	return f.Rules, nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func lastRunes(s string, n int) string {
	count := 0
	for i := len(s); i > 0; {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
		count++
		if count == n {
			return s[i:]
		}
	}
	return s
}
