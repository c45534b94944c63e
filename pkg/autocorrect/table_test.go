package autocorrect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	table := NewDefaultTable()

	tests := []struct {
		name      string
		preceding string
		wantOK    bool
		length    int
		output    string
	}{
		{"open quote", "he said <<", true, 2, "“"},
		{"close quote", "amen>>", true, 2, "”"},
		{"cycle to single", "“<", true, 2, "‘"},
		{"en dash", "a--", true, 2, "–"},
		{"em dash", "a–-", true, 2, "—"},
		{"shorthand", "the .lrd", true, 4, `\nd Lord\nd*`},
		{"no match", "plain text", false, 0, ""},
		{"trigger not at end", "<< x", false, 0, ""},
		{"empty", "", false, 0, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, ok := table.Apply(tc.preceding)
			require.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.length, m.Length)
			assert.Equal(t, tc.output, m.Replacement)
		})
	}
}

func TestApplyFirstMatchWins(t *testing.T) {
	table := NewTable([]Rule{{"--", "–"}, {"–-", "—"}})

	// type "-" three times, applying each fired rule as the caller would
	text := ""
	var fired []string
	for range 3 {
		text += "-"
		if m, ok := table.Apply(text); ok {
			r := []rune(text)
			text = string(r[:len(r)-m.Length]) + m.Replacement
			fired = append(fired, m.Replacement)
		}
	}
	assert.Equal(t, []string{"–", "—"}, fired)
	assert.Equal(t, "—", text)
}

func TestApplyListOrderBeatsLength(t *testing.T) {
	table := NewTable([]Rule{{"ab", "1"}, {"xab", "2"}, {"b", "3"}})

	m, ok := table.Apply("xab")
	require.True(t, ok)
	assert.Equal(t, 0, m.Rule)
	assert.Equal(t, "1", m.Replacement)

	m, ok = table.Apply("cb")
	require.True(t, ok)
	assert.Equal(t, 2, m.Rule)
	assert.Equal(t, 1, m.Length)
}

func TestSetRules(t *testing.T) {
	table := NewTable([]Rule{{"ab", "x"}})
	assert.Equal(t, 2, table.MaxLength())

	table.SetRules([]Rule{{"longer", "y"}, {"", "ignored"}}, true)
	assert.Equal(t, 6, table.MaxLength())
	assert.Len(t, table.Rules(), 3)
	assert.Equal(t, 2, table.Stats()["triggers"])

	_, ok := table.Apply("something")
	assert.False(t, ok)

	table.SetRules(nil, false)
	assert.Equal(t, 0, table.MaxLength())
	_, ok = table.Apply("ab")
	assert.False(t, ok)
}

func TestDuplicateTriggerKeepsFirst(t *testing.T) {
	table := NewTable([]Rule{{"qq", "first"}, {"qq", "second"}})
	m, ok := table.Apply("qq")
	require.True(t, ok)
	assert.Equal(t, "first", m.Replacement)
}

func TestLoadRuleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	body := "[[rules]]\ninput = \"(c)\"\noutput = \"©\"\n\n[[rules]]\ninput = \"...\"\noutput = \"…\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	rules, err := LoadRuleFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Rule{{"(c)", "©"}, {"...", "…"}}, rules)

	_, err = LoadRuleFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLastRunes(t *testing.T) {
	assert.Equal(t, "ló", lastRunes("haló", 2))
	assert.Equal(t, "ab", lastRunes("ab", 5))
	assert.Equal(t, "", lastRunes("", 3))
}
