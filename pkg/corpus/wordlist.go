package corpus

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// LoadWordList reads a plain word list: one word or phrase per line, best
// first, with an optional tab-separated count that reorders the list.
// Blank lines and lines starting with # are ignored.
func LoadWordList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list %s: %w", path, err)
	}
	defer file.Close()

	lines, err := ReadLines(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list %s: %w", path, err)
	}

	table := NewFrequencyTable()
	counted := false
	for n, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, count := line, 0
		if i := strings.LastIndexByte(line, '\t'); i >= 0 {
			c, err := strconv.Atoi(strings.TrimSpace(line[i+1:]))
			if err != nil || c < 0 {
				log.Warnf("%s:%d: bad count %q, ignored", path, n+1, line[i+1:])
			} else {
				count = c
				counted = true
			}
			word = strings.TrimSpace(line[:i])
		}
		if word != "" {
			table.Add(word, count)
		}
	}
	if !counted {
		return table.Words(), nil
	}
	return table.Rank(0, -1), nil
}
