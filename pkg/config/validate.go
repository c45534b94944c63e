package config

import (
	"fmt"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/pkg/corpus"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/log"
)

// ConfigurationError records an option that was out of range and the value
// that replaced it.
type ConfigurationError struct {
	Field     string
	Value     any
	Corrected any
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v, using %v", e.Field, e.Value, e.Corrected)
}

const defaultMaxSessions = 16

// Validate corrects out of range options in place. Every correction is
// logged and returned; none of them is fatal.
func (c *Config) Validate() []*ConfigurationError {
	var errs []*ConfigurationError
	fix := func(field string, value, corrected any) {
		e := &ConfigurationError{Field: field, Value: value, Corrected: corrected}
		log.Warnf("Config: %v", e)
		errs = append(errs, e)
	}

	comp := &c.Completion
	if comp.MinLength < 1 {
		fix("completion.min_length", comp.MinLength, suggest.DefaultMinLength)
		comp.MinLength = suggest.DefaultMinLength
	}
	if comp.MaxLength < comp.MinLength {
		corrected := max(suggest.DefaultMaxLength, comp.MinLength)
		fix("completion.max_length", comp.MaxLength, corrected)
		comp.MaxLength = corrected
	}
	if comp.MaxCandidates < 0 {
		fix("completion.max_candidates", comp.MaxCandidates, 0)
		comp.MaxCandidates = 0
	}
	if comp.DebounceMs < 0 {
		fix("completion.debounce_ms", comp.DebounceMs, 0)
		comp.DebounceMs = 0
	}

	cor := &c.Corpus
	if cor.WorkerCount < 0 {
		fix("corpus.worker_count", cor.WorkerCount, 0)
		cor.WorkerCount = 0
	}
	if cor.PhraseThreshold < 0 {
		fix("corpus.phrase_threshold", cor.PhraseThreshold, corpus.DefaultPhraseThreshold)
		cor.PhraseThreshold = corpus.DefaultPhraseThreshold
	}
	if cor.MinWordLength < 1 {
		fix("corpus.min_word_length", cor.MinWordLength, corpus.DefaultMinWordLength)
		cor.MinWordLength = corpus.DefaultMinWordLength
	}
	// raising the completion minimum above 3 raises the source minimum with it
	if comp.MinLength > 3 && cor.MinWordLength < 4 {
		fix("corpus.min_word_length", cor.MinWordLength, 4)
		cor.MinWordLength = 4
	}
	if utf8.RuneCountInString(cor.ErrorMarker) != 1 {
		fix("corpus.error_marker", fmt.Sprintf("%q", cor.ErrorMarker), fmt.Sprintf("%q", corpus.DefaultErrorMarker))
		cor.ErrorMarker = string(corpus.DefaultErrorMarker)
	}

	if c.Server.MaxSessions < 1 {
		fix("server.max_sessions", c.Server.MaxSessions, defaultMaxSessions)
		c.Server.MaxSessions = defaultMaxSessions
	}
	return errs
}
