/*
Package config manages the TOML config for typeahead.
*/
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/autocorrect"
	"github.com/bastiangx/typeahead/pkg/corpus"
	"github.com/bastiangx/typeahead/pkg/session"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/log"
)

// FileName is the config file looked up in the config directory.
const FileName = "typeahead.toml"

// Config holds the entire config structure
type Config struct {
	Completion  CompletionConfig  `toml:"completion"`
	Corpus      CorpusConfig      `toml:"corpus"`
	Autocorrect AutocorrectConfig `toml:"autocorrect"`
	Server      ServerConfig      `toml:"server"`
}

// CompletionConfig has the live completion options.
type CompletionConfig struct {
	MinLength                    int  `toml:"min_length"`
	MaxLength                    int  `toml:"max_length"`
	AddAllNewWords               bool `toml:"add_all_new_words"`
	IncludeTrailingSpaceOnAccept bool `toml:"include_trailing_space_on_accept"`
	MaxCandidates                int  `toml:"max_candidates"`
	DebounceMs                   int  `toml:"debounce_ms"`
}

// CorpusConfig holds indexing options.
type CorpusConfig struct {
	Dir               string   `toml:"dir"`
	CurrentDocument   string   `toml:"current_document"`
	WorkerCount       int      `toml:"worker_count"`
	MinWordLength     int      `toml:"min_word_length"`
	PhraseThreshold   int      `toml:"phrase_threshold"`
	ExcludedDocuments []string `toml:"excluded_documents"`
	PrintableMarkers  []string `toml:"printable_markers"`
	ErrorMarker       string   `toml:"error_marker"`
	CacheDir          string   `toml:"cache_dir"`
	WordLists         []string `toml:"word_lists"`
}

// AutocorrectConfig holds the substitution rules.
type AutocorrectConfig struct {
	UseDefaults bool               `toml:"use_defaults"`
	Rules       []autocorrect.Rule `toml:"rules"`
	RuleFiles   []string           `toml:"rule_files"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxSessions int `toml:"max_sessions"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Completion: CompletionConfig{
			MinLength:                    suggest.DefaultMinLength,
			MaxLength:                    suggest.DefaultMaxLength,
			AddAllNewWords:               false,
			IncludeTrailingSpaceOnAccept: true,
		},
		Corpus: CorpusConfig{
			Dir:               "corpus",
			MinWordLength:     corpus.DefaultMinWordLength,
			PhraseThreshold:   corpus.DefaultPhraseThreshold,
			ExcludedDocuments: append([]string(nil), corpus.DefaultExcludedDocuments...),
			PrintableMarkers:  append([]string(nil), corpus.DefaultPrintableMarkers...),
			ErrorMarker:       string(corpus.DefaultErrorMarker),
		},
		Autocorrect: AutocorrectConfig{
			UseDefaults: true,
		},
		Server: ServerConfig{
			MaxSessions: 16,
		},
	}
}

// GetConfigDir returns the config directory:
// ~/.config/typeahead (or the platform equivalent), else the executable's dir.
func GetConfigDir() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		log.Errorf("Failed to resolve config directory: %v", err)
		return "", err
	}
	if result := utils.CheckDirStatus(pr.GetConfigDir()); result.Writable {
		return pr.GetConfigDir(), nil
	}
	return pr.GetExecutableDir(), nil
}

// GetDefaultConfigPath returns the default path for typeahead.toml,
// falling back to other writable locations when the config dir is read-only.
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath(FileName)
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/typeahead/typeahead.toml
// 3. Builtin defaults
// The returned config is always validated.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				config.Validate()
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	config.Validate()
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. A file that does not parse as a whole
// is read section by section and what is readable is kept.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}
	if section, ok := utils.ExtractSection(tempConfig, "completion"); ok {
		extractCompletionConfig(section, &config.Completion)
	}
	if section, ok := utils.ExtractSection(tempConfig, "corpus"); ok {
		extractCorpusConfig(section, &config.Corpus)
	}
	if section, ok := utils.ExtractSection(tempConfig, "autocorrect"); ok {
		extractAutocorrectConfig(section, &config.Autocorrect)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		if val, ok := utils.ExtractInt64(section, "max_sessions"); ok {
			config.Server.MaxSessions = val
		}
	}
	return config, nil
}

func extractCompletionConfig(data map[string]any, c *CompletionConfig) {
	if val, ok := utils.ExtractInt64(data, "min_length"); ok {
		c.MinLength = val
	}
	if val, ok := utils.ExtractInt64(data, "max_length"); ok {
		c.MaxLength = val
	}
	if val, ok := utils.ExtractBool(data, "add_all_new_words"); ok {
		c.AddAllNewWords = val
	}
	if val, ok := utils.ExtractBool(data, "include_trailing_space_on_accept"); ok {
		c.IncludeTrailingSpaceOnAccept = val
	}
	if val, ok := utils.ExtractInt64(data, "max_candidates"); ok {
		c.MaxCandidates = val
	}
	if val, ok := utils.ExtractInt64(data, "debounce_ms"); ok {
		c.DebounceMs = val
	}
}

func extractCorpusConfig(data map[string]any, c *CorpusConfig) {
	if val, ok := utils.ExtractString(data, "dir"); ok {
		c.Dir = val
	}
	if val, ok := utils.ExtractString(data, "current_document"); ok {
		c.CurrentDocument = val
	}
	if val, ok := utils.ExtractInt64(data, "worker_count"); ok {
		c.WorkerCount = val
	}
	if val, ok := utils.ExtractInt64(data, "min_word_length"); ok {
		c.MinWordLength = val
	}
	if val, ok := utils.ExtractInt64(data, "phrase_threshold"); ok {
		c.PhraseThreshold = val
	}
	if val, ok := utils.ExtractStringSlice(data, "excluded_documents"); ok {
		c.ExcludedDocuments = val
	}
	if val, ok := utils.ExtractStringSlice(data, "printable_markers"); ok {
		c.PrintableMarkers = val
	}
	if val, ok := utils.ExtractString(data, "error_marker"); ok {
		c.ErrorMarker = val
	}
	if val, ok := utils.ExtractString(data, "cache_dir"); ok {
		c.CacheDir = val
	}
	if val, ok := utils.ExtractStringSlice(data, "word_lists"); ok {
		c.WordLists = val
	}
}

func extractAutocorrectConfig(data map[string]any, c *AutocorrectConfig) {
	if val, ok := utils.ExtractBool(data, "use_defaults"); ok {
		c.UseDefaults = val
	}
	if val, ok := utils.ExtractStringSlice(data, "rule_files"); ok {
		c.RuleFiles = val
	}
	raw, ok := data["rules"].([]map[string]any)
	if !ok {
		return
	}
	c.Rules = c.Rules[:0]
	for _, r := range raw {
		in, okIn := utils.ExtractString(r, "input")
		out, okOut := utils.ExtractString(r, "output")
		if okIn && okOut {
			c.Rules = append(c.Rules, autocorrect.Rule{Input: in, Output: out})
		}
	}
}

// RebuildConfigFile force creates a new typeahead.toml at the default path
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Workers resolves worker_count, where zero means one per CPU.
func (c *Config) Workers() int {
	if c.Corpus.WorkerCount <= 0 {
		return runtime.NumCPU()
	}
	return c.Corpus.WorkerCount
}

// IndexerOptions converts the corpus section for corpus.NewIndexer.
func (c *Config) IndexerOptions(sink corpus.StatusSink) corpus.Options {
	marker, _ := utf8.DecodeRuneInString(c.Corpus.ErrorMarker)
	return corpus.Options{
		PrintableMarkers:  c.Corpus.PrintableMarkers,
		ExcludedDocuments: c.Corpus.ExcludedDocuments,
		ErrorMarker:       marker,
		MinWordLength:     c.Corpus.MinWordLength,
		PhraseThreshold:   c.Corpus.PhraseThreshold,
		Sink:              sink,
	}
}

// SessionOptions converts the completion section for session.New.
func (c *Config) SessionOptions(sched session.Scheduler, debug bool) session.Options {
	return session.Options{
		AddAllNewWords:        c.Completion.AddAllNewWords,
		TrailingSpaceOnAccept: c.Completion.IncludeTrailingSpaceOnAccept,
		MaxCandidates:         c.Completion.MaxCandidates,
		Debounce:              time.Duration(c.Completion.DebounceMs) * time.Millisecond,
		Scheduler:             sched,
		Debug:                 debug,
	}
}

// AutocorrectRules returns the configured rules in order: defaults, inline
// rules, then each rule file. Unreadable rule files are logged and skipped.
func (c *Config) AutocorrectRules() []autocorrect.Rule {
	var rules []autocorrect.Rule
	if c.Autocorrect.UseDefaults {
		rules = append(rules, autocorrect.DefaultRules...)
	}
	rules = append(rules, c.Autocorrect.Rules...)
	for _, path := range c.Autocorrect.RuleFiles {
		fileRules, err := autocorrect.LoadRuleFile(path)
		if err != nil {
			log.Warnf("Skipping autocorrect rule file: %v", err)
			continue
		}
		rules = append(rules, fileRules...)
	}
	return rules
}
