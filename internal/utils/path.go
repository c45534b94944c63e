package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

const appName = "typeahead"

// CorpusPatterns are the file globs recognised as corpus documents.
var CorpusPatterns = []string{"*.SFM", "*.sfm", "*.usfm", "*.USFM", "*.ptx", "*.PTX"}

// PathResolver finds config, corpus and cache locations relative to the binary and the user's home
type PathResolver struct {
	executablePath string
	executableDir  string
	homeDir        string
	configDir      string
}

// NewPathResolver creates a new path resolver that determines the executable location
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executablePath: execPath,
		executableDir:  filepath.Dir(execPath),
		homeDir:        homeDir,
		configDir:      configDirFor(homeDir),
	}
	log.Debugf("PathResolver initialized: exec=%s, configDir=%s", execPath, pr.configDir)
	return pr, nil
}

func configDirFor(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", appName)
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		return filepath.Join(homeDir, ".config", appName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		return filepath.Join(homeDir, "."+appName)
	}
}

// GetCorpusDir resolves the directory holding corpus documents.
// Candidates, in order: the path as given, relative to the executable, relative to
// the working directory, then <configDir>/corpus. The first that holds at least one
// corpus document wins; otherwise the path as given is returned unchanged.
func (pr *PathResolver) GetCorpusDir(userPath string) string {
	var candidates []string
	if filepath.IsAbs(userPath) {
		candidates = append(candidates, userPath)
	} else if userPath != "" {
		candidates = append(candidates, filepath.Join(pr.executableDir, userPath))
		if cwd, err := os.Getwd(); err == nil {
			candidates = append(candidates, filepath.Join(cwd, userPath))
		}
	}
	candidates = append(candidates, filepath.Join(pr.configDir, "corpus"))

	for _, path := range candidates {
		if IsCorpusDir(path) {
			log.Debugf("Found corpus directory: %s", path)
			return path
		}
		log.Debugf("Corpus directory candidate not valid: %s", path)
	}
	return userPath
}

// GetCacheDir returns the directory used for ranked-list caches, creating it if needed.
func (pr *PathResolver) GetCacheDir(userPath string) string {
	dir := userPath
	if dir == "" {
		dir = filepath.Join(pr.configDir, "cache")
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(pr.configDir, dir)
	}
	if err := EnsureDir(dir); err != nil {
		log.Warnf("Cannot create cache directory %s: %v", dir, err)
	}
	return dir
}

// IsCorpusDir reports whether path is a directory containing at least one corpus document.
func IsCorpusDir(path string) bool {
	if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
		return false
	}
	return len(ListCorpusFiles(path)) > 0
}

// ListCorpusFiles returns the corpus documents directly inside dir, sorted by name.
func ListCorpusFiles(dir string) []string {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range CorpusPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, m := range matches {
			// case-insensitive filesystems report the same file for both cases
			key := strings.ToLower(m)
			if seen[key] {
				continue
			}
			seen[key] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// GetConfigPath returns the full path for a config file
// It ensures the config directory exists and handles read-only filesystem issues
func (pr *PathResolver) GetConfigPath(filename string) (string, error) {
	configPath := filepath.Join(pr.configDir, filename)
	if ensureWritableDir(pr.configDir) {
		return configPath, nil
	}

	fallbackDirs := []string{
		filepath.Join(pr.homeDir, "."+appName),
		filepath.Join(os.TempDir(), appName),
		pr.executableDir,
	}
	for _, dir := range fallbackDirs {
		if ensureWritableDir(dir) {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback config location: %s", path)
			return path, nil
		}
	}

	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", tempPath)
	return tempPath, nil
}

func ensureWritableDir(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Debugf("Cannot create config directory %s: %v", dir, err)
		return false
	}
	return testWriteAccess(dir)
}

// GetConfigDir returns the config directory
func (pr *PathResolver) GetConfigDir() string {
	return pr.configDir
}

// GetExecutableDir returns the directory containing the executable
func (pr *PathResolver) GetExecutableDir() string {
	return pr.executableDir
}

// GetRuntimeInfo returns debug information about the current runtime environment
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()
	info := map[string]string{
		"executable_path": pr.executablePath,
		"current_dir":     cwd,
		"config_dir":      pr.configDir,
		"os":              runtime.GOOS,
		"arch":            runtime.GOARCH,
	}
	for _, envVar := range []string{"HOME", "XDG_CONFIG_HOME", "APPDATA"} {
		if value := os.Getenv(envVar); value != "" {
			info["env_"+strings.ToLower(envVar)] = value
		}
	}
	return info
}
