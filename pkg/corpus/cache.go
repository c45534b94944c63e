package corpus

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/ulikunitz/xz"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"
)

const (
	cacheMagic   = "TAHR"
	cacheVersion = 1
	cacheExt     = ".rank.xz"
	// header plus the smallest xz stream
	cacheMinSize = int64(len(cacheMagic) + 32)
)

// ErrCacheMiss is returned when no usable cache entry exists for a key.
var ErrCacheMiss = errors.New("rank cache miss")

type cacheEntry struct {
	Version int      `msgpack:"v"`
	Key     string   `msgpack:"k"`
	Words   []string `msgpack:"w"`
	Created int64    `msgpack:"t"`
}

// Cache stores ranked lists on disk keyed by a fingerprint of everything that
// went into them.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) Dir() string { return c.dir }

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+cacheExt)
}

// stamper is implemented by sources that can name their revision without
// being read.
type stamper interface {
	Stamp() (string, error)
}

// Fingerprint hashes the indexer settings, the current document and every
// source. Sources with a Stamp are hashed by it; others by their content. A
// source that cannot be read is hashed by its error so the key still changes
// when it becomes readable.
func (ix *Indexer) Fingerprint(sources []Source, currentID string) string {
	h := blake3.New()
	write := func(parts ...string) {
		for _, p := range parts {
			io.WriteString(h, p)
			h.Write([]byte{0})
		}
	}

	printable := ix.printable.ToSlice()
	excluded := ix.excluded.ToSlice()
	slices.Sort(printable)
	slices.Sort(excluded)
	write("v"+strconv.Itoa(cacheVersion), strings.ToUpper(currentID), string(ix.errorMarker),
		strconv.Itoa(ix.minWordLength), strconv.Itoa(ix.phraseThreshold))
	write(printable...)
	write(excluded...)

	for _, src := range sources {
		write("doc", src.ID())
		if st, ok := src.(stamper); ok {
			stamp, err := st.Stamp()
			if err != nil {
				write("error", err.Error())
				continue
			}
			write("stamp", stamp)
			continue
		}
		lines, err := src.Lines()
		if err != nil {
			write("error", err.Error())
			continue
		}
		write(lines...)
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Load returns the ranked list stored under key.
func (c *Cache) Load(key string) ([]string, error) {
	path := c.path(key)
	if err := ValidateCacheFile(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		log.Warnf("Ignoring rank cache %s: %v", path, err)
		return nil, ErrCacheMiss
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, ErrCacheMiss
	}
	defer file.Close()

	br := bufio.NewReader(file)
	if _, err := br.Discard(len(cacheMagic)); err != nil {
		return nil, err
	}
	xr, err := xz.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("open rank cache %s: %w", path, err)
	}
	var entry cacheEntry
	if err := msgpack.NewDecoder(xr).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode rank cache %s: %w", path, err)
	}
	if entry.Version != cacheVersion || entry.Key != key {
		log.Warnf("Rank cache %s is stale (version %d)", path, entry.Version)
		return nil, ErrCacheMiss
	}
	log.Debugf("Loaded %d ranked words from cache %s", len(entry.Words), path)
	return entry.Words, nil
}

// Store writes words under key, replacing any previous entry.
func (c *Cache) Store(key string, words []string) error {
	var buf bytes.Buffer
	buf.WriteString(cacheMagic)
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		return err
	}
	entry := cacheEntry{Version: cacheVersion, Key: key, Words: words, Created: time.Now().Unix()}
	if err := msgpack.NewEncoder(xw).Encode(&entry); err != nil {
		xw.Close()
		return fmt.Errorf("encode rank cache: %w", err)
	}
	if err := xw.Close(); err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(c.path(key), buf.Bytes()); err != nil {
		return fmt.Errorf("write rank cache: %w", err)
	}
	log.Debugf("Stored %d ranked words in cache %s (%d bytes)", len(words), c.path(key), buf.Len())
	return nil
}

// ValidateCacheFile checks that path looks like a rank cache before it is decoded.
func ValidateCacheFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if !strings.HasSuffix(path, cacheExt) {
		return fmt.Errorf("file %s has invalid extension (expected %s)", path, cacheExt)
	}
	if info.Size() < cacheMinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for a rank cache (minimum: %d bytes)",
			path, info.Size(), cacheMinSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	header := make([]byte, len(cacheMagic))
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	if string(header) != cacheMagic {
		return fmt.Errorf("file %s has bad header %q", path, header)
	}
	return nil
}

// Prune removes cache entries other than keep. It returns how many were removed.
func (c *Cache) Prune(keep string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+cacheExt))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range matches {
		if filepath.Base(m) == keep+cacheExt {
			continue
		}
		if err := os.Remove(m); err != nil {
			log.Warnf("Cannot remove old rank cache %s: %v", m, err)
			continue
		}
		removed++
	}
	return removed, nil
}
