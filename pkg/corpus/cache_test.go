package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir())
	words := []string{"Lord", "the Lord", "Israel"}

	_, err := cache.Load("abc")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Store("abc", words))
	require.NoError(t, ValidateCacheFile(filepath.Join(cache.Dir(), "abc"+cacheExt)))

	got, err := cache.Load("abc")
	require.NoError(t, err)
	assert.Equal(t, words, got)
}

func TestCacheRejectsCorruptFile(t *testing.T) {
	cache := NewCache(t.TempDir())
	path := filepath.Join(cache.Dir(), "bad"+cacheExt)
	require.NoError(t, os.WriteFile(path, []byte("not a cache file at all, just some padding text"), 0644))

	err := ValidateCacheFile(path)
	assert.Error(t, err)
	_, err = cache.Load("bad")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestCachePrune(t *testing.T) {
	cache := NewCache(t.TempDir())
	require.NoError(t, cache.Store("old", []string{"a"}))
	require.NoError(t, cache.Store("new", []string{"b"}))

	removed, err := cache.Prune("new")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = cache.Load("old")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.Load("new")
	assert.NoError(t, err)
}

func TestFingerprint(t *testing.T) {
	ix := newTestIndexer()
	a := []Source{MemorySource{DocumentID: "GEN", Text: "\\v 1 one"}}
	b := []Source{MemorySource{DocumentID: "GEN", Text: "\\v 1 two"}}

	assert.Equal(t, ix.Fingerprint(a, "GEN"), ix.Fingerprint(a, "gen"))
	assert.NotEqual(t, ix.Fingerprint(a, "GEN"), ix.Fingerprint(b, "GEN"))
	assert.NotEqual(t, ix.Fingerprint(a, "GEN"), ix.Fingerprint(a, "EXO"))

	opts := DefaultOptions()
	opts.PhraseThreshold = 9
	assert.NotEqual(t, ix.Fingerprint(a, "GEN"), NewIndexer(opts).Fingerprint(a, "GEN"))
	assert.Len(t, ix.Fingerprint(a, ""), 32)
}

func TestFingerprintFileStamp(t *testing.T) {
	ix := newTestIndexer()
	path := filepath.Join(t.TempDir(), "01GENTST.SFM")
	require.NoError(t, os.WriteFile(path, []byte("\\v 1 one\n"), 0644))
	sources := FileSources([]string{path})

	first := ix.Fingerprint(sources, "GEN")
	assert.Equal(t, first, ix.Fingerprint(sources, "GEN"))

	require.NoError(t, os.WriteFile(path, []byte("\\v 1 one two\n"), 0644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	second := ix.Fingerprint(sources, "GEN")
	assert.NotEqual(t, first, second)

	require.NoError(t, os.Remove(path))
	assert.NotEqual(t, second, ix.Fingerprint(sources, "GEN"))
}
