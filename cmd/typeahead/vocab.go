package main

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/corpus"
	"github.com/charmbracelet/log"
)

type vocabOptions struct {
	corpusDir string
	current   string
	noCache   bool
}

// vocabulary is the ranked corpus list followed by any configured word lists.
type vocabulary struct {
	dir     string
	words   []string
	fromDoc int
	result  *corpus.Result
	cache   *corpus.Cache

	ix      *corpus.Indexer
	sources []corpus.Source
	current string
}

func buildVocabulary(ctx context.Context, cfg *config.Config, opts vocabOptions) (*vocabulary, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize path resolver: %w", err)
	}

	dir := opts.corpusDir
	if dir == "" {
		dir = cfg.Corpus.Dir
	}
	dir = pr.GetCorpusDir(dir)
	current := opts.current
	if current == "" {
		current = cfg.Corpus.CurrentDocument
	}

	vocab := &vocabulary{dir: dir, current: current}
	files := utils.ListCorpusFiles(dir)
	if len(files) == 0 {
		log.Warnf("No corpus documents found in %s", dir)
	} else {
		log.Debugf("Indexing %d documents from %s", len(files), dir)
	}

	vocab.ix = corpus.NewIndexer(cfg.IndexerOptions(corpus.LogSink{}))
	vocab.sources = corpus.FileSources(files)
	if !opts.noCache {
		vocab.cache = corpus.NewCache(pr.GetCacheDir(cfg.Corpus.CacheDir))
	}
	words, res, err := vocab.ix.RankedList(ctx, vocab.sources, current, cfg.Workers(), vocab.cache)
	if err != nil {
		return nil, fmt.Errorf("failed to index corpus: %w", err)
	}
	vocab.result = res
	vocab.fromDoc = len(words)
	vocab.words = appendWordLists(words, cfg.Corpus.WordLists, cfg.Corpus.MinWordLength)
	return vocab, nil
}

// pruneCache removes every cache entry except the one for this corpus.
func (v *vocabulary) pruneCache() (int, error) {
	if v.cache == nil {
		return 0, nil
	}
	return v.cache.Prune(v.ix.Fingerprint(v.sources, v.current))
}

// appendWordLists adds every readable list after words, dropping entries
// shorter than minLength runes. Unreadable lists are logged and skipped.
func appendWordLists(words []string, paths []string, minLength int) []string {
	for _, path := range paths {
		list, err := corpus.LoadWordList(utils.GetAbsolutePath(path))
		if err != nil {
			log.Warnf("Skipping word list: %v", err)
			continue
		}
		kept := 0
		for _, w := range list {
			if utf8.RuneCountInString(w) >= minLength {
				words = append(words, w)
				kept++
			}
		}
		log.Debugf("Loaded %d entries from word list %s", kept, path)
	}
	return words
}

func printVocabulary(out io.Writer, vocab *vocabulary, top int) {
	if vocab.result == nil {
		fmt.Fprintf(out, "ranked list read from cache (%s entries)\n", utils.FormatWithCommas(vocab.fromDoc))
	} else {
		res := vocab.result
		fmt.Fprintf(out, "indexed %d documents (%d excluded) in %v\n", res.Indexed, res.Excluded, res.Duration)
		fmt.Fprintf(out, "%s distinct entries, %s ranked\n",
			utils.FormatWithCommas(res.Table.Len()), utils.FormatWithCommas(len(res.Ranked)))
		for _, f := range res.Failed {
			fmt.Fprintf(out, "  no words loaded for document %s: %v\n", f.DocumentID, f.Err)
		}
	}
	if extra := len(vocab.words) - vocab.fromDoc; extra > 0 {
		fmt.Fprintf(out, "%s entries from word lists\n", utils.FormatWithCommas(extra))
	}
	for i, w := range vocab.words[:min(top, len(vocab.words))] {
		if vocab.result != nil && i < vocab.fromDoc {
			fmt.Fprintf(out, "%4d. %-30s %8s\n", i+1, w, utils.FormatWithCommas(vocab.result.Table.Count(w)))
			continue
		}
		fmt.Fprintf(out, "%4d. %s\n", i+1, w)
	}
}
