package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of a corpus build.
type Result struct {
	// Table holds the merged, unranked counts.
	Table *FrequencyTable
	// Ranked is Table filtered and sorted, ready for a completion store.
	Ranked []string
	// Failed lists the documents that contributed no words.
	Failed   []*DocumentError
	Indexed  int
	Excluded int
	Duration time.Duration
}

// IndexCorpus scans every source and merges the counts. With workers > 1 the
// documents are scanned concurrently by at most that many goroutines;
// otherwise they are scanned one after another. Documents are merged in
// source order, so the result does not depend on scheduling.
//
// A document that fails to load is reported to the sink and skipped. If ctx
// is cancelled, scans already running are allowed to finish, their results
// are discarded and ctx's error is returned.
func (ix *Indexer) IndexCorpus(ctx context.Context, sources []Source, currentID string, workers int) (*Result, error) {
	start := time.Now()
	tables := make([]*FrequencyTable, len(sources))
	failures := make([]*DocumentError, len(sources))

	var (
		mu   sync.Mutex
		done int
	)
	scan := func(i int) {
		src := sources[i]
		weight := 1
		if currentID != "" && strings.EqualFold(src.ID(), currentID) {
			weight = CurrentDocumentWeight
		}
		tables[i], failures[i] = ix.scanDocument(src, weight)

		mu.Lock()
		defer mu.Unlock()
		done++
		if failures[i] != nil {
			ix.sink.Warn(fmt.Sprintf("No words loaded for document %s", src.ID()))
		}
		ix.sink.Progress(done, len(sources), src.ID())
	}

	if workers > 1 && len(sources) > 1 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range sources {
			if gCtx.Err() != nil {
				break
			}
			g.Go(func() error {
				scan(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range sources {
			if ctx.Err() != nil {
				break
			}
			scan(i)
		}
	}

	if err := ctx.Err(); err != nil {
		log.Warnf("Corpus build abandoned after %d of %d documents", done, len(sources))
		return nil, err
	}

	res := &Result{Table: NewFrequencyTable()}
	for i, src := range sources {
		switch {
		case failures[i] != nil:
			res.Failed = append(res.Failed, failures[i])
		case ix.Excluded(src.ID()):
			res.Excluded++
		default:
			res.Indexed++
		}
		res.Table.Merge(tables[i])
	}
	res.Ranked = res.Table.Rank(ix.minWordLength, ix.phraseThreshold)
	res.Duration = time.Since(start)

	log.Debugf("Indexed %d documents (%d failed, %d excluded) into %d entries, %d ranked in %v",
		res.Indexed, len(res.Failed), res.Excluded, res.Table.Len(), len(res.Ranked), res.Duration)
	return res, nil
}

// scanDocument loads and indexes one document. Any failure, including a panic
// while parsing, leaves the document with no words.
func (ix *Indexer) scanDocument(src Source, weight int) (table *FrequencyTable, derr *DocumentError) {
	defer func() {
		if r := recover(); r != nil {
			table = nil
			derr = &DocumentError{DocumentID: src.ID(), Err: fmt.Errorf("panic while indexing: %v", r)}
			log.Errorf("%v", derr)
		}
	}()
	if ix.Excluded(src.ID()) {
		return nil, nil
	}
	lines, err := src.Lines()
	if err != nil {
		derr = &DocumentError{DocumentID: src.ID(), Err: err}
		log.Errorf("%v", derr)
		return nil, derr
	}
	return ix.IndexDocument(src.ID(), lines, weight), nil
}

// RankedList returns the ranked list for sources, reading it from cache when
// an entry for the same inputs exists and writing it back after a fresh build.
// The Result is nil on a cache hit. A nil cache always builds.
func (ix *Indexer) RankedList(ctx context.Context, sources []Source, currentID string, workers int, cache *Cache) ([]string, *Result, error) {
	var key string
	if cache != nil {
		key = ix.Fingerprint(sources, currentID)
		if words, err := cache.Load(key); err == nil {
			return words, nil, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			log.Warnf("Rank cache unusable, rebuilding: %v", err)
		}
	}

	res, err := ix.IndexCorpus(ctx, sources, currentID, workers)
	if err != nil {
		return nil, nil, err
	}
	if cache != nil {
		if err := cache.Store(key, res.Ranked); err != nil {
			log.Warnf("Could not store rank cache: %v", err)
		}
	}
	return res.Ranked, res, nil
}
