package catalog

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/potool/potool/internal/accessor"
	"github.com/potool/potool/internal/cache"
	"github.com/potool/potool/internal/importers"
	"github.com/potool/potool/internal/model"
)

// Loader orchestrates catalog ingestion: clear caches, clear the store,
// convert raw entries to rows, bulk insert, warm the basic-info tier. The
// heavy steps run on a background goroutine while the calling goroutine
// blocks, so cache ownership never becomes concurrent; the caller is
// suspended for the whole time the worker touches shared state.
type Loader struct {
	accessor *accessor.Accessor
	cache    *cache.Manager
	loaded   bool
}

func NewLoader(acc *accessor.Accessor, c *cache.Manager) *Loader {
	return &Loader{accessor: acc, cache: c}
}

// IsLoaded reports whether a catalog is currently loaded.
func (l *Loader) IsLoaded() bool {
	return l.loaded
}

// Load ingests the catalog from src, replacing whatever was loaded before.
// Caches are cleared before the store is touched, so a concurrent reader
// sees either nothing or the fully loaded state, never a partial one.
// On failure or cancellation the store and caches are rolled back to the
// "no catalog loaded" state and the error is returned.
func (l *Loader) Load(ctx context.Context, src importers.Source) (int, error) {
	start := time.Now()

	l.cache.InvalidateAll()
	l.loaded = false

	type result struct {
		count int
		err   error
	}
	done := make(chan result, 1)
	go func() {
		count, err := l.ingest(src)
		done <- result{count: count, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		// The worker owns the store until it finishes; wait it out, then
		// roll everything back.
		<-done
		l.rollback()
		return 0, ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		l.rollback()
		return 0, res.err
	}

	l.loaded = true
	log.Printf("Loaded %d entries in %s", res.count, time.Since(start).Round(time.Millisecond))
	return res.count, nil
}

func (l *Loader) ingest(src importers.Source) (int, error) {
	raws, err := src.ReadEntries()
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog: %w", err)
	}

	if err := l.accessor.ClearDatabase(); err != nil {
		return 0, fmt.Errorf("failed to clear store: %w", err)
	}

	entries := make([]*model.Entry, len(raws))
	for i, raw := range raws {
		entries[i] = convertRaw(raw, i)
	}
	if err := l.accessor.AddEntriesBulk(entries); err != nil {
		return 0, fmt.Errorf("bulk insert failed: %w", err)
	}

	infos, err := l.accessor.GetAllEntriesBasicInfo()
	if err != nil {
		return 0, fmt.Errorf("failed to warm basic-info cache: %w", err)
	}
	l.cache.CacheBasicAll(infos)

	return len(entries), nil
}

// rollback leaves the system in the "no catalog loaded" state.
func (l *Loader) rollback() {
	if err := l.accessor.ClearDatabase(); err != nil {
		log.Printf("Failed to clear store during load rollback: %v", err)
	}
	l.cache.InvalidateAll()
	l.loaded = false
}

// convertRaw turns a raw catalog entry into the domain entity, assigning the
// dense zero-based display position.
func convertRaw(raw importers.RawEntry, position int) *model.Entry {
	return &model.Entry{
		Key:                  raw.Key(),
		Context:              raw.Context,
		SourceText:           raw.SourceText,
		TargetText:           raw.TargetText,
		Obsolete:             raw.Obsolete,
		Flags:                raw.Flags,
		References:           raw.References,
		Comment:              raw.Comment,
		TranslatorComment:    raw.TranslatorComment,
		PreviousContext:      raw.PreviousContext,
		PreviousSource:       raw.PreviousSource,
		PreviousSourcePlural: raw.PreviousSourcePlural,
		Position:             position,
	}
}
