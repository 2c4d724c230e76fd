// Package catalog composes the store, accessor and cache into one catalog
// editing session and owns the wiring between them: the store's change hook
// drives cache invalidation, reads go cache-first, and writes flow through
// the accessor. The presentation layer talks only to the Session.
package catalog

import (
	"context"
	"log"

	"github.com/potool/potool/internal/accessor"
	"github.com/potool/potool/internal/cache"
	"github.com/potool/potool/internal/database"
	"github.com/potool/potool/internal/entities"
	"github.com/potool/potool/internal/importers"
	"github.com/potool/potool/internal/model"
)

// QAEnqueuer schedules background check recomputation for updated entries.
// Optional; a session without one simply skips the scheduling.
type QAEnqueuer interface {
	EnqueueQACheck(ctx context.Context, keys []string) error
}

// Session is the composition root for one catalog editing session. Not safe
// for concurrent mutation; the host serializes access.
type Session struct {
	store    *database.Store
	accessor *accessor.Accessor
	cache    *cache.Manager
	loader   *Loader
	qa       QAEnqueuer
}

// NewSession wires a session around an open store. It subscribes cache
// invalidation to the store's change hook; the store itself stays unaware of
// caching.
func NewSession(store *database.Store) *Session {
	acc := accessor.New(store)
	c := cache.NewManager()
	s := &Session{
		store:    store,
		accessor: acc,
		cache:    c,
	}
	s.loader = NewLoader(acc, c)
	store.SetChangeHook(s.onStoreChange)
	return s
}

// Open opens (or creates) the store at dbPath and wraps it in a session.
func Open(dbPath string) (*Session, error) {
	store, err := database.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return NewSession(store), nil
}

func (s *Session) Close() error {
	return s.store.Close()
}

// SetQAEnqueuer installs the optional background QA scheduler.
func (s *Session) SetQAEnqueuer(qa QAEnqueuer) {
	s.qa = qa
}

// onStoreChange is the change-notification sink: invalidation is a
// write-time push, never a read-time pull. A change without a known key
// (mass deletes) degrades to a full invalidate.
func (s *Session) onStoreChange(ch database.Change) {
	if ch.Key == "" {
		s.cache.InvalidateAll()
		return
	}
	s.cache.InvalidateEntry(ch.Key)
}

// Load ingests a catalog through the loader.
func (s *Session) Load(ctx context.Context, src importers.Source) (int, error) {
	return s.loader.Load(ctx, src)
}

func (s *Session) IsLoaded() bool {
	return s.loader.IsLoaded()
}

// GetEntryByKey returns the complete entity, serving from the cache when
// possible. An unknown key returns (nil, nil).
func (s *Session) GetEntryByKey(key string) (*model.Entry, error) {
	if entry, ok := s.cache.GetComplete(key); ok {
		return entry, nil
	}
	entry, err := s.accessor.GetEntryByKey(key)
	if err != nil || entry == nil {
		return nil, err
	}
	s.cache.CacheComplete(key, entry)
	return entry, nil
}

// GetEntriesByKeys returns the entries found for the given keys, prefetching
// the missing subset in one batch. Missing keys are omitted.
func (s *Session) GetEntriesByKeys(keys []string) (map[string]*model.Entry, error) {
	if !s.cache.Enabled() {
		return s.accessor.GetEntriesByKeys(keys)
	}

	err := s.cache.Prefetch(keys, func(missing []string) (map[string]*model.Entry, error) {
		return s.accessor.GetEntriesByKeys(missing)
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]*model.Entry, len(keys))
	for _, key := range keys {
		if entry, ok := s.cache.GetComplete(key); ok {
			result[key] = entry
		}
	}
	return result, nil
}

// GetEntryBasicInfo returns the minimal list-rendering projection for one
// entry, cache-first.
func (s *Session) GetEntryBasicInfo(key string) (*model.BasicInfo, error) {
	if info, ok := s.cache.GetBasic(key); ok {
		return &info, nil
	}
	entry, err := s.GetEntryByKey(key)
	if err != nil || entry == nil {
		return nil, err
	}
	info := model.BasicInfo{
		Key:        entry.Key,
		SourceText: entry.SourceText,
		TargetText: entry.TargetText,
		Fuzzy:      entry.Fuzzy(),
		Obsolete:   entry.Obsolete,
		Position:   entry.Position,
	}
	s.cache.CacheBasic(key, info)
	return &info, nil
}

// GetFilteredEntries serves a filtered read: the cached result is reused
// only when the query signature matches and no invalidation happened since;
// anything else recomputes through the accessor and repopulates the slot.
func (s *Session) GetFilteredEntries(q model.SearchQuery) ([]*model.Entry, error) {
	signature := q.Signature()
	if entries, ok := s.cache.GetFiltered(signature); ok {
		return entries, nil
	}

	entries, err := s.accessor.AdvancedSearch(q)
	if err != nil {
		return nil, err
	}
	s.cache.CacheFiltered(entries, signature)
	return entries, nil
}

// UpdateEntry writes the entity through the accessor. Cache invalidation
// arrives via the store's change hook before this returns.
func (s *Session) UpdateEntry(ctx context.Context, entry *model.Entry) (bool, error) {
	affected, err := s.accessor.UpdateEntry(entry)
	if err != nil {
		return false, err
	}
	if affected {
		s.scheduleQA(ctx, entry.Key)
	}
	return affected, nil
}

// UpdateEntries applies a batch of updates.
func (s *Session) UpdateEntries(ctx context.Context, entries map[string]*model.Entry) error {
	if err := s.accessor.UpdateEntries(entries); err != nil {
		return err
	}
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	s.scheduleQA(ctx, keys...)
	return nil
}

// ImportEntries merges entries into the loaded catalog (upsert by key).
func (s *Session) ImportEntries(entries map[string]*model.Entry) error {
	return s.accessor.ImportEntries(entries)
}

// ReorderEntries rewrites the display order. The display-order table is not
// covered by the change hook, so the session invalidates explicitly: every
// cached position is suspect after a reorder.
func (s *Session) ReorderEntries(orderedIDs []int64) error {
	if err := s.accessor.ReorderEntries(orderedIDs); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	return nil
}

func (s *Session) Stats() (model.Stats, error) {
	return s.accessor.CountsByStatus()
}

func (s *Session) AllFlags() ([]string, error) {
	return s.accessor.AllFlags()
}

// SetCacheEnabled toggles the cache layer for this session.
func (s *Session) SetCacheEnabled(enabled bool) {
	s.cache.SetEnabled(enabled)
}

// Review metadata operations. The review tables are not covered by the
// entries change hook, but review data rides on cached complete entities, so
// each mutation invalidates its entry explicitly.

func (s *Session) AddReviewComment(key, author, comment string) (string, error) {
	id, err := s.accessor.AddReviewComment(key, author, comment)
	if err == nil && id != "" {
		s.cache.InvalidateEntry(key)
	}
	return id, err
}

func (s *Session) RemoveReviewComment(key, commentID string) (bool, error) {
	removed, err := s.accessor.RemoveReviewComment(key, commentID)
	if removed {
		s.cache.InvalidateEntry(key)
	}
	return removed, err
}

func (s *Session) SetQualityScore(key string, overall int, categories map[string]int) error {
	err := s.accessor.SetQualityScore(key, overall, categories)
	if err == nil {
		s.cache.InvalidateEntry(key)
	}
	return err
}

func (s *Session) AddCheckResult(key, code, message string, severity entities.CheckSeverity) error {
	err := s.accessor.AddCheckResult(key, code, message, severity)
	if err == nil {
		s.cache.InvalidateEntry(key)
	}
	return err
}

func (s *Session) RemoveCheckResult(key, code string) (bool, error) {
	removed, err := s.accessor.RemoveCheckResult(key, code)
	if removed {
		s.cache.InvalidateEntry(key)
	}
	return removed, err
}

func (s *Session) GetReviewData(key string) (*model.ReviewData, error) {
	return s.accessor.GetReviewData(key)
}

func (s *Session) scheduleQA(ctx context.Context, keys ...string) {
	if s.qa == nil || len(keys) == 0 {
		return
	}
	if err := s.qa.EnqueueQACheck(ctx, keys); err != nil {
		log.Printf("Failed to enqueue QA check for %d entries: %v", len(keys), err)
	}
}
