// Package accessor translates between the domain entity shape and store rows
// and assembles safe dynamic queries. It owns no state of its own; every call
// delegates to the store.
package accessor

import (
	"fmt"

	"github.com/potool/potool/internal/database"
	"github.com/potool/potool/internal/entities"
	"github.com/potool/potool/internal/model"
)

type Accessor struct {
	store *database.Store
}

func New(store *database.Store) *Accessor {
	return &Accessor{store: store}
}

// AdvancedSearch is the canonical filtered read. Empty or whitespace-only
// search text behaves exactly like no search text; exact-match and
// case-sensitive modes combine independently. Review metadata is not
// attached here, so list reads stay cheap.
func (a *Accessor) AdvancedSearch(q model.SearchQuery) ([]*model.Entry, error) {
	rows, err := a.store.GetEntries(q)
	if err != nil {
		return nil, err
	}
	result := make([]*model.Entry, len(rows))
	for i := range rows {
		result[i] = toDomain(&rows[i])
	}
	return result, nil
}

// GetEntryByKey returns the complete entity including review metadata, or
// nil when the key is unknown.
func (a *Accessor) GetEntryByKey(key string) (*model.Entry, error) {
	row, err := a.store.GetEntryByKey(key)
	if err != nil || row == nil {
		return nil, err
	}
	entry := toDomain(row)
	review, err := a.store.GetReviewData(key)
	if err != nil {
		return nil, err
	}
	entry.Review = review
	return entry, nil
}

// GetEntriesByKeys returns the complete entities found for the given keys,
// review metadata included, so batch reads cache in the same shape as point
// reads. Missing keys are omitted from the map, never reported as errors.
func (a *Accessor) GetEntriesByKeys(keys []string) (map[string]*model.Entry, error) {
	rows, err := a.store.GetEntriesByKeys(keys)
	if err != nil {
		return nil, err
	}
	result := make(map[string]*model.Entry, len(rows))
	for i := range rows {
		entry := toDomain(&rows[i])
		review, err := a.store.GetReviewData(entry.Key)
		if err != nil {
			return nil, err
		}
		entry.Review = review
		result[entry.Key] = entry
	}
	return result, nil
}

// GetAllEntriesBasicInfo returns the minimal projection for every entry,
// keyed by entry key. Used to warm the basic-info cache tier.
func (a *Accessor) GetAllEntriesBasicInfo() (map[string]model.BasicInfo, error) {
	infos, err := a.store.GetAllBasicInfo()
	if err != nil {
		return nil, err
	}
	result := make(map[string]model.BasicInfo, len(infos))
	for _, info := range infos {
		result[info.Key] = info
	}
	return result, nil
}

// AddEntriesBulk converts and bulk-inserts entries; the initial load path.
func (a *Accessor) AddEntriesBulk(entries []*model.Entry) error {
	rows := make([]entities.Entry, len(entries))
	for i, e := range entries {
		rows[i] = *toRow(e)
	}
	return a.store.AddEntriesBulk(rows)
}

// UpdateEntry persists the storable fields of the entity and fully replaces
// its reference and flag side tables. Returns whether a row was affected.
func (a *Accessor) UpdateEntry(entry *model.Entry) (bool, error) {
	return a.store.UpdateEntry(toRow(entry))
}

// UpdateEntries applies a batch of updates; the first failure aborts.
func (a *Accessor) UpdateEntries(entries map[string]*model.Entry) error {
	for key, entry := range entries {
		if _, err := a.store.UpdateEntry(toRow(entry)); err != nil {
			return fmt.Errorf("failed to update %q: %w", key, err)
		}
	}
	return nil
}

// ImportEntries upserts entries by key: existing rows are updated in place,
// unknown keys are appended after the current display order. This is the
// merge/import path, distinct from the initial bulk load.
func (a *Accessor) ImportEntries(entries map[string]*model.Entry) error {
	next, err := a.store.CountEntries()
	if err != nil {
		return err
	}
	for key, entry := range entries {
		affected, err := a.store.UpdateEntry(toRow(entry))
		if err != nil {
			return fmt.Errorf("failed to import %q: %w", key, err)
		}
		if affected {
			continue
		}
		row := toRow(entry)
		row.Position = int(next)
		if err := a.store.AddEntry(row); err != nil {
			return fmt.Errorf("failed to import %q: %w", key, err)
		}
		next++
	}
	return nil
}

func (a *Accessor) ClearDatabase() error {
	return a.store.Clear()
}

func (a *Accessor) ReorderEntries(orderedIDs []int64) error {
	return a.store.ReorderEntries(orderedIDs)
}

func (a *Accessor) CountEntries() (int64, error) {
	return a.store.CountEntries()
}

func (a *Accessor) CountsByStatus() (model.Stats, error) {
	return a.store.CountsByStatus()
}

func (a *Accessor) AllFlags() ([]string, error) {
	return a.store.AllFlags()
}

// Review metadata passthroughs; callers above the accessor never see the
// store directly.

func (a *Accessor) AddReviewComment(key, author, comment string) (string, error) {
	return a.store.AddReviewComment(key, author, comment)
}

func (a *Accessor) RemoveReviewComment(key, commentID string) (bool, error) {
	return a.store.RemoveReviewComment(key, commentID)
}

func (a *Accessor) SetQualityScore(key string, overall int, categories map[string]int) error {
	return a.store.SetQualityScore(key, overall, categories)
}

func (a *Accessor) AddCheckResult(key, code, message string, severity entities.CheckSeverity) error {
	return a.store.AddCheckResult(key, code, message, severity)
}

func (a *Accessor) RemoveCheckResult(key, code string) (bool, error) {
	return a.store.RemoveCheckResult(key, code)
}

func (a *Accessor) ReplaceCheckResults(key string, results []model.CheckResult) error {
	return a.store.ReplaceCheckResults(key, results)
}

func (a *Accessor) GetReviewData(key string) (*model.ReviewData, error) {
	return a.store.GetReviewData(key)
}

func toDomain(row *entities.Entry) *model.Entry {
	entry := &model.Entry{
		ID:                   row.ID,
		Key:                  row.Key,
		Context:              row.Context,
		SourceText:           row.SourceText,
		TargetText:           row.TargetText,
		Obsolete:             row.Obsolete,
		Comment:              row.Comment,
		TranslatorComment:    row.TranslatorComment,
		PreviousContext:      row.PreviousContext,
		PreviousSource:       row.PreviousSource,
		PreviousSourcePlural: row.PreviousSourcePlural,
		Position:             row.Position,
	}
	for _, ref := range row.References {
		entry.References = append(entry.References, ref.Reference)
	}
	for _, flag := range row.Flags {
		entry.Flags = append(entry.Flags, flag.Flag)
	}
	return entry
}

// toRow extracts only the fields the store persists; review metadata and the
// derived fuzzy state never travel through this conversion.
func toRow(entry *model.Entry) *entities.Entry {
	row := &entities.Entry{
		Key:                  entry.Key,
		Context:              entry.Context,
		SourceText:           entry.SourceText,
		TargetText:           entry.TargetText,
		Obsolete:             entry.Obsolete,
		Comment:              entry.Comment,
		TranslatorComment:    entry.TranslatorComment,
		PreviousContext:      entry.PreviousContext,
		PreviousSource:       entry.PreviousSource,
		PreviousSourcePlural: entry.PreviousSourcePlural,
		Position:             entry.Position,
	}
	for _, ref := range entry.References {
		row.References = append(row.References, entities.EntryReference{Reference: ref})
	}
	for _, flag := range entry.Flags {
		row.Flags = append(row.Flags, entities.EntryFlag{Flag: flag})
	}
	return row
}
