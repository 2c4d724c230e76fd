package database

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/potool/potool/internal/entities"
	"github.com/potool/potool/internal/model"
)

// insertBatchSize bounds the number of bound variables per statement; SQLite
// rejects statements with too many parameters.
const insertBatchSize = 500

const fuzzyExistsSQL = "EXISTS (SELECT 1 FROM entry_flags WHERE entry_flags.entry_id = entries.id AND entry_flags.flag = ?)"

// AddEntry inserts a single entry together with its reference and flag rows
// and its display-order row, all in one transaction. A duplicate key fails
// the whole operation.
func (s *Store) AddEntry(row *entities.Entry) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to insert entry %q: %w", row.Key, err)
		}
		order := entities.DisplayOrder{EntryID: row.ID, Position: row.Position}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to insert display order for %q: %w", row.Key, err)
		}
		return nil
	})
}

// AddEntriesBulk inserts many entries plus their side-table rows in a single
// transaction. The inserted ids are resolved by re-querying on key after the
// insert; a batch insert returns no id list the store can rely on.
func (s *Store) AddEntriesBulk(rows []entities.Entry) error {
	if len(rows) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("References", "Flags").CreateInBatches(&rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to bulk insert %d entries: %w", len(rows), err)
		}

		keys := make([]string, len(rows))
		for i := range rows {
			keys[i] = rows[i].Key
		}
		idByKey, err := entryIDsByKey(tx, keys)
		if err != nil {
			return err
		}

		var (
			refs   []entities.EntryReference
			flags  []entities.EntryFlag
			orders []entities.DisplayOrder
		)
		for i := range rows {
			id, ok := idByKey[rows[i].Key]
			if !ok {
				return fmt.Errorf("inserted entry %q not found on id resolution", rows[i].Key)
			}
			for _, ref := range rows[i].References {
				refs = append(refs, entities.EntryReference{EntryID: id, Reference: ref.Reference})
			}
			for _, flag := range rows[i].Flags {
				flags = append(flags, entities.EntryFlag{EntryID: id, Flag: flag.Flag})
			}
			orders = append(orders, entities.DisplayOrder{EntryID: id, Position: rows[i].Position})
		}

		if len(refs) > 0 {
			if err := tx.CreateInBatches(&refs, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert references: %w", err)
			}
		}
		if len(flags) > 0 {
			if err := tx.CreateInBatches(&flags, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert flags: %w", err)
			}
		}
		if err := tx.CreateInBatches(&orders, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert display order: %w", err)
		}
		return nil
	})
}

func entryIDsByKey(tx *gorm.DB, keys []string) (map[string]int64, error) {
	type idKey struct {
		ID  int64
		Key string
	}

	idByKey := make(map[string]int64, len(keys))
	for start := 0; start < len(keys); start += insertBatchSize {
		end := min(start+insertBatchSize, len(keys))

		var pairs []idKey
		err := tx.Model(&entities.Entry{}).
			Select("id", "key").
			Where("key IN ?", keys[start:end]).
			Find(&pairs).Error
		if err != nil {
			return nil, fmt.Errorf("failed to resolve entry ids: %w", err)
		}
		for _, p := range pairs {
			idByKey[p.Key] = p.ID
		}
	}
	return idByKey, nil
}

// GetEntryByKey returns the entry with the given key, joined with its display
// position and preloaded side tables. A missing key returns (nil, nil).
func (s *Store) GetEntryByKey(key string) (*entities.Entry, error) {
	var row entities.Entry
	err := s.entryQuery().Where("entries.key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetEntriesByKeys returns the entries matching the given keys; missing keys
// are silently omitted.
func (s *Store) GetEntriesByKeys(keys []string) ([]entities.Entry, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	var rows []entities.Entry
	for start := 0; start < len(keys); start += insertBatchSize {
		end := min(start+insertBatchSize, len(keys))

		var batch []entities.Entry
		err := s.entryQuery().Where("entries.key IN ?", keys[start:end]).Find(&batch).Error
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}

func (s *Store) entryQuery() *gorm.DB {
	return s.db.Model(&entities.Entry{}).
		Select("entries.*, COALESCE(display_order.position, 0) AS position").
		Joins("LEFT JOIN display_order ON display_order.entry_id = entries.id").
		Preload("References").
		Preload("Flags")
}

// UpdateEntry updates the entry row identified by row.Key and fully replaces
// its reference and flag side tables. Replacement is delete-then-reinsert,
// not a diff: after the call the side tables reflect exactly the given lists.
// Returns whether a row was affected; an unknown key is not an error.
func (s *Store) UpdateEntry(row *entities.Entry) (bool, error) {
	var affected bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.Entry
		if err := tx.Where("key = ?", row.Key).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		existing.Context = row.Context
		existing.SourceText = row.SourceText
		existing.TargetText = row.TargetText
		existing.Obsolete = row.Obsolete
		existing.PreviousContext = row.PreviousContext
		existing.PreviousSource = row.PreviousSource
		existing.PreviousSourcePlural = row.PreviousSourcePlural
		existing.Comment = row.Comment
		existing.TranslatorComment = row.TranslatorComment

		res := tx.Omit("References", "Flags").Save(&existing)
		if res.Error != nil {
			return fmt.Errorf("failed to update entry %q: %w", row.Key, res.Error)
		}
		affected = res.RowsAffected > 0

		if err := tx.Where("entry_id = ?", existing.ID).Delete(&entities.EntryReference{}).Error; err != nil {
			return fmt.Errorf("failed to replace references for %q: %w", row.Key, err)
		}
		if len(row.References) > 0 {
			refs := make([]entities.EntryReference, 0, len(row.References))
			for _, ref := range row.References {
				refs = append(refs, entities.EntryReference{EntryID: existing.ID, Reference: ref.Reference})
			}
			if err := tx.Create(&refs).Error; err != nil {
				return fmt.Errorf("failed to replace references for %q: %w", row.Key, err)
			}
		}

		if err := tx.Where("entry_id = ?", existing.ID).Delete(&entities.EntryFlag{}).Error; err != nil {
			return fmt.Errorf("failed to replace flags for %q: %w", row.Key, err)
		}
		if len(row.Flags) > 0 {
			flags := make([]entities.EntryFlag, 0, len(row.Flags))
			for _, flag := range row.Flags {
				flags = append(flags, entities.EntryFlag{EntryID: existing.ID, Flag: flag.Flag})
			}
			if err := tx.Create(&flags).Error; err != nil {
				return fmt.Errorf("failed to replace flags for %q: %w", row.Key, err)
			}
		}

		err := tx.Model(&entities.DisplayOrder{}).
			Where("entry_id = ?", existing.ID).
			Update("position", row.Position).Error
		if err != nil {
			return fmt.Errorf("failed to update display order for %q: %w", row.Key, err)
		}
		return nil
	})
	return affected, err
}

// ReorderEntries atomically replaces the whole display_order table with the
// given id order; positions are assigned densely from zero. FK enforcement is
// relaxed for the duration of the rewrite and restored afterwards.
func (s *Store) ReorderEntries(orderedIDs []int64) error {
	if err := s.db.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
		return fmt.Errorf("failed to relax foreign keys: %w", err)
	}
	defer func() {
		if err := s.db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			log.Printf("Failed to restore foreign key enforcement: %v", err)
		}
	}()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM display_order").Error; err != nil {
			return fmt.Errorf("failed to clear display order: %w", err)
		}
		orders := make([]entities.DisplayOrder, len(orderedIDs))
		for i, id := range orderedIDs {
			orders[i] = entities.DisplayOrder{EntryID: id, Position: i}
		}
		if len(orders) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&orders, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to rewrite display order: %w", err)
		}
		return nil
	})
}

// GetAllBasicInfo returns the minimal list-rendering projection for every
// entry without touching references, comments or review tables.
func (s *Store) GetAllBasicInfo() ([]model.BasicInfo, error) {
	var infos []model.BasicInfo
	err := s.db.Model(&entities.Entry{}).
		Select("entries.key AS key, entries.source_text AS source_text, "+
			"entries.target_text AS target_text, entries.obsolete AS obsolete, "+
			fuzzyExistsSQL+" AS fuzzy, "+
			"COALESCE(display_order.position, 0) AS position", model.FuzzyFlag).
		Joins("LEFT JOIN display_order ON display_order.entry_id = entries.id").
		Order("COALESCE(display_order.position, 0) ASC").
		Scan(&infos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load basic info: %w", err)
	}
	return infos, nil
}

// CountEntries returns the total number of entries.
func (s *Store) CountEntries() (int64, error) {
	var count int64
	err := s.db.Model(&entities.Entry{}).Count(&count).Error
	return count, err
}

// CountsByStatus returns entry counts broken down by translation status.
func (s *Store) CountsByStatus() (model.Stats, error) {
	var stats model.Stats
	if err := s.db.Model(&entities.Entry{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	err := s.db.Model(&entities.Entry{}).
		Where(fuzzyExistsSQL, model.FuzzyFlag).
		Count(&stats.Fuzzy).Error
	if err != nil {
		return stats, err
	}
	err = s.db.Model(&entities.Entry{}).
		Where("target_text != '' AND NOT "+fuzzyExistsSQL, model.FuzzyFlag).
		Count(&stats.Translated).Error
	if err != nil {
		return stats, err
	}
	err = s.db.Model(&entities.Entry{}).
		Where("target_text = '' AND NOT "+fuzzyExistsSQL, model.FuzzyFlag).
		Count(&stats.Untranslated).Error
	return stats, err
}

// AllFlags returns the distinct set of flags present in the store.
func (s *Store) AllFlags() ([]string, error) {
	var flags []string
	err := s.db.Model(&entities.EntryFlag{}).Distinct().Pluck("flag", &flags).Error
	return flags, err
}
