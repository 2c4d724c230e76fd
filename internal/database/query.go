package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/potool/potool/internal/entities"
	"github.com/potool/potool/internal/model"
)

// allowedSortColumns maps caller-facing sort names to the SQL expressions
// they are permitted to interpolate. Anything outside this table falls back
// to the default order instead of reaching the query text.
var allowedSortColumns = map[string]string{
	"position":    "COALESCE(display_order.position, 0)",
	"key":         "entries.key",
	"source_text": "entries.source_text",
	"target_text": "entries.target_text",
	"context":     "entries.context",
	"id":          "entries.id",
	"updated_at":  "entries.updated_at",
}

const defaultOrder = "COALESCE(display_order.position, 0) ASC"

// GetEntries runs the dynamic filtered read described by q. All caller input
// is either bound as a parameter or validated against an allow-list before it
// reaches the statement.
func (s *Store) GetEntries(q model.SearchQuery) ([]entities.Entry, error) {
	tx := s.entryQuery()

	tx = applyFlagConditions(tx, q)
	tx = applyTranslationStatus(tx, q.TranslationStatus)
	tx = applySearchText(tx, q)

	tx = tx.Order(orderClause(q.SortColumn, q.SortOrder))
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var rows []entities.Entry
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("filtered query failed: %w", err)
	}
	return rows, nil
}

func applyFlagConditions(tx *gorm.DB, q model.SearchQuery) *gorm.DB {
	if len(q.IncludeFlags) > 0 {
		tx = tx.Where(
			`entries.id IN (
				SELECT entry_id FROM entry_flags
				WHERE flag IN ?
				GROUP BY entry_id
				HAVING COUNT(DISTINCT flag) = ?
			)`, q.IncludeFlags, len(q.IncludeFlags))
	}
	if len(q.ExcludeFlags) > 0 {
		tx = tx.Where("entries.id NOT IN (SELECT entry_id FROM entry_flags WHERE flag IN ?)", q.ExcludeFlags)
	}
	if q.OnlyFuzzy {
		tx = tx.Where(fuzzyExistsSQL, model.FuzzyFlag)
	}
	if q.ObsoleteOnly {
		tx = tx.Where("entries.obsolete = ?", true)
	}
	return tx
}

func applyTranslationStatus(tx *gorm.DB, status model.TranslationStatus) *gorm.DB {
	switch status {
	case model.StatusTranslated:
		return tx.Where("entries.target_text != '' AND NOT "+fuzzyExistsSQL, model.FuzzyFlag)
	case model.StatusUntranslated:
		return tx.Where("entries.target_text = '' AND NOT "+fuzzyExistsSQL, model.FuzzyFlag)
	case model.StatusFuzzy:
		return tx.Where(fuzzyExistsSQL, model.FuzzyFlag)
	case model.StatusObsolete:
		return tx.Where("entries.obsolete = ?", true)
	default:
		// StatusAll and the zero value filter nothing.
		return tx
	}
}

// applySearchText adds the keyword condition: one clause per requested field,
// OR-ed together. ExactMatch switches substring matching to whole-field
// equality; CaseSensitive switches case-folded comparison to literal. The two
// combine independently.
func applySearchText(tx *gorm.DB, q model.SearchQuery) *gorm.DB {
	text := q.EffectiveSearchText()
	if text == "" {
		return tx
	}

	var (
		clauses []string
		params  []any
	)
	for _, field := range q.EffectiveSearchFields() {
		switch field {
		case model.FieldSource, model.FieldTarget:
			cond, args := fieldCondition("entries."+field, text, q.ExactMatch, q.CaseSensitive)
			clauses = append(clauses, cond)
			params = append(params, args...)
		case model.FieldReference:
			cond, args := fieldCondition("entry_references.reference", text, q.ExactMatch, q.CaseSensitive)
			clauses = append(clauses,
				"EXISTS (SELECT 1 FROM entry_references WHERE entry_references.entry_id = entries.id AND "+cond+")")
			params = append(params, args...)
		default:
			log.Printf("Ignoring unknown search field %q", field)
		}
	}
	if len(clauses) == 0 {
		return tx
	}
	return tx.Where("("+strings.Join(clauses, " OR ")+")", params...)
}

func fieldCondition(column, text string, exactMatch, caseSensitive bool) (string, []any) {
	switch {
	case exactMatch && caseSensitive:
		return column + " = ?", []any{text}
	case exactMatch:
		return "LOWER(" + column + ") = LOWER(?)", []any{text}
	case caseSensitive:
		// SQLite LIKE folds ASCII case; instr compares bytes literally.
		return "instr(" + column + ", ?) > 0", []any{text}
	default:
		return "LOWER(" + column + ") LIKE LOWER(?)", []any{"%" + text + "%"}
	}
}

// orderClause validates the requested sort against the allow-list and falls
// back to position ascending on anything unrecognized. An unsupported sort
// must never prevent data from being shown, so this degrades instead of
// failing.
func orderClause(column, direction string) string {
	if column == "" {
		return defaultOrder
	}

	expr, ok := allowedSortColumns[column]
	if !ok {
		log.Printf("Rejected sort column %q, using default order", column)
		return defaultOrder
	}

	dir := strings.ToUpper(direction)
	if dir == "" {
		dir = "ASC"
	}
	if dir != "ASC" && dir != "DESC" {
		log.Printf("Rejected sort order %q, using default order", direction)
		return defaultOrder
	}
	return expr + " " + dir
}
