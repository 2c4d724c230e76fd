package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/potool/potool/internal/entities"
	"github.com/potool/potool/internal/model"
)

// Review metadata lives in side tables of its own and is mutable
// independently of the entry row. None of it participates in
// translation-status filtering.

func entryIDByKey(tx *gorm.DB, key string) (int64, bool, error) {
	var row entities.Entry
	err := tx.Select("id").Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.ID, true, nil
}

// AddReviewComment attaches a review comment to the entry and returns the
// generated comment id. An unknown key returns ("", nil).
func (s *Store) AddReviewComment(key, author, comment string) (string, error) {
	var commentID string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		id, ok, err := entryIDByKey(tx, key)
		if err != nil || !ok {
			return err
		}
		row := entities.ReviewComment{
			EntryID:   id,
			CommentID: uuid.NewString(),
			Author:    author,
			Comment:   comment,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to add review comment for %q: %w", key, err)
		}
		commentID = row.CommentID
		return nil
	})
	return commentID, err
}

// RemoveReviewComment deletes a review comment by its comment id. Returns
// whether a row was removed.
func (s *Store) RemoveReviewComment(key, commentID string) (bool, error) {
	var removed bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		id, ok, err := entryIDByKey(tx, key)
		if err != nil || !ok {
			return err
		}
		res := tx.Where("entry_id = ? AND comment_id = ?", id, commentID).
			Delete(&entities.ReviewComment{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove review comment %q: %w", commentID, res.Error)
		}
		removed = res.RowsAffected > 0
		return nil
	})
	return removed, err
}

// SetQualityScore stores the overall score and replaces all per-category
// scores for the entry. Replacement semantics: categories absent from the
// map are gone after the call.
func (s *Store) SetQualityScore(key string, overall int, categories map[string]int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		id, ok, err := entryIDByKey(tx, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("cannot score unknown entry %q", key)
		}

		var score entities.QualityScore
		err = tx.Where("entry_id = ?", id).First(&score).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			score = entities.QualityScore{EntryID: id, OverallScore: overall}
			if err := tx.Create(&score).Error; err != nil {
				return fmt.Errorf("failed to create quality score for %q: %w", key, err)
			}
		case err != nil:
			return err
		default:
			score.OverallScore = overall
			if err := tx.Omit("CategoryScores").Save(&score).Error; err != nil {
				return fmt.Errorf("failed to update quality score for %q: %w", key, err)
			}
		}

		if err := tx.Where("quality_score_id = ?", score.ID).Delete(&entities.CategoryScore{}).Error; err != nil {
			return fmt.Errorf("failed to replace category scores for %q: %w", key, err)
		}
		if len(categories) == 0 {
			return nil
		}
		rows := make([]entities.CategoryScore, 0, len(categories))
		for category, value := range categories {
			rows = append(rows, entities.CategoryScore{
				QualityScoreID: score.ID,
				Category:       category,
				Score:          value,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert category scores for %q: %w", key, err)
		}
		return nil
	})
}

// AddCheckResult appends a single check result to the entry.
func (s *Store) AddCheckResult(key, code, message string, severity entities.CheckSeverity) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		id, ok, err := entryIDByKey(tx, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("cannot record check result for unknown entry %q", key)
		}
		row := entities.CheckResult{EntryID: id, Code: code, Message: message, Severity: severity}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to add check result for %q: %w", key, err)
		}
		return nil
	})
}

// RemoveCheckResult deletes all check results with the given code from the
// entry. Returns whether anything was removed.
func (s *Store) RemoveCheckResult(key, code string) (bool, error) {
	var removed bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		id, ok, err := entryIDByKey(tx, key)
		if err != nil || !ok {
			return err
		}
		res := tx.Where("entry_id = ? AND code = ?", id, code).Delete(&entities.CheckResult{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove check result %q: %w", code, res.Error)
		}
		removed = res.RowsAffected > 0
		return nil
	})
	return removed, err
}

// ReplaceCheckResults swaps the entry's check results for the given set in
// one transaction. Used by the QA check recomputation.
func (s *Store) ReplaceCheckResults(key string, results []model.CheckResult) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		id, ok, err := entryIDByKey(tx, key)
		if err != nil || !ok {
			return err
		}
		if err := tx.Where("entry_id = ?", id).Delete(&entities.CheckResult{}).Error; err != nil {
			return fmt.Errorf("failed to clear check results for %q: %w", key, err)
		}
		if len(results) == 0 {
			return nil
		}
		rows := make([]entities.CheckResult, 0, len(results))
		for _, r := range results {
			rows = append(rows, entities.CheckResult{
				EntryID:  id,
				Code:     r.Code,
				Message:  r.Message,
				Severity: entities.CheckSeverity(r.Severity),
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert check results for %q: %w", key, err)
		}
		return nil
	})
}

// GetReviewData returns the review metadata attached to the entry, or nil
// when the key is unknown.
func (s *Store) GetReviewData(key string) (*model.ReviewData, error) {
	id, ok, err := entryIDByKey(s.db, key)
	if err != nil || !ok {
		return nil, err
	}
	return s.reviewDataByEntryID(id)
}

func (s *Store) reviewDataByEntryID(entryID int64) (*model.ReviewData, error) {
	data := &model.ReviewData{}

	var comments []entities.ReviewComment
	err := s.db.Where("entry_id = ?", entryID).Order("created_at ASC, id ASC").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		data.Comments = append(data.Comments, model.ReviewComment{
			ID:        c.CommentID,
			Author:    c.Author,
			Comment:   c.Comment,
			CreatedAt: c.CreatedAt,
		})
	}

	var score entities.QualityScore
	err = s.db.Preload("CategoryScores").Where("entry_id = ?", entryID).First(&score).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		qs := &model.QualityScore{Overall: score.OverallScore}
		if len(score.CategoryScores) > 0 {
			qs.Categories = make(map[string]int, len(score.CategoryScores))
			for _, cs := range score.CategoryScores {
				qs.Categories[cs.Category] = cs.Score
			}
		}
		data.QualityScore = qs
	}

	var results []entities.CheckResult
	if err := s.db.Where("entry_id = ?", entryID).Find(&results).Error; err != nil {
		return nil, err
	}
	for _, r := range results {
		data.CheckResults = append(data.CheckResults, model.CheckResult{
			Code:     r.Code,
			Message:  r.Message,
			Severity: string(r.Severity),
		})
	}

	return data, nil
}
