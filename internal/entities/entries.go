package entities

import (
	"time"
)

type CheckSeverity string

const (
	SeverityError   CheckSeverity = "error"
	SeverityWarning CheckSeverity = "warning"
	SeverityInfo    CheckSeverity = "info"
)

// Entry is one catalog entry. The unique Key is the only identifier that
// crosses layer boundaries; ID is internal to the store.
type Entry struct {
	ID                   int64  `gorm:"primaryKey" json:"id"`
	Key                  string `gorm:"uniqueIndex;size:512;not null" json:"key"`
	Context              string `gorm:"size:512" json:"context,omitempty"`
	SourceText           string `gorm:"type:text;index;not null" json:"source_text"`
	TargetText           string `gorm:"type:text;not null" json:"target_text"`
	Obsolete             bool   `gorm:"default:false" json:"obsolete"`
	PreviousContext      string `gorm:"size:512" json:"previous_context,omitempty"`
	PreviousSource       string `gorm:"type:text" json:"previous_source,omitempty"`
	PreviousSourcePlural string `gorm:"type:text" json:"previous_source_plural,omitempty"`
	Comment              string `gorm:"type:text" json:"comment,omitempty"`
	TranslatorComment    string `gorm:"type:text" json:"translator_comment,omitempty"`

	References []EntryReference `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"references,omitempty"`
	Flags      []EntryFlag      `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"flags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated from display_order by joined reads; never migrated or written.
	Position int `gorm:"->;-:migration" json:"position"`
}

type EntryReference struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	EntryID   int64  `gorm:"index;not null" json:"entry_id"`
	Reference string `gorm:"size:1024;not null" json:"reference"`
}

type EntryFlag struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	EntryID int64  `gorm:"index;not null" json:"entry_id"`
	Flag    string `gorm:"size:100;not null" json:"flag"`
}

// DisplayOrder holds the dense, zero-based display position of each entry.
// Reordering rewrites the whole table atomically.
type DisplayOrder struct {
	ID       int64 `gorm:"primaryKey" json:"id"`
	EntryID  int64 `gorm:"index;not null" json:"entry_id"`
	Position int   `gorm:"index;not null" json:"position"`
}

// ReviewComment is a human review note attached to an entry. CommentID is the
// stable identifier handed to callers; ID stays internal.
type ReviewComment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	EntryID   int64     `gorm:"index;not null" json:"entry_id"`
	CommentID string    `gorm:"uniqueIndex;size:36;not null" json:"comment_id"`
	Author    string    `gorm:"size:256" json:"author,omitempty"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type QualityScore struct {
	ID             int64           `gorm:"primaryKey" json:"id"`
	EntryID        int64           `gorm:"uniqueIndex;not null" json:"entry_id"`
	OverallScore   int             `json:"overall_score"`
	CategoryScores []CategoryScore `gorm:"foreignKey:QualityScoreID;constraint:OnDelete:CASCADE" json:"category_scores,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CategoryScore struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	QualityScoreID int64  `gorm:"index;not null" json:"quality_score_id"`
	Category       string `gorm:"size:100;not null" json:"category"`
	Score          int    `json:"score"`
}

type CheckResult struct {
	ID        int64         `gorm:"primaryKey" json:"id"`
	EntryID   int64         `gorm:"index;not null" json:"entry_id"`
	Code      string        `gorm:"size:64;not null" json:"code"`
	Message   string        `gorm:"type:text" json:"message,omitempty"`
	Severity  CheckSeverity `gorm:"size:20;default:'warning'" json:"severity"`
	CreatedAt time.Time     `json:"created_at"`
}

func (Entry) TableName() string {
	return "entries"
}

func (EntryReference) TableName() string {
	return "entry_references"
}

func (EntryFlag) TableName() string {
	return "entry_flags"
}

func (DisplayOrder) TableName() string {
	return "display_order"
}

func (ReviewComment) TableName() string {
	return "review_comments"
}

func (QualityScore) TableName() string {
	return "quality_scores"
}

func (CategoryScore) TableName() string {
	return "category_scores"
}

func (CheckResult) TableName() string {
	return "check_results"
}
