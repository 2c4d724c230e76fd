package model

import (
	"slices"
	"time"
)

// FuzzyFlag marks an entry as machine-suggested and needing human review.
// Fuzziness is always derived from the flag set, never stored on its own.
const FuzzyFlag = "fuzzy"

type TranslationStatus string

const (
	StatusAll          TranslationStatus = "all"
	StatusTranslated   TranslationStatus = "translated"
	StatusUntranslated TranslationStatus = "untranslated"
	StatusFuzzy        TranslationStatus = "fuzzy"
	StatusObsolete     TranslationStatus = "obsolete"
)

// Entry is the domain view of one catalog entry. Key is the only stable
// cross-layer identifier; ID is assigned by the store on insert and stays
// internal to the storage layer.
type Entry struct {
	ID                   int64
	Key                  string
	Context              string
	SourceText           string
	TargetText           string
	Obsolete             bool
	Flags                []string
	References           []string
	Comment              string
	TranslatorComment    string
	PreviousContext      string
	PreviousSource       string
	PreviousSourcePlural string
	Position             int
	Review               *ReviewData
}

// Fuzzy reports whether the flag set contains the fuzzy marker.
func (e *Entry) Fuzzy() bool {
	return e.HasFlag(FuzzyFlag)
}

// SetFuzzy adds or removes the fuzzy marker from the flag set.
func (e *Entry) SetFuzzy(fuzzy bool) {
	if fuzzy == e.Fuzzy() {
		return
	}
	if fuzzy {
		e.Flags = append(e.Flags, FuzzyFlag)
		return
	}
	e.Flags = slices.DeleteFunc(e.Flags, func(f string) bool {
		return f == FuzzyFlag
	})
}

func (e *Entry) HasFlag(flag string) bool {
	return slices.Contains(e.Flags, flag)
}

// Translated reports whether the entry counts as translated: a non-empty
// target and no fuzzy marker.
func (e *Entry) Translated() bool {
	return e.TargetText != "" && !e.Fuzzy()
}

// BasicInfo is the minimal projection used for list rendering.
type BasicInfo struct {
	Key        string
	SourceText string
	TargetText string
	Fuzzy      bool
	Obsolete   bool
	Position   int
}

// ReviewData bundles the optional review metadata attached to an entry.
type ReviewData struct {
	Comments     []ReviewComment
	QualityScore *QualityScore
	CheckResults []CheckResult
}

type ReviewComment struct {
	ID        string
	Author    string
	Comment   string
	CreatedAt time.Time
}

type QualityScore struct {
	Overall    int
	Categories map[string]int
}

type CheckResult struct {
	Code     string
	Message  string
	Severity string
}

// Stats summarizes the catalog by translation status.
type Stats struct {
	Total        int64
	Translated   int64
	Fuzzy        int64
	Untranslated int64
}
