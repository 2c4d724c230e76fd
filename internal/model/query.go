package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Searchable fields accepted by SearchQuery.SearchFields.
const (
	FieldSource    = "source_text"
	FieldTarget    = "target_text"
	FieldReference = "reference"
)

// SearchQuery carries every parameter of a filtered read. The zero value
// means "all entries, default order".
type SearchQuery struct {
	SearchText   string
	SearchFields []string // defaults to source and target text

	SortColumn string
	SortOrder  string

	IncludeFlags []string
	ExcludeFlags []string
	OnlyFuzzy    bool
	ObsoleteOnly bool

	TranslationStatus TranslationStatus

	ExactMatch    bool
	CaseSensitive bool

	Limit  int
	Offset int
}

// EffectiveSearchText trims the search text; whitespace-only input is
// identical to no search text at all.
func (q SearchQuery) EffectiveSearchText() string {
	return strings.TrimSpace(q.SearchText)
}

// EffectiveSearchFields returns the requested search fields, defaulting to
// source and target text.
func (q SearchQuery) EffectiveSearchFields() []string {
	if len(q.SearchFields) == 0 {
		return []string{FieldSource, FieldTarget}
	}
	return q.SearchFields
}

// Signature returns a deterministic string encoding of the full parameter
// set, used as the filtered-result cache key.
func (q SearchQuery) Signature() string {
	var b strings.Builder
	fmt.Fprintf(&b, "text=%q;fields=%s;sort=%s %s;",
		q.EffectiveSearchText(),
		strings.Join(q.EffectiveSearchFields(), ","),
		q.SortColumn, q.SortOrder)
	fmt.Fprintf(&b, "include=%s;exclude=%s;fuzzy=%t;obsolete=%t;status=%s;",
		strings.Join(q.IncludeFlags, ","),
		strings.Join(q.ExcludeFlags, ","),
		q.OnlyFuzzy, q.ObsoleteOnly, q.TranslationStatus)
	fmt.Fprintf(&b, "exact=%t;case=%t;limit=%d;offset=%d",
		q.ExactMatch, q.CaseSensitive, q.Limit, q.Offset)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
