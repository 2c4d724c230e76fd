// Package importers defines the seam between external catalog readers and
// the loader. Each catalog format implements Source; the loader consumes raw
// entries without knowing where they came from.
package importers

// RawEntry is one catalog entry as produced by a source, before the loader
// keys and positions it.
type RawEntry struct {
	Context              string   `json:"context,omitempty"`
	SourceText           string   `json:"source_text"`
	TargetText           string   `json:"target_text"`
	Obsolete             bool     `json:"obsolete,omitempty"`
	Flags                []string `json:"flags,omitempty"`
	References           []string `json:"references,omitempty"`
	Comment              string   `json:"comment,omitempty"`
	TranslatorComment    string   `json:"translator_comment,omitempty"`
	PreviousContext      string   `json:"previous_context,omitempty"`
	PreviousSource       string   `json:"previous_source,omitempty"`
	PreviousSourcePlural string   `json:"previous_source_plural,omitempty"`
}

// Key derives the stable entry key from context and source text. The EOT
// separator keeps "a|b"+"c" and "a"+"b|c" style collisions impossible.
func (e RawEntry) Key() string {
	if e.Context == "" {
		return e.SourceText
	}
	return e.Context + "\x04" + e.SourceText
}

// Source yields raw catalog entries in display order.
type Source interface {
	ReadEntries() ([]RawEntry, error)
}

// SliceSource serves a fixed set of entries; used by tests and programmatic
// loads.
type SliceSource []RawEntry

func (s SliceSource) ReadEntries() ([]RawEntry, error) {
	return s, nil
}
