// Package checks runs automated quality checks against catalog entries.
// Each check inspects one entry and reports zero or more findings; the
// findings replace the entry's stored check results wholesale, so a clean
// run clears earlier findings.
package checks

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/potool/potool/internal/model"
)

// Check codes, stored with each finding so later runs can replace them.
const (
	CodeEmptyTarget         = "empty-target"
	CodePlaceholderMismatch = "placeholder-mismatch"
	CodeLeadingWhitespace   = "leading-whitespace"
	CodeTrailingWhitespace  = "trailing-whitespace"
	CodeTrailingNewline     = "trailing-newline"
)

// printf-style conversion specifiers, including python-style named ones
// like %(count)d which appear in gettext catalogs.
var placeholderRe = regexp.MustCompile(`%(?:\(\w+\))?[-+ #0]*\d*(?:\.\d+)?[sdifgeEGxXoc%]`)

// Run executes every check against the entry and returns the findings.
// Untranslated and obsolete entries are skipped: flagging an empty target
// on an entry nobody translated yet is noise.
func Run(entry *model.Entry) []model.CheckResult {
	if entry == nil || entry.Obsolete {
		return nil
	}
	if entry.TargetText == "" {
		// An empty target on a fuzzy entry means a translation was lost
		// during a merge; a plain empty target is just untranslated.
		if entry.Fuzzy() {
			return []model.CheckResult{{
				Code:     CodeEmptyTarget,
				Message:  "Fuzzy entry has no translation",
				Severity: "warning",
			}}
		}
		return nil
	}

	var results []model.CheckResult
	results = append(results, checkPlaceholders(entry)...)
	results = append(results, checkWhitespace(entry)...)
	return results
}

// checkPlaceholders verifies that the target carries the same printf
// placeholders as the source. Order is not compared; named placeholders
// may legitimately be reordered across languages.
func checkPlaceholders(entry *model.Entry) []model.CheckResult {
	source := placeholderCounts(entry.SourceText)
	target := placeholderCounts(entry.TargetText)

	var missing, extra []string
	for ph, n := range source {
		if target[ph] < n {
			missing = append(missing, ph)
		}
	}
	for ph, n := range target {
		if source[ph] < n {
			extra = append(extra, ph)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %s", strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected %s", strings.Join(extra, ", ")))
	}
	return []model.CheckResult{{
		Code:     CodePlaceholderMismatch,
		Message:  "Placeholder mismatch: " + strings.Join(parts, "; "),
		Severity: "error",
	}}
}

func placeholderCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, ph := range placeholderRe.FindAllString(text, -1) {
		if ph == "%%" {
			continue
		}
		counts[ph]++
	}
	return counts
}

// checkWhitespace flags leading/trailing whitespace drift between source
// and target. Translators routinely lose a trailing newline or pick up a
// stray leading space when editing.
func checkWhitespace(entry *model.Entry) []model.CheckResult {
	var results []model.CheckResult

	if leadingSpace(entry.SourceText) != leadingSpace(entry.TargetText) {
		results = append(results, model.CheckResult{
			Code:     CodeLeadingWhitespace,
			Message:  "Leading whitespace differs between source and translation",
			Severity: "warning",
		})
	}

	srcNL := strings.HasSuffix(entry.SourceText, "\n")
	tgtNL := strings.HasSuffix(entry.TargetText, "\n")
	if srcNL != tgtNL {
		results = append(results, model.CheckResult{
			Code:     CodeTrailingNewline,
			Message:  "Trailing newline differs between source and translation",
			Severity: "warning",
		})
	} else if trailingSpace(entry.SourceText) != trailingSpace(entry.TargetText) {
		results = append(results, model.CheckResult{
			Code:     CodeTrailingWhitespace,
			Message:  "Trailing whitespace differs between source and translation",
			Severity: "warning",
		})
	}

	return results
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeftFunc(s, unicode.IsSpace))]
}

func trailingSpace(s string) string {
	trimmed := strings.TrimRight(s, " \t")
	return s[len(trimmed):]
}
