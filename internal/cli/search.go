package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/potool/potool/internal/catalog"
	"github.com/potool/potool/internal/config"
	"github.com/potool/potool/internal/model"
)

// SearchCommand runs a filtered search over the catalog and prints the
// matching entries.
type SearchCommand struct {
	DatabasePath  string
	Text          string
	Fields        string
	Status        string
	SortColumn    string
	SortOrder     string
	ExactMatch    bool
	CaseSensitive bool
	OnlyFuzzy     bool
	ObsoleteOnly  bool
	Limit         int
	Offset        int
}

func NewSearchCommand() *SearchCommand {
	return &SearchCommand{}
}

func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database file")
	fs.StringVar(&cmd.Text, "text", "", "Text to search for")
	fs.StringVar(&cmd.Fields, "fields", "", "Comma-separated fields to search (source_text, target_text, reference)")
	fs.StringVar(&cmd.Status, "status", "all", "Translation status filter: all, translated, untranslated, fuzzy, obsolete")
	fs.StringVar(&cmd.SortColumn, "sort", "", "Sort column (position, key, source_text, target_text, context, id, updated_at)")
	fs.StringVar(&cmd.SortOrder, "order", "ASC", "Sort order: ASC or DESC")
	fs.BoolVar(&cmd.ExactMatch, "exact", false, "Match the whole field instead of a substring")
	fs.BoolVar(&cmd.CaseSensitive, "case", false, "Match case-sensitively")
	fs.BoolVar(&cmd.OnlyFuzzy, "fuzzy", false, "Only entries carrying the fuzzy flag")
	fs.BoolVar(&cmd.ObsoleteOnly, "obsolete", false, "Only obsolete entries")
	fs.IntVar(&cmd.Limit, "limit", 50, "Maximum number of results (0 = no limit)")
	fs.IntVar(&cmd.Offset, "offset", 0, "Number of results to skip")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s search [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search the catalog and print matching entries in display order.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SearchCommand) query() (model.SearchQuery, error) {
	q := model.SearchQuery{
		SearchText:    cmd.Text,
		SortColumn:    cmd.SortColumn,
		SortOrder:     cmd.SortOrder,
		ExactMatch:    cmd.ExactMatch,
		CaseSensitive: cmd.CaseSensitive,
		OnlyFuzzy:     cmd.OnlyFuzzy,
		ObsoleteOnly:  cmd.ObsoleteOnly,
		Limit:         cmd.Limit,
		Offset:        cmd.Offset,
	}

	if cmd.Fields != "" {
		for _, f := range strings.Split(cmd.Fields, ",") {
			q.SearchFields = append(q.SearchFields, strings.TrimSpace(f))
		}
	}

	switch cmd.Status {
	case "all", "":
		q.TranslationStatus = model.StatusAll
	case "translated":
		q.TranslationStatus = model.StatusTranslated
	case "untranslated":
		q.TranslationStatus = model.StatusUntranslated
	case "fuzzy":
		q.TranslationStatus = model.StatusFuzzy
	case "obsolete":
		q.TranslationStatus = model.StatusObsolete
	default:
		return q, fmt.Errorf("unknown status %q", cmd.Status)
	}

	return q, nil
}

func (cmd *SearchCommand) Run() error {
	q, err := cmd.query()
	if err != nil {
		return err
	}

	session, err := catalog.Open(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer session.Close()

	entries, err := session.GetFilteredEntries(q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, entry := range entries {
		marker := " "
		switch {
		case entry.Obsolete:
			marker = "#"
		case entry.Fuzzy():
			marker = "~"
		case entry.TargetText == "":
			marker = "!"
		}
		fmt.Printf("%s %6d  %-40s  %s\n", marker, entry.Position, truncate(entry.Key, 40), truncate(entry.TargetText, 60))
	}
	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
