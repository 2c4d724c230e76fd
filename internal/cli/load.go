package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/potool/potool/internal/catalog"
	"github.com/potool/potool/internal/config"
	"github.com/potool/potool/internal/importers"
)

// LoadCommand replaces the catalog database contents with entries read from
// a JSONL export.
type LoadCommand struct {
	FilePath     string
	DatabasePath string
}

func NewLoadCommand() *LoadCommand {
	return &LoadCommand{}
}

func (cmd *LoadCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the JSONL catalog export (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s load -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Load a catalog export into the database, replacing existing contents.\n")
		fmt.Fprintf(os.Stderr, "Each line of the file is one JSON entry object.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *LoadCommand) Run() error {
	if _, err := os.Stat(cmd.FilePath); os.IsNotExist(err) {
		return fmt.Errorf("catalog file not found: %s", cmd.FilePath)
	}

	session, err := catalog.Open(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer session.Close()

	count, err := session.Load(context.Background(), importers.NewJSONLSource(cmd.FilePath))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	stats, err := session.Stats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Printf("Loaded %d entries into %s\n", count, cmd.DatabasePath)
	fmt.Printf("  translated:   %d\n", stats.Translated)
	fmt.Printf("  fuzzy:        %d\n", stats.Fuzzy)
	fmt.Printf("  untranslated: %d\n", stats.Untranslated)
	return nil
}
