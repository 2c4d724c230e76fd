package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/potool/potool/internal/catalog"
	"github.com/potool/potool/internal/config"
)

// StatsCommand prints translation progress for the catalog.
type StatsCommand struct {
	DatabasePath string
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print translation progress and flag usage for the catalog.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	session, err := catalog.Open(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer session.Close()

	stats, err := session.Stats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Printf("Catalog: %s\n", cmd.DatabasePath)
	fmt.Printf("  total:        %d\n", stats.Total)
	fmt.Printf("  translated:   %d\n", stats.Translated)
	fmt.Printf("  fuzzy:        %d\n", stats.Fuzzy)
	fmt.Printf("  untranslated: %d\n", stats.Untranslated)
	if stats.Total > 0 {
		fmt.Printf("  progress:     %.1f%%\n", float64(stats.Translated)*100/float64(stats.Total))
	}

	flags, err := session.AllFlags()
	if err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}
	if len(flags) > 0 {
		fmt.Printf("  flags:        %s\n", strings.Join(flags, ", "))
	}
	return nil
}
