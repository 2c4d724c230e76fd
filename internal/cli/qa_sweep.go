package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/potool/potool/internal/accessor"
	"github.com/potool/potool/internal/config"
	"github.com/potool/potool/internal/database"
	"github.com/potool/potool/internal/tasks"
)

// QASweepCommand runs the automated checks over the whole catalog and stores
// the results. This is the same sweep the background scheduler enqueues, run
// inline so it works without the task queue.
type QASweepCommand struct {
	DatabasePath string
}

func NewQASweepCommand() *QASweepCommand {
	return &QASweepCommand{}
}

func (cmd *QASweepCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("qa-sweep", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s qa-sweep [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run automated quality checks over every entry and store the results.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *QASweepCommand) Run() error {
	store, err := database.Open(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	process := tasks.QASweepProcessor(accessor.New(store))
	if err := process(context.Background(), tasks.QASweepTask{}); err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	return nil
}
