package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/specdeck/specdeck/config"
	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/logger"
	"github.com/specdeck/specdeck/spec/watcher"
)

// WatchCmd watches a directory and re-ingests specs on change.
var WatchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and re-ingest specs on change",
	Long: `Watch a directory (the configured base_dir by default) for spec file
changes. The directory is fully ingested once on startup; afterwards every
create or modify of a supported file triggers re-ingestion of that file, and
removals are logged as notices. Stored specs are never deleted automatically.

Runs until interrupted (Ctrl-C).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var watchDatabaseFlag string

func init() {
	WatchCmd.Flags().StringVar(&watchDatabaseFlag, "db", "", "Database path (defaults to configuration)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	dir := cfg.BaseDir
	if len(args) == 1 {
		dir = args[0]
	}

	database, err := openDatabase(watchDatabaseFlag)
	if err != nil {
		return err
	}
	defer closeDatabase()

	ing := newIngestor(cfg, database)
	ctx := context.Background()

	// Initial sweep so the store reflects the directory before watching
	results, err := ing.IngestDirectory(ctx, dir)
	if err != nil {
		return err
	}
	var succeeded int
	for _, result := range results {
		printResult(result)
		if result.Success {
			succeeded++
		}
	}
	pterm.Info.Printf("Initial sweep: %d/%d specs ingested from %s\n", succeeded, len(results), dir)

	w, err := watcher.New(watcher.Config{
		Debounce:             time.Duration(cfg.Watcher.DebounceMs) * time.Millisecond,
		MaxTriggersPerMinute: cfg.Watcher.MaxTriggersPerMinute,
		OnChange: func(path string) {
			printResult(ing.IngestFile(ctx, path))
		},
		OnRemove: func(path string) {
			// Notice only; the stored spec stays until removed explicitly
			logger.Infow("Spec file removed from watched directory",
				"path", path,
				"hint", "use 'specdeck db rm <name>' to drop the stored spec")
			pterm.Warning.Printf("%s removed (stored spec kept)\n", path)
		},
	}, logger.Logger)
	if err != nil {
		return err
	}

	if err := w.Start(dir); err != nil {
		return err
	}
	defer w.Stop()

	pterm.Success.Printf("Watching %s (debounce %dms). Ctrl-C to stop.\n", dir, cfg.Watcher.DebounceMs)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	pterm.Println()
	pterm.Info.Println("Stopping watcher")
	return w.Stop()
}
