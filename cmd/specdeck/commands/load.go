package commands

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/specdeck/specdeck/config"
	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/logger"
	"github.com/specdeck/specdeck/spec/ingest"
	"github.com/specdeck/specdeck/spec/loader"
	"github.com/specdeck/specdeck/spec/storage"
)

// LoadCmd ingests a spec source.
var LoadCmd = &cobra.Command{
	Use:   "load <file|url|directory>",
	Short: "Ingest an OpenAPI/Swagger spec from a file, URL, or directory",
	Long: `Ingest a spec source into the normalized store.

The source kind is detected automatically: http(s) URLs are fetched, existing
directories are scanned (immediate entries only), anything else is treated as
a file path.

Examples:
  specdeck load ./specs/petstore.yaml
  specdeck load https://petstore3.swagger.io/api/v3/openapi.json
  specdeck load ./specs --skip-invalid`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

var (
	loadSkipInvalidFlag bool
	loadNoValidateFlag  bool
	loadDatabaseFlag    string
)

func init() {
	LoadCmd.Flags().BoolVar(&loadSkipInvalidFlag, "skip-invalid", false, "Do not store specs that fail validation")
	LoadCmd.Flags().BoolVar(&loadNoValidateFlag, "no-validate", false, "Skip structural validation entirely")
	LoadCmd.Flags().StringVar(&loadDatabaseFlag, "db", "", "Database path (defaults to configuration)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := openDatabase(loadDatabaseFlag)
	if err != nil {
		return err
	}
	defer closeDatabase()

	ing := newIngestor(cfg, database)
	ctx := context.Background()
	started := time.Now()

	switch {
	case isURL(source):
		result := ing.IngestURL(ctx, source)
		printResult(result)
		if !result.Success {
			return errors.New("ingestion failed")
		}

	case isDirectory(source):
		results, err := ing.IngestDirectory(ctx, source)
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
		pterm.Println()
		pterm.Info.Printf("%d/%d specs ingested in %s\n",
			succeeded, len(results), time.Since(started).Round(time.Millisecond))
		if succeeded < len(results) {
			return errors.Newf("%d of %d sources failed", len(results)-succeeded, len(results))
		}

	default:
		result := ing.IngestFile(ctx, source)
		printResult(result)
		if !result.Success {
			return errors.New("ingestion failed")
		}
	}

	return nil
}

// newIngestor wires the pipeline from configuration plus command flags.
func newIngestor(cfg *config.Config, database *sql.DB) *ingest.Ingestor {
	options := ingest.Options{
		EnableValidation: cfg.Ingest.EnableValidation && !loadNoValidateFlag,
		SkipInvalidFiles: cfg.Ingest.SkipInvalidFiles || loadSkipInvalidFlag,
		EnableLogging:    cfg.Ingest.EnableLogging,
	}

	ld := loader.New(logger.Logger,
		loader.WithURLTimeout(time.Duration(cfg.Loader.URLTimeoutSeconds)*time.Second))
	store := storage.NewSpecStore(database, logger.Logger)
	return ingest.New(ld, store, options, logger.Logger)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func isDirectory(source string) bool {
	info, err := os.Stat(source)
	return err == nil && info.IsDir()
}

func printResult(result *ingest.Result) {
	switch {
	case result.Success && result.Storage != nil && result.Storage.Skipped:
		pterm.Info.Printf("%s: unchanged\n", result.Name)
	case result.Success:
		pterm.Success.Println(result.Message)
	default:
		label := result.Name
		if label == "" {
			label = result.Source
		}
		pterm.Error.Printf("%s: %s\n", label, result.Message)
	}

	if result.Validation != nil {
		for _, e := range result.Validation.Errors {
			pterm.Error.Printf("  validation: %s\n", e)
		}
		for _, w := range result.Validation.Warnings {
			pterm.Warning.Printf("  %s\n", w)
		}
	}
	if result.Storage != nil {
		for _, failure := range result.Storage.Failures {
			pterm.Warning.Printf("  %s %q not stored: %v\n", failure.Kind, failure.Key, failure.Err)
		}
	}
}
