package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/specdeck/specdeck/cmd/specdeck/commands"
	"github.com/specdeck/specdeck/logger"
)

var rootCmd = &cobra.Command{
	Use:   "specdeck",
	Short: "specdeck - OpenAPI spec ingestion and normalized storage",
	Long: `specdeck ingests OpenAPI/Swagger documents from files, URLs, and
directories into a normalized SQLite store, and keeps the store in sync with
a watched directory.

Available commands:
  load   - Ingest a spec file, URL, or directory
  watch  - Watch a directory and re-ingest specs on change
  db     - Database operations (stats, ls, rm)

Examples:
  specdeck load ./specs/petstore.yaml       # Ingest one file
  specdeck load https://example.com/api.json
  specdeck load ./specs                     # Ingest a whole directory
  specdeck watch                            # Watch the configured base_dir
  specdeck db stats                         # Show stored row counts`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.LoadCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
