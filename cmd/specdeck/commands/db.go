package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/logger"
	"github.com/specdeck/specdeck/spec/storage"
)

// DbCmd groups database operations.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the spec database",
	Long: `Database operations against the normalized spec store.

Examples:
  specdeck db stats          # Row counts per table
  specdeck db ls             # List stored specs
  specdeck db rm petstore    # Remove one stored spec and its children`,
}

var dbDatabaseFlag string

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored row counts per table",
	RunE:  runDbStats,
}

var dbLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored specs",
	RunE:  runDbLs,
}

var dbRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a stored spec and its children",
	Args:  cobra.ExactArgs(1),
	RunE:  runDbRm,
}

func init() {
	DbCmd.PersistentFlags().StringVar(&dbDatabaseFlag, "db", "", "Database path (defaults to configuration)")
	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.AddCommand(dbLsCmd)
	DbCmd.AddCommand(dbRmCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	database, err := openDatabase(dbDatabaseFlag)
	if err != nil {
		return err
	}
	defer closeDatabase()

	stats, err := storage.NewSpecStore(database, logger.Logger).Stats()
	if err != nil {
		return err
	}

	fmt.Println("Spec Store Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Specs:            %d\n", stats.Specs)
	fmt.Printf("Servers:          %d\n", stats.Servers)
	fmt.Printf("Operations:       %d\n", stats.Operations)
	fmt.Printf("Schemas:          %d\n", stats.Schemas)
	fmt.Printf("Security schemes: %d\n", stats.SecuritySchemes)
	fmt.Printf("Responses:        %d\n", stats.Responses)
	return nil
}

func runDbLs(cmd *cobra.Command, args []string) error {
	database, err := openDatabase(dbDatabaseFlag)
	if err != nil {
		return err
	}
	defer closeDatabase()

	descriptors, err := storage.NewSpecStore(database, logger.Logger).ListDescriptors()
	if err != nil {
		return err
	}
	if len(descriptors) == 0 {
		pterm.Info.Println("No specs stored")
		return nil
	}

	rows := pterm.TableData{{"NAME", "TITLE", "VERSION", "DIALECT", "UPDATED"}}
	for _, d := range descriptors {
		rows = append(rows, []string{
			d.Name,
			d.Title,
			d.Version,
			d.Dialect,
			d.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runDbRm(cmd *cobra.Command, args []string) error {
	name := args[0]

	database, err := openDatabase(dbDatabaseFlag)
	if err != nil {
		return err
	}
	defer closeDatabase()

	removed, err := storage.NewSpecStore(database, logger.Logger).Delete(name)
	if err != nil {
		return err
	}
	if !removed {
		return errors.Newf("spec %q not found", name)
	}

	pterm.Success.Printf("Removed spec %q\n", name)
	return nil
}
