package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"animeHub/database"
)

var (
	// Migrate flags
	reset bool
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Long: `Create or update the database tables.

Examples:
  forumctl migrate            # Add missing tables and columns
  forumctl migrate --reset    # Drop every table and start over`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&reset, "reset", false, "Drop all tables first. Every row is lost")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	e, err := connect()
	if err != nil {
		return err
	}
	defer e.close()

	if reset {
		if err := database.DestructiveReset(e.db); err != nil {
			return err
		}
		fmt.Println("Tables dropped and recreated.")
		return nil
	}
	if err := database.AutoMigrate(e.db); err != nil {
		return err
	}
	fmt.Println("Tables migrated.")
	return nil
}
