package cli

import (
	"fmt"

	internalApp "github.com/felixgeelhaar/venues/internal/app"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply pending schema migrations to the configured database.

SQLite databases are also migrated automatically when opened.

Examples:
  DATABASE_URL=postgres://venues@localhost/venues venues migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}

		applied, err := internalApp.Migrate(cmd.Context(), cfg, Logger())
		if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(applied) == 0 {
			fmt.Fprintln(out, "Database is up to date.")
			return nil
		}
		for _, version := range applied {
			fmt.Fprintf(out, "Applied %s\n", version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
