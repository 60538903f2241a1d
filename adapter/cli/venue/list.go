package venue

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List venues",
	Long:    `List all venues in the order they were created.`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		venues, err := app.ListVenuesHandler.Handle(cmd.Context(), queries.ListVenuesQuery{})
		if err != nil {
			return describeFailure(cmd, "failed to list venues", err)
		}

		out := cmd.OutOrStdout()
		if len(venues) == 0 {
			fmt.Fprintln(out, "No venues found.")
			return nil
		}

		fmt.Fprintf(out, "Venues (%d):\n", len(venues))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, v := range venues {
			fmt.Fprintf(out, "%s  %s\n", v.ID, v.Name)
		}
		return nil
	},
}
