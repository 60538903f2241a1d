package venue

import (
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [venue-id]",
	Short: "Show venue details",
	Long: `Display a venue with its timestamps and current entity tag.

Examples:
  venues venue show 550e8400-e29b-41d4-a716-446655440000`,
	Aliases: []string{"get", "view"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		venue, err := app.GetVenueHandler.Handle(cmd.Context(), queries.GetVenueQuery{ID: id})
		if err != nil {
			return describeFailure(cmd, "failed to get venue", err)
		}

		printVenue(cmd.OutOrStdout(), *venue)
		return nil
	},
}
