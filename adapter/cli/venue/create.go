package venue

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/venues/internal/venues/application/commands"
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a venue",
	Long: `Create a venue. Names are 8 to 100 characters and unique among venues.

Examples:
  venues venue create "Grand Ballroom"
  venues venue create Riverside Conference Hall`,
	Aliases: []string{"add", "new"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		venue, err := app.CreateVenueHandler.Handle(cmd.Context(), commands.CreateVenueCommand{
			Name: strings.Join(args, " "),
		})
		if err != nil {
			return describeFailure(cmd, "failed to create venue", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Created venue.")
		printVenue(out, queries.ToVenueDTO(venue))
		return nil
	},
}
