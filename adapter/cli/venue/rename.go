package venue

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/venues/adapter/cli"
	"github.com/felixgeelhaar/venues/internal/venues/application/commands"
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var renameTag string

var renameCmd = &cobra.Command{
	Use:   "rename [venue-id] [new name]",
	Short: "Rename a venue",
	Long: `Rename a venue.

With --etag the rename only succeeds if the venue is unchanged since that
tag was read. Without it the current tag is looked up first.

Examples:
  venues venue rename 550e8400-e29b-41d4-a716-446655440000 "Grand Ballroom East"
  venues venue rename 550e8400-e29b-41d4-a716-446655440000 "Grand Ballroom East" --etag '"9A0364B9E99BB480DD25E1F0284C8555"'`,
	Aliases: []string{"update"},
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		tag, err := resolveTag(cmd.Context(), app, id, renameTag)
		if err != nil {
			return describeFailure(cmd, "failed to rename venue", err)
		}

		venue, err := app.UpdateVenueHandler.Handle(cmd.Context(), commands.UpdateVenueCommand{
			ID:        id,
			EntityTag: tag,
			Name:      strings.Join(args[1:], " "),
		})
		if err != nil {
			return describeFailure(cmd, "failed to rename venue", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Renamed venue.")
		printVenue(out, queries.ToVenueDTO(venue))
		return nil
	},
}

func init() {
	renameCmd.Flags().StringVar(&renameTag, "etag", "", "entity tag the venue must still have")
}

// resolveTag returns given, or the venue's current tag when given is empty.
func resolveTag(ctx context.Context, app *cli.App, id uuid.UUID, given string) (string, error) {
	if given != "" {
		return given, nil
	}
	venue, err := app.GetVenueHandler.Handle(ctx, queries.GetVenueQuery{ID: id})
	if err != nil {
		return "", err
	}
	return venue.EntityTag(), nil
}
