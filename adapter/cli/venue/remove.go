package venue

import (
	"fmt"

	"github.com/felixgeelhaar/venues/internal/venues/application/commands"
	"github.com/spf13/cobra"
)

var removeTag string

var removeCmd = &cobra.Command{
	Use:   "remove [venue-id]",
	Short: "Remove a venue",
	Long: `Remove a venue. Its name becomes available again.

With --etag the removal only succeeds if the venue is unchanged since that
tag was read.

Examples:
  venues venue remove 550e8400-e29b-41d4-a716-446655440000`,
	Aliases: []string{"rm", "delete"},
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
		tag, err := resolveTag(cmd.Context(), app, id, removeTag)
		if err != nil {
			return describeFailure(cmd, "failed to remove venue", err)
		}

		if _, err := app.RemoveVenueHandler.Handle(cmd.Context(), commands.RemoveVenueCommand{
			ID:        id,
			EntityTag: tag,
		}); err != nil {
			return describeFailure(cmd, "failed to remove venue", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed venue %s.\n", id)
		return nil
	},
}

func init() {
	removeCmd.Flags().StringVar(&removeTag, "etag", "", "entity tag the venue must still have")
}
