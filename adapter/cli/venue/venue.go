package venue

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/venues/adapter/cli"
	"github.com/felixgeelhaar/venues/internal/shared/application/errormodel"
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the venue command group
var Cmd = &cobra.Command{
	Use:   "venue",
	Short: "Manage venues",
	Long:  `Create, list, rename and remove venues.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(renameCmd)
	Cmd.AddCommand(removeCmd)
}

const timeLayout = "2006-01-02 15:04:05 MST"

var errNotInitialized = errors.New("application not initialized - database connection required")

func requireApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil {
		return nil, errNotInitialized
	}
	return app, nil
}

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid venue ID: %w", err)
	}
	return id, nil
}

func printVenue(out io.Writer, v queries.VenueDTO) {
	fmt.Fprintf(out, "Venue: %s\n", v.ID)
	fmt.Fprintf(out, "  Name:     %s\n", v.Name)
	fmt.Fprintf(out, "  Created:  %s\n", v.CreatedDate.Local().Format(timeLayout))
	fmt.Fprintf(out, "  Modified: %s\n", v.ModifiedDate.Local().Format(timeLayout))
	fmt.Fprintf(out, "  ETag:     %s\n", v.EntityTag())
}

// describeFailure turns a handler failure into a readable error.
func describeFailure(cmd *cobra.Command, action string, err error) error {
	switch m := errormodel.Translate(cmd.Context(), err).(type) {
	case errormodel.ValidationError:
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %s", action, m.Message)
		for _, field := range m.Errors {
			fmt.Fprintf(&b, "\n  %s: %s", field.Field, strings.Join(field.Messages, ", "))
		}
		return errors.New(b.String())
	case errormodel.NotFoundError:
		return fmt.Errorf("%s: venue %s not found", action, m.ID)
	case errormodel.ConflictError:
		return fmt.Errorf("%s: venue changed since it was read (current tag %s, given %s)", action, m.Current, m.Requested)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
