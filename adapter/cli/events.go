package cli

import (
	"fmt"

	internalApp "github.com/felixgeelhaar/venues/internal/app"
	"github.com/felixgeelhaar/venues/internal/venues/application/subscribers"
	"github.com/spf13/cobra"
)

var eventsQueue string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect venue events on the broker",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log venue events as they are relayed",
	Long: `Subscribe to the configured broker (EVENT_BROKER=rabbitmq or nats)
and log every venue event until interrupted.

Examples:
  EVENT_BROKER=rabbitmq venues events tail
  EVENT_BROKER=rabbitmq venues events tail --queue venues-audit
  EVENT_BROKER=nats venues events tail`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}

		consumer, _, err := internalApp.NewEventConsumer(cfg, eventsQueue, Logger())
		if err != nil {
			return err
		}
		defer consumer.Close()

		consumer.RegisterConsumer(subscribers.NewEventLogger(Logger()))
		fmt.Fprintf(cmd.OutOrStdout(), "Tailing venue events on %s (Ctrl+C to stop)\n", cfg.EventBroker)

		if err := consumer.Start(cmd.Context()); err != nil && cmd.Context().Err() == nil {
			return fmt.Errorf("consumer stopped: %w", err)
		}
		return nil
	},
}

func init() {
	eventsTailCmd.Flags().StringVar(&eventsQueue, "queue", "", "durable RabbitMQ queue name (default: exclusive queue)")
	eventsCmd.AddCommand(eventsTailCmd)
	rootCmd.AddCommand(eventsCmd)
}
