package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/venues/adapter/api"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the venues HTTP API",
	Long: `Serve the venues HTTP API until interrupted.

The outbox processor runs in the same process unless
OUTBOX_PROCESSOR_ENABLED=false, in which case cmd/worker relays events.

Examples:
  venues serve
  venues serve --addr 127.0.0.1:9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Container() == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		c := app.Container()
		ctx := cmd.Context()

		serverCfg := api.DefaultServerConfig()
		serverCfg.Addr = c.Config.HTTPAddr
		if serveAddr != "" {
			serverCfg.Addr = serveAddr
		}
		if c.Config.HTTPReadTimeout > 0 {
			serverCfg.ReadTimeout = c.Config.HTTPReadTimeout
		}
		if c.Config.HTTPWriteTimeout > 0 {
			serverCfg.WriteTimeout = c.Config.HTTPWriteTimeout
		}

		handler := api.NewVenuesHandler(api.VenuesHandlerConfig{
			ListVenues:  c.ListVenuesHandler,
			GetVenue:    c.GetVenueHandler,
			CreateVenue: c.CreateVenueHandler,
			UpdateVenue: c.UpdateVenueHandler,
			RemoveVenue: c.RemoveVenueHandler,
			Logger:      c.Logger,
		})
		server := api.NewServer(serverCfg, handler, c.Health, c.Metrics, c.Logger)

		if c.Config.OutboxProcessorEnabled {
			if err := c.OutboxProcessor.Start(ctx); err != nil {
				return fmt.Errorf("failed to start outbox processor: %w", err)
			}
			defer c.OutboxProcessor.Stop()
		} else {
			c.Logger.Info("outbox processor disabled, run the worker to relay events")
		}

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.HTTPShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
