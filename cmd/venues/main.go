package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/venues/adapter/cli"
	"github.com/felixgeelhaar/venues/adapter/cli/venue"
	"github.com/felixgeelhaar/venues/internal/app"
	"github.com/felixgeelhaar/venues/pkg/config"
	"github.com/felixgeelhaar/venues/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{AppEnv: "development"}
	}

	logger := observability.NewLogger(observability.ConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat))
	if err != nil {
		logger.Warn("failed to load config, using development mode", "error", err)
	}
	cli.SetLogger(logger)
	cli.SetConfig(cfg)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(cli.NewApp(container))
	}

	cli.AddCommand(venue.Cmd)
	cli.Execute(ctx)
}
