package cli

import (
	internalApp "github.com/felixgeelhaar/venues/internal/app"
	"github.com/felixgeelhaar/venues/internal/venues/application/commands"
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/felixgeelhaar/venues/pkg/config"
)

// App holds the CLI application dependencies.
type App struct {
	Config *config.Config

	// Venue Command Handlers
	CreateVenueHandler *commands.CreateVenueHandler
	UpdateVenueHandler *commands.UpdateVenueHandler
	RemoveVenueHandler *commands.RemoveVenueHandler

	// Venue Query Handlers
	ListVenuesHandler *queries.ListVenuesHandler
	GetVenueHandler   *queries.GetVenueHandler

	container *internalApp.Container
}

// NewApp creates a new CLI application from the wired container.
func NewApp(container *internalApp.Container) *App {
	return &App{
		Config:             container.Config,
		CreateVenueHandler: container.CreateVenueHandler,
		UpdateVenueHandler: container.UpdateVenueHandler,
		RemoveVenueHandler: container.RemoveVenueHandler,
		ListVenuesHandler:  container.ListVenuesHandler,
		GetVenueHandler:    container.GetVenueHandler,
		container:          container,
	}
}

// Container returns the container the app was built from.
func (a *App) Container() *internalApp.Container {
	return a.container
}

// app is the global CLI application instance
var app *App

// config is used by commands that run without a database connection.
var cfg *config.Config

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// SetConfig sets the loaded configuration.
func SetConfig(c *config.Config) {
	cfg = c
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	if cfg == nil && app != nil {
		return app.Config
	}
	return cfg
}
