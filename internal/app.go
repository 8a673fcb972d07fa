// Package internal wires configuration, storage and routing into one
// runnable application.
package internal

import (
	"fmt"

	"github.com/karloscodes/cartridge"

	"ideabank/internal/config"
	"ideabank/internal/database"
	"ideabank/internal/pkg/geoip"
)

// Application wraps cartridge.Application with ideabank-specific components.
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager
}

// NewApp creates a new application instance with default settings.
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Country enrichment is optional; a missing GeoLite2 file only disables it.
	geoip.InitLogger(logger)
	geoip.GetGeoDB()

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:         cfg,
		Logger:         logger,
		DBManager:      dbManager,
		RouteMountFunc: MountAppRoutes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
	}, nil
}
