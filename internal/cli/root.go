// Package cli provides the command-line interface for the reconciliation
// service.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ratesync/internal/config"
	"ratesync/internal/rates"
	"ratesync/internal/reconcile"
	"ratesync/internal/state"
	"ratesync/internal/state/remote"
	"ratesync/internal/state/sqlite"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:     "ratesync",
		Short:   "Crypto price reconciliation service",
		Long:    "ratesync fetches current crypto prices, compares them against the record store, and writes back only material changes together with a last-updated date.",
		Version: Version,
	}

	rootCmd.AddCommand(
		newRunCmd(app),
		newServeCmd(app),
		newHolidaysCmd(app),
		newInitCmd(app),
	)

	return rootCmd
}

// buildEngine wires the provider and the configured store backend into a
// reconciliation engine.
func (a *App) buildEngine() (*reconcile.Engine, error) {
	provider := rates.NewHTTPProvider(a.Config.Provider, a.Logger)

	var store state.Store
	var err error
	switch a.Config.Store.Backend {
	case "sqlite":
		store, err = sqlite.NewStore(a.Config.Store.DBPath, a.Config.Store.Owner)
	default:
		store, err = remote.NewClient(a.Config.Store, a.Logger)
	}
	if err != nil {
		return nil, err
	}

	return reconcile.NewEngine(a.Config, provider, store, a.Logger)
}
