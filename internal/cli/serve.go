package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ratesync/internal/server"
)

// newServeCmd creates the long-running mode: the scheduled trigger loop
// plus the manual HTTP trigger surface.
func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP trigger surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.buildEngine()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if app.Config.Scheduler.Enabled {
				scheduler := server.NewScheduler(engine, app.Config.Scheduler, app.Logger)
				go scheduler.Start(ctx)
			}

			srv := server.NewServer(engine, app.Config.Server, app.Logger)
			return srv.ListenAndServe(ctx)
		},
	}
}
