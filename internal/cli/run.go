package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

// newRunCmd creates the one-shot manual trigger command. Unlike the
// scheduled trigger, failures here are surfaced to the operator.
func newRunCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one reconciliation run",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.buildEngine()
			if err != nil {
				return err
			}

			result, err := engine.Run(cmd.Context(), force)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "run even on a non-trading day")
	return cmd
}
