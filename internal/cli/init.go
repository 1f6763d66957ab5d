package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratesync/internal/config"
)

// newInitCmd creates the command that writes a config template.
func newInitCmd(app *App) *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration template",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteTemplate(configDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "target directory (default: ~/.config/ratesync)")
	return cmd
}
