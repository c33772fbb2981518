package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the database and optional backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		results, ok := app.Container.Health.Run(cmd.Context())
		if jsonOutput {
			if err := PrintJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
		} else {
			for _, r := range results {
				state := "ok"
				if !r.Healthy {
					state = "FAIL " + r.Error
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s (%dms)\n", r.Name, state, r.TookMS)
			}
		}
		if !ok {
			return errors.New("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
