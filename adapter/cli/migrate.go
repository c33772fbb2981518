package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		version, err := migrations.Up(cmd.Context(), app.Container.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", app.Container.DBDriver, version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
