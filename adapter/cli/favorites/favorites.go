// Package favorites holds the "driverapp favorites" command group.
package favorites

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fsgregorio/driverapp-sub000/adapter/cli"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

// Cmd is the favorites command group
var Cmd = &cobra.Command{
	Use:     "favorites",
	Short:   "Manage a student's favourite instructors",
	Aliases: []string{"fav"},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List favourite instructors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.ActorAs(domain.RoleStudent)
		if err != nil {
			return err
		}
		ids, err := app.Preferences.FavoriteInstructors(cmd.Context(), actor.ID)
		if err != nil {
			return err
		}
		return printIDs(cmd.OutOrStdout(), ids)
	},
}

var addCmd = &cobra.Command{
	Use:   "add [instructor-id]",
	Short: "Add a favourite instructor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return change(cmd, args[0], true)
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove [instructor-id]",
	Short:   "Remove a favourite instructor",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return change(cmd, args[0], false)
	},
}

func change(cmd *cobra.Command, raw string, add bool) error {
	app, err := cli.GetApp()
	if err != nil {
		return err
	}
	actor, err := cli.ActorAs(domain.RoleStudent)
	if err != nil {
		return err
	}
	instructorID, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid instructor id %q", raw)
	}
	var ids []uuid.UUID
	if add {
		ids, err = app.Preferences.AddFavorite(cmd.Context(), actor.ID, instructorID)
	} else {
		ids, err = app.Preferences.RemoveFavorite(cmd.Context(), actor.ID, instructorID)
	}
	if err != nil {
		return err
	}
	return printIDs(cmd.OutOrStdout(), ids)
}

func printIDs(w io.Writer, ids []uuid.UUID) error {
	if cli.JSONOutput() {
		if ids == nil {
			ids = []uuid.UUID{}
		}
		return cli.PrintJSON(w, ids)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No favourite instructors.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

func init() {
	Cmd.AddCommand(listCmd, addCmd, removeCmd)
}
