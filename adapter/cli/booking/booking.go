// Package booking holds the "driverapp booking" command group.
package booking

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the booking command group
var Cmd = &cobra.Command{
	Use:     "booking",
	Short:   "Manage lesson bookings",
	Long:    `Request, accept, pay, cancel, reschedule and evaluate driving lessons.`,
	Aliases: []string{"bookings", "b"},
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(acceptCmd)
	Cmd.AddCommand(rejectCmd)
	Cmd.AddCommand(payCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(rescheduleCmd)
	Cmd.AddCommand(evaluateCmd)
	Cmd.AddCommand(skipCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(quoteCmd)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid booking id %q", raw)
	}
	return id, nil
}
