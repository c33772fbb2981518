package booking

import (
	"github.com/spf13/cobra"

	"github.com/fsgregorio/driverapp-sub000/adapter/cli"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/queries"
)

var (
	statuses string
	limit    int
)

var showCmd = &cobra.Command{
	Use:   "show [booking-id]",
	Short: "Show one booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.Actor()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		dto, err := app.Lifecycle.GetBooking(cmd.Context(), queries.GetBookingQuery{BookingID: id, Actor: actor})
		if err != nil {
			return err
		}
		return cli.PrintBooking(cmd.OutOrStdout(), *dto)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings",
	Long: `List the caller's bookings, optionally filtered by status.

Examples:
  driverapp booking list --as-student $S
  driverapp booking list --as-instructor $I --status awaiting_instructor_acceptance,awaiting_payment`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.Actor()
		if err != nil {
			return err
		}
		list, err := app.Lifecycle.ListBookings(cmd.Context(), queries.ListBookingsQuery{
			Actor:    actor,
			Statuses: splitList(statuses),
			Limit:    limit,
		})
		if err != nil {
			return err
		}
		return cli.PrintBookings(cmd.OutOrStdout(), list)
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote [booking-id]",
	Short: "Show what cancelling now would refund",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.Actor()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		refund, err := app.Lifecycle.QuoteRefund(cmd.Context(), queries.QuoteRefundQuery{BookingID: id, Actor: actor})
		if err != nil {
			return err
		}
		return cli.PrintRefund(cmd.OutOrStdout(), refund)
	},
}

func init() {
	listCmd.Flags().StringVarP(&statuses, "status", "s", "", "statuses, comma separated")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of bookings")
}
