package booking

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fsgregorio/driverapp-sub000/adapter/cli"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/commands"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/queries"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

var (
	slotDate   string
	slotTime   string
	reason     string
	outcome    string
	reference  string
	confirmed  bool
	rating     int
	review     string
	moveToDate string
	moveToTime string
)

var acceptCmd = &cobra.Command{
	Use:   "accept [booking-id]",
	Short: "Accept a lesson request",
	Long: `Accept a pending request. When the student offered several options,
pick one with --date and --time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.ActorAs(domain.RoleInstructor)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c := commands.AcceptBookingCommand{BookingID: id, InstructorID: actor.ID}
		if slotDate != "" || slotTime != "" {
			slot, err := domain.NewSlot(slotDate, slotTime)
			if err != nil {
				return err
			}
			c.Slot = &slot
		}
		b, err := app.Lifecycle.AcceptBooking(cmd.Context(), c)
		if err != nil {
			return err
		}
		return cli.PrintBooking(cmd.OutOrStdout(), app.DTO(b))
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject [booking-id]",
	Short: "Decline a lesson request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.ActorAs(domain.RoleInstructor)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		b, err := app.Lifecycle.RejectBooking(cmd.Context(), commands.RejectBookingCommand{
			BookingID:    id,
			InstructorID: actor.ID,
			Reason:       reason,
		})
		if err != nil {
			return err
		}
		return cli.PrintBooking(cmd.OutOrStdout(), app.DTO(b))
	},
}

var payCmd = &cobra.Command{
	Use:   "pay [booking-id]",
	Short: "Record the payment processor's result",
	Long: `Record what the payment processor reported. Nothing is charged here;
a failed outcome leaves the booking awaiting payment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.ActorAs(domain.RoleStudent)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		b, err := app.Lifecycle.PayBooking(cmd.Context(), commands.PayBookingCommand{
			BookingID: id,
			Actor:     actor,
			Outcome:   domain.PaymentOutcome(outcome),
			Reference: reference,
		})
		if err != nil {
			return err
		}
		return cli.PrintBooking(cmd.OutOrStdout(), app.DTO(b))
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [booking-id]",
	Short: "Cancel a booking",
	Long: `Cancel a booking. Paid lessons are refunded in full with at least 24
hours notice and 50% otherwise; a partial refund must be confirmed with --yes.`,
	Args: cobra.ExactArgs(1),
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
		ctx := cmd.Context()
		quote, err := app.Lifecycle.QuoteRefund(ctx, queries.QuoteRefundQuery{BookingID: id, Actor: actor})
		if err != nil {
			return err
		}
		if quote.RequiresWarning && !confirmed {
			_ = cli.PrintRefund(cmd.OutOrStdout(), quote)
			return fmt.Errorf("only %d%% will be refunded; re-run with --yes to cancel anyway", quote.EligiblePercent)
		}
		res, err := app.Lifecycle.CancelBooking(ctx, commands.CancelBookingCommand{
			BookingID: id,
			Actor:     actor,
			Reason:    reason,
		})
		if err != nil {
			return err
		}
		return cli.PrintBooking(cmd.OutOrStdout(), app.DTO(res.Booking))
	},
}

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule [booking-id]",
	Short: "Move a scheduled lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.ActorAs(domain.RoleStudent)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		res, err := app.Lifecycle.RescheduleBooking(cmd.Context(), commands.RescheduleBookingCommand{
			BookingID: id,
			StudentID: actor.ID,
			Date:      moveToDate,
			Time:      moveToTime,
		})
		if err != nil {
			return err
		}
		if res.RefundQuote.RequiresWarning {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: moved with less than 24 hours notice (%d%% refund applied had it been cancelled)\n", res.RefundQuote.EligiblePercent)
		}
		return cli.PrintBooking(cmd.OutOrStdout(), app.DTO(res.Booking))
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [booking-id]",
	Short: "Rate a finished lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.ActorAs(domain.RoleStudent)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		b, err := app.Lifecycle.EvaluateBooking(cmd.Context(), commands.EvaluateBookingCommand{
			BookingID: id,
			StudentID: actor.ID,
			Rating:    rating,
			Review:    review,
		})
		if err != nil {
			return err
		}
		return cli.PrintBooking(cmd.OutOrStdout(), app.DTO(b))
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip [booking-id]",
	Short: "Complete a lesson without rating it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.ActorAs(domain.RoleStudent)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		b, err := app.Lifecycle.SkipEvaluation(cmd.Context(), commands.SkipEvaluationCommand{BookingID: id, StudentID: actor.ID})
		if err != nil {
			return err
		}
		return cli.PrintBooking(cmd.OutOrStdout(), app.DTO(b))
	},
}

func init() {
	acceptCmd.Flags().StringVar(&slotDate, "date", "", "chosen date (YYYY-MM-DD)")
	acceptCmd.Flags().StringVar(&slotTime, "time", "", "chosen time (HH:MM)")
	acceptCmd.MarkFlagsRequiredTogether("date", "time")

	rejectCmd.Flags().StringVar(&reason, "reason", "", "why the request is declined")
	cancelCmd.Flags().StringVar(&reason, "reason", "", "why the booking is cancelled")
	cancelCmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "accept a partial refund")

	payCmd.Flags().StringVar(&outcome, "outcome", string(domain.PaymentSucceeded), "succeeded or failed")
	payCmd.Flags().StringVar(&reference, "reference", "", "payment processor reference")

	rescheduleCmd.Flags().StringVar(&moveToDate, "date", "", "new date (YYYY-MM-DD)")
	rescheduleCmd.Flags().StringVar(&moveToTime, "time", "", "new time (HH:MM)")
	_ = rescheduleCmd.MarkFlagRequired("date")
	_ = rescheduleCmd.MarkFlagRequired("time")

	evaluateCmd.Flags().IntVarP(&rating, "rating", "r", 0, "rating from 1 to 5")
	evaluateCmd.Flags().StringVar(&review, "review", "", "optional review")
	_ = evaluateCmd.MarkFlagRequired("rating")
}
