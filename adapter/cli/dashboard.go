package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/queries"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Short:   "Show a dashboard",
	Aliases: []string{"dash"},
}

var studentDashboardCmd = &cobra.Command{
	Use:   "student",
	Short: "Show the student dashboard",
	Long: `Display the student's bookings grouped by what they need next,
lessons completed per class type, upcoming lessons and favourite instructors.

Examples:
  driverapp dashboard student --as-student 7f0c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		actor, err := ActorAs(domain.RoleStudent)
		if err != nil {
			return err
		}
		d, err := app.Lifecycle.StudentDashboard(cmd.Context(), actor.ID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return PrintJSON(cmd.OutOrStdout(), d)
		}
		w := cmd.OutOrStdout()
		printBuckets(w, d.Buckets)
		fmt.Fprintf(w, "\nCompleted lessons: %d\n", d.Indicators.CompletedTotal)
		for classType, n := range d.Indicators.CompletedByClassType {
			fmt.Fprintf(w, "  %-20s %d\n", classType, n)
		}
		fmt.Fprintf(w, "Upcoming: %d\n", len(d.Upcoming))
		if len(d.Indicators.TopInstructors) > 0 {
			fmt.Fprintln(w, "Top instructors:")
		}
		for _, ic := range d.Indicators.TopInstructors {
			fmt.Fprintf(w, "  instructor %s: %d lessons\n", ic.InstructorID, ic.Completed)
		}
		return nil
	},
}

var instructorDashboardCmd = &cobra.Command{
	Use:   "instructor",
	Short: "Show the instructor dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		actor, err := ActorAs(domain.RoleInstructor)
		if err != nil {
			return err
		}
		d, err := app.Lifecycle.InstructorDashboard(cmd.Context(), actor.ID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return PrintJSON(cmd.OutOrStdout(), d)
		}
		w := cmd.OutOrStdout()
		printBuckets(w, d.Buckets)
		fmt.Fprintf(w, "\nPending requests: %d\n", d.Indicators.PendingRequests)
		fmt.Fprintf(w, "Awaiting payment: %d\n", d.Indicators.AwaitingPayment)
		fmt.Fprintf(w, "Upcoming lessons: %d\n", len(d.Upcoming))
		if d.Indicators.AverageRating != nil {
			fmt.Fprintf(w, "Average rating:   %.2f\n", *d.Indicators.AverageRating)
		}
		return nil
	},
}

var adminDashboardCmd = &cobra.Command{
	Use:   "admin",
	Short: "Show platform metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		actor, err := Actor()
		if err != nil {
			return err
		}
		m, err := app.Lifecycle.AdminMetrics(cmd.Context(), actor)
		if err != nil {
			return err
		}
		if jsonOutput {
			return PrintJSON(cmd.OutOrStdout(), m)
		}
		w := cmd.OutOrStdout()
		for _, s := range domain.Statuses {
			fmt.Fprintf(w, "%-32s %d\n", s, m.ByStatus[s])
		}
		fmt.Fprintf(w, "%-32s %d\n", "auto-cancelled", m.AutoCanceled)
		fmt.Fprintf(w, "%-32s %s\n", "gross paid", m.GrossPaid.StringFixed(2))
		fmt.Fprintf(w, "%-32s %s\n", "refunded", m.Refunded.StringFixed(2))
		return nil
	},
}

func printBuckets(w io.Writer, b queries.BucketsDTO) {
	sections := []struct {
		title string
		list  []queries.BookingDTO
	}{
		{"Scheduled", b.Scheduled},
		{"Awaiting acceptance", b.AwaitingAcceptance},
		{"Awaiting payment", b.AwaitingPayment},
		{"Awaiting evaluation", b.AwaitingEvaluation},
		{"History", b.History},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "\n%s (%d)\n", s.title, len(s.list))
		for _, dto := range s.list {
			slot := "-"
			if dto.ScheduledDate != "" {
				slot = dto.ScheduledDate + " " + dto.ScheduledTime
			}
			fmt.Fprintf(w, "  %s  %-30s  %s\n", dto.ID, dto.Status, slot)
		}
	}
}

func init() {
	dashboardCmd.AddCommand(studentDashboardCmd, instructorDashboardCmd, adminDashboardCmd)
	rootCmd.AddCommand(dashboardCmd)
}
