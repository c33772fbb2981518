package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one sweep pass now",
	Long: `Cancel unpaid bookings whose lesson starts within 24 hours and move
lessons that already started to awaiting evaluation.

Examples:
  driverapp sweep`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		report, err := app.Lifecycle.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput {
			ids := func(n int, id func(int) string) []string {
				out := make([]string, n)
				for i := range out {
					out[i] = id(i)
				}
				return out
			}
			return PrintJSON(w, map[string]any{
				"cancelled": ids(len(report.Cancelled), func(i int) string { return report.Cancelled[i].ID().String() }),
				"elapsed":   ids(len(report.Elapsed), func(i int) string { return report.Elapsed[i].ID().String() }),
				"pastDue":   report.PastDue,
				"failures":  report.Failures,
			})
		}
		fmt.Fprintf(w, "Auto-cancelled: %d\n", len(report.Cancelled))
		for _, b := range report.Cancelled {
			fmt.Fprintf(w, "  %s\n", b.ID())
		}
		fmt.Fprintf(w, "Awaiting evaluation: %d\n", len(report.Elapsed))
		for _, b := range report.Elapsed {
			fmt.Fprintf(w, "  %s\n", b.ID())
		}
		if report.PastDue > 0 {
			fmt.Fprintf(w, "Past due (left as is): %d\n", report.PastDue)
		}
		if report.Failures > 0 {
			return fmt.Errorf("%d bookings could not be swept, see logs", report.Failures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
