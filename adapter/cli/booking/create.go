package booking

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fsgregorio/driverapp-sub000/adapter/cli"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/commands"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

var (
	instructorID string
	date         string
	clock        string
	options      string
	duration     int
	price        string
	classTypes   string
	pickup       string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Request a lesson",
	Long: `Request a lesson with an instructor, either at a fixed date and time
or as a list of options the instructor picks from when accepting.

Examples:
  driverapp booking create --as-student $S --instructor $I --date 2026-03-10 --time 14:00 --price 120 --classes road
  driverapp booking create --as-student $S --instructor $I --options "2026-03-10=09:00,14:00;2026-03-11=10:00" --price 120 --classes parking,road`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		actor, err := cli.ActorAs(domain.RoleStudent)
		if err != nil {
			return err
		}
		instructor, err := uuid.Parse(instructorID)
		if err != nil {
			return fmt.Errorf("invalid instructor id %q", instructorID)
		}
		amount, err := decimal.NewFromString(price)
		if err != nil {
			return fmt.Errorf("invalid price %q", price)
		}
		opts, err := parseOptions(options)
		if err != nil {
			return err
		}

		b, err := app.Lifecycle.CreateBooking(cmd.Context(), commands.CreateBookingCommand{
			StudentID:       actor.ID,
			InstructorID:    instructor,
			Date:            date,
			Time:            clock,
			Options:         opts,
			DurationMinutes: duration,
			Price:           amount,
			ClassTypes:      splitList(classTypes),
			PickupType:      pickup,
		})
		if err != nil {
			return fmt.Errorf("failed to request lesson: %w", err)
		}
		return cli.PrintBooking(cmd.OutOrStdout(), app.DTO(b))
	},
}

// parseOptions reads "DATE=HH:MM,HH:MM;DATE=HH:MM".
func parseOptions(raw string) ([]domain.SlotOption, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []domain.SlotOption
	for _, day := range strings.Split(raw, ";") {
		d, times, ok := strings.Cut(strings.TrimSpace(day), "=")
		if !ok || strings.TrimSpace(times) == "" {
			return nil, fmt.Errorf("invalid option %q, expected DATE=HH:MM[,HH:MM]", day)
		}
		out = append(out, domain.SlotOption{Date: strings.TrimSpace(d), Times: splitList(times)})
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	createCmd.Flags().StringVar(&instructorID, "instructor", "", "instructor id")
	createCmd.Flags().StringVar(&date, "date", "", "lesson date (YYYY-MM-DD)")
	createCmd.Flags().StringVar(&clock, "time", "", "lesson start (HH:MM)")
	createCmd.Flags().StringVar(&options, "options", "", "candidate slots: DATE=HH:MM,HH:MM;DATE=HH:MM")
	createCmd.Flags().IntVarP(&duration, "duration", "d", 0, "lesson length in minutes (default 60)")
	createCmd.Flags().StringVar(&price, "price", "", "lesson price")
	createCmd.Flags().StringVar(&classTypes, "classes", "", "class types, comma separated")
	createCmd.Flags().StringVar(&pickup, "pickup", "", "self_to_location or pickup_at_home")
	_ = createCmd.MarkFlagRequired("instructor")
	_ = createCmd.MarkFlagRequired("price")
	createCmd.MarkFlagsMutuallyExclusive("date", "options")
	createCmd.MarkFlagsRequiredTogether("date", "time")
}
