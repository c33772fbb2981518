package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/queries"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

// JSONOutput reports whether --json was passed.
func JSONOutput() bool { return jsonOutput }

// PrintJSON writes v indented.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintBooking writes one booking as text or JSON.
func PrintBooking(w io.Writer, b queries.BookingDTO) error {
	if jsonOutput {
		return PrintJSON(w, b)
	}
	fmt.Fprintf(w, "Booking %s\n", b.ID)
	fmt.Fprintf(w, "  status:     %s\n", b.Status)
	fmt.Fprintf(w, "  payment:    %s\n", b.PaymentStatus)
	fmt.Fprintf(w, "  student:    %s\n", b.StudentID)
	fmt.Fprintf(w, "  instructor: %s\n", b.InstructorID)
	if b.ScheduledDate != "" {
		fmt.Fprintf(w, "  slot:       %s %s (%s)\n", b.ScheduledDate, b.ScheduledTime, b.Timezone)
	} else if len(b.AvailableOptions) > 0 {
		fmt.Fprintf(w, "  options:    %s (%s)\n", domain.FormatOptions(b.AvailableOptions), b.Timezone)
	}
	fmt.Fprintf(w, "  price:      %s\n", b.Price.StringFixed(2))
	if len(b.ClassTypes) > 0 {
		types := make([]string, 0, len(b.ClassTypes))
		for _, c := range b.ClassTypes {
			types = append(types, string(c))
		}
		fmt.Fprintf(w, "  classes:    %s\n", strings.Join(types, ", "))
	}
	if b.Rating != nil {
		fmt.Fprintf(w, "  rating:     %d/5\n", *b.Rating)
	}
	if b.CanceledAt != nil {
		by := string(b.CanceledBy)
		if b.AutoCanceled {
			by = "auto-cancel"
		}
		fmt.Fprintf(w, "  cancelled:  %s by %s\n", b.CanceledAt.Format("2006-01-02 15:04"), by)
		if b.RefundPercent > 0 {
			fmt.Fprintf(w, "  refund:     %d%% (%s)\n", b.RefundPercent, b.RefundAmount.StringFixed(2))
		}
	}
	if b.PastDue {
		fmt.Fprintln(w, "  past due:   yes")
	}
	return nil
}

// PrintBookings writes a table of bookings.
func PrintBookings(w io.Writer, list []queries.BookingDTO) error {
	if jsonOutput {
		return PrintJSON(w, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No bookings.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-30s  %-16s  %s\n", "ID", "STATUS", "SLOT", "PRICE")
	for _, b := range list {
		slot := "-"
		if b.ScheduledDate != "" {
			slot = b.ScheduledDate + " " + b.ScheduledTime
		}
		fmt.Fprintf(w, "%-36s  %-30s  %-16s  %s\n", b.ID, b.Status, slot, b.Price.StringFixed(2))
	}
	return nil
}

// PrintRefund writes a refund quote.
func PrintRefund(w io.Writer, r domain.Refund) error {
	if jsonOutput {
		return PrintJSON(w, r)
	}
	fmt.Fprintf(w, "Refund: %d%% (%s)\n", r.EligiblePercent, r.Amount.StringFixed(2))
	if r.RequiresWarning {
		fmt.Fprintln(w, "  warning: less than 24 hours before the lesson")
	}
	return nil
}
