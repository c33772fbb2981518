package queries

import (
	"cmp"
	"slices"
	"time"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

// Buckets groups bookings the way the dashboards show them.
type Buckets struct {
	Scheduled          []*domain.Booking
	AwaitingAcceptance []*domain.Booking
	AwaitingPayment    []*domain.Booking
	AwaitingEvaluation []*domain.Booking
	History            []*domain.Booking
}

// Partition splits bookings by status. Active buckets are ordered by
// deadline, soonest first; history is most recently updated first.
func Partition(bookings []*domain.Booking) Buckets {
	var b Buckets
	for _, booking := range bookings {
		switch booking.Status() {
		case domain.StatusScheduled:
			b.Scheduled = append(b.Scheduled, booking)
		case domain.StatusAwaitingAcceptance:
			b.AwaitingAcceptance = append(b.AwaitingAcceptance, booking)
		case domain.StatusAwaitingPayment:
			b.AwaitingPayment = append(b.AwaitingPayment, booking)
		case domain.StatusAwaitingEvaluation:
			b.AwaitingEvaluation = append(b.AwaitingEvaluation, booking)
		case domain.StatusCompleted, domain.StatusCancelled:
			b.History = append(b.History, booking)
		}
	}
	for _, bucket := range [][]*domain.Booking{b.Scheduled, b.AwaitingAcceptance, b.AwaitingPayment, b.AwaitingEvaluation} {
		slices.SortStableFunc(bucket, byDeadline)
	}
	slices.SortStableFunc(b.History, func(x, y *domain.Booking) int {
		return y.UpdatedAt().Compare(x.UpdatedAt())
	})
	return b
}

func byDeadline(x, y *domain.Booking) int {
	dx, okx := x.Deadline()
	dy, oky := y.Deadline()
	switch {
	case okx && oky:
		return dx.Compare(dy)
	case okx:
		return -1
	case oky:
		return 1
	}
	return cmp.Compare(x.ID().String(), y.ID().String())
}

// BucketsDTO is Buckets in read-model form.
type BucketsDTO struct {
	Scheduled          []BookingDTO `json:"scheduled"`
	AwaitingAcceptance []BookingDTO `json:"awaiting_acceptance"`
	AwaitingPayment    []BookingDTO `json:"awaiting_payment"`
	AwaitingEvaluation []BookingDTO `json:"awaiting_evaluation"`
	History            []BookingDTO `json:"history"`
}

func (b Buckets) dto(now time.Time) BucketsDTO {
	return BucketsDTO{
		Scheduled:          ToDTOs(b.Scheduled, now),
		AwaitingAcceptance: ToDTOs(b.AwaitingAcceptance, now),
		AwaitingPayment:    ToDTOs(b.AwaitingPayment, now),
		AwaitingEvaluation: ToDTOs(b.AwaitingEvaluation, now),
		History:            ToDTOs(b.History, now),
	}
}
