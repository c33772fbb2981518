package queries

import (
	"time"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

// BookingDTO is the read model for one booking.
type BookingDTO struct {
	domain.Snapshot
	Start   *time.Time `json:"start,omitempty"`
	PastDue bool       `json:"pastDue,omitempty"`
}

// ToDTO converts a booking. PastDue flags unpaid requests whose deadline
// passed without the sweeper touching them.
func ToDTO(b *domain.Booking, now time.Time) BookingDTO {
	dto := BookingDTO{Snapshot: b.Snapshot(), PastDue: b.PastDue(now)}
	if start, ok := b.Start(); ok {
		dto.Start = &start
	}
	return dto
}

// ToDTOs converts a list of bookings.
func ToDTOs(bookings []*domain.Booking, now time.Time) []BookingDTO {
	out := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, ToDTO(b, now))
	}
	return out
}

// canView reports whether actor may read b. Admins and the system read everything.
func canView(actor domain.Actor, b *domain.Booking) bool {
	return actor.Role == domain.RoleAdmin || actor.Owns(b)
}

// scope turns an actor into the narrowest repository filter.
func scope(actor domain.Actor) (domain.Filter, error) {
	switch actor.Role {
	case domain.RoleStudent:
		return domain.Filter{StudentID: actor.ID}, nil
	case domain.RoleInstructor:
		return domain.Filter{InstructorID: actor.ID}, nil
	case domain.RoleAdmin, domain.RoleSystem:
		return domain.Filter{}, nil
	}
	return domain.Filter{}, domain.ErrForbidden
}
