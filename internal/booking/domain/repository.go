package domain

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows Find. Zero fields match everything.
type Filter struct {
	StudentID    uuid.UUID
	InstructorID uuid.UUID
	Statuses     []Status
	Limit        int
}

// Repository persists bookings with optimistic concurrency: Save fails with
// ErrConcurrencyConflict when the stored version moved since the booking was read.
type Repository interface {
	Save(ctx context.Context, booking *Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	Find(ctx context.Context, filter Filter) ([]*Booking, error)
}
