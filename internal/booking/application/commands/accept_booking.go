package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedApplication "github.com/fsgregorio/driverapp-sub000/internal/shared/application"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/outbox"
)

// AcceptBookingCommand confirms a request. Slot is required when the
// student offered several options.
type AcceptBookingCommand struct {
	BookingID    uuid.UUID
	InstructorID uuid.UUID
	Slot         *domain.Slot
}

// AcceptBookingHandler handles the AcceptBookingCommand.
type AcceptBookingHandler struct {
	lifecycle
}

// NewAcceptBookingHandler creates a new AcceptBookingHandler.
func NewAcceptBookingHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock) *AcceptBookingHandler {
	return &AcceptBookingHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock)}
}

// Handle executes the AcceptBookingCommand.
func (h *AcceptBookingHandler) Handle(ctx context.Context, cmd AcceptBookingCommand) (*domain.Booking, error) {
	actor := domain.Instructor(cmd.InstructorID)
	return h.transition(ctx, cmd.BookingID, cmd.InstructorID, func(b *domain.Booking, now time.Time) error {
		return b.Accept(actor, cmd.Slot, now)
	})
}
