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

// RejectBookingCommand declines a request.
type RejectBookingCommand struct {
	BookingID    uuid.UUID
	InstructorID uuid.UUID
	Reason       string
}

// RejectBookingHandler handles the RejectBookingCommand.
type RejectBookingHandler struct {
	lifecycle
}

// NewRejectBookingHandler creates a new RejectBookingHandler.
func NewRejectBookingHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock) *RejectBookingHandler {
	return &RejectBookingHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock)}
}

// Handle executes the RejectBookingCommand.
func (h *RejectBookingHandler) Handle(ctx context.Context, cmd RejectBookingCommand) (*domain.Booking, error) {
	actor := domain.Instructor(cmd.InstructorID)
	return h.transition(ctx, cmd.BookingID, cmd.InstructorID, func(b *domain.Booking, now time.Time) error {
		return b.Reject(actor, cmd.Reason, now)
	})
}
