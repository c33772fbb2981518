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

// RescheduleBookingCommand moves a scheduled lesson to a new slot.
type RescheduleBookingCommand struct {
	BookingID uuid.UUID
	StudentID uuid.UUID
	Date      string
	Time      string
}

// RescheduleBookingResult carries the moved booking and the refund quote
// that applied at the moment of the move. Nothing is refunded.
type RescheduleBookingResult struct {
	Booking     *domain.Booking
	RefundQuote domain.Refund
}

// RescheduleBookingHandler handles the RescheduleBookingCommand.
type RescheduleBookingHandler struct {
	lifecycle
	policy domain.RefundPolicy
}

// NewRescheduleBookingHandler creates a new RescheduleBookingHandler.
func NewRescheduleBookingHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	policy domain.RefundPolicy,
) *RescheduleBookingHandler {
	return &RescheduleBookingHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock), policy: policy}
}

// Handle executes the RescheduleBookingCommand.
func (h *RescheduleBookingHandler) Handle(ctx context.Context, cmd RescheduleBookingCommand) (RescheduleBookingResult, error) {
	slot, err := domain.NewSlot(cmd.Date, cmd.Time)
	if err != nil {
		return RescheduleBookingResult{}, err
	}

	actor := domain.Student(cmd.StudentID)
	var quote domain.Refund
	booking, err := h.transition(ctx, cmd.BookingID, cmd.StudentID, func(b *domain.Booking, now time.Time) error {
		var err error
		quote, err = b.Reschedule(actor, slot, h.policy, now)
		return err
	})
	if err != nil {
		return RescheduleBookingResult{}, err
	}
	return RescheduleBookingResult{Booking: booking, RefundQuote: quote}, nil
}
