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

// CancelBookingCommand cancels on behalf of the student or instructor.
type CancelBookingCommand struct {
	BookingID uuid.UUID
	Actor     domain.Actor
	Reason    string
}

// CancelBookingResult carries the cancelled booking and the refund applied.
type CancelBookingResult struct {
	Booking *domain.Booking
	Refund  domain.Refund
}

// CancelBookingHandler handles the CancelBookingCommand.
type CancelBookingHandler struct {
	lifecycle
	policy domain.RefundPolicy
}

// NewCancelBookingHandler creates a new CancelBookingHandler.
func NewCancelBookingHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	policy domain.RefundPolicy,
) *CancelBookingHandler {
	return &CancelBookingHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock), policy: policy}
}

// Handle executes the CancelBookingCommand.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (CancelBookingResult, error) {
	var refund domain.Refund
	booking, err := h.transition(ctx, cmd.BookingID, cmd.Actor.ID, func(b *domain.Booking, now time.Time) error {
		var err error
		refund, err = b.Cancel(cmd.Actor, cmd.Reason, h.policy, now)
		return err
	})
	if err != nil {
		return CancelBookingResult{}, err
	}
	return CancelBookingResult{Booking: booking, Refund: refund}, nil
}
