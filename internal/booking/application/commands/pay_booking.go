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

// PayBookingCommand records what the payment processor reported. Actor is
// the student for in-app checkout or the system for processor callbacks.
type PayBookingCommand struct {
	BookingID uuid.UUID
	Actor     domain.Actor
	Outcome   domain.PaymentOutcome
	Reference string
}

// PayBookingHandler handles the PayBookingCommand.
type PayBookingHandler struct {
	lifecycle
}

// NewPayBookingHandler creates a new PayBookingHandler.
func NewPayBookingHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock) *PayBookingHandler {
	return &PayBookingHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock)}
}

// Handle executes the PayBookingCommand.
func (h *PayBookingHandler) Handle(ctx context.Context, cmd PayBookingCommand) (*domain.Booking, error) {
	report := domain.PaymentReport{Outcome: cmd.Outcome, Reference: cmd.Reference}
	return h.transition(ctx, cmd.BookingID, cmd.Actor.ID, func(b *domain.Booking, now time.Time) error {
		return b.Pay(cmd.Actor, report, now)
	})
}
