package commands

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedApplication "github.com/fsgregorio/driverapp-sub000/internal/shared/application"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/outbox"
)

// ExpireBookingCommand auto-cancels one unpaid booking near its deadline.
// At is the sweep instant; zero means the handler's clock.
type ExpireBookingCommand struct {
	BookingID uuid.UUID
	At        time.Time
}

// ExpireBookingHandler handles the ExpireBookingCommand.
type ExpireBookingHandler struct {
	lifecycle
}

// NewExpireBookingHandler creates a new ExpireBookingHandler.
func NewExpireBookingHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock) *ExpireBookingHandler {
	return &ExpireBookingHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock)}
}

// Handle re-reads the booking and expires it when still due. It returns
// nil, without error, when the booking is no longer due, for instance
// because another writer moved it first.
func (h *ExpireBookingHandler) Handle(ctx context.Context, cmd ExpireBookingCommand) (*domain.Booking, error) {
	booking, err := h.transitionAt(ctx, cmd.BookingID, uuid.Nil, cmd.At, func(b *domain.Booking, now time.Time) error {
		if !b.ExpiryDue(now) {
			return errNothingToDo
		}
		return b.Expire(now)
	})
	if errors.Is(err, errNothingToDo) {
		return nil, nil
	}
	return booking, err
}
