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

// EvaluateBookingCommand rates a finished lesson.
type EvaluateBookingCommand struct {
	BookingID uuid.UUID
	StudentID uuid.UUID
	Rating    int
	Review    string
}

// EvaluateBookingHandler handles the EvaluateBookingCommand.
type EvaluateBookingHandler struct {
	lifecycle
}

// NewEvaluateBookingHandler creates a new EvaluateBookingHandler.
func NewEvaluateBookingHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock) *EvaluateBookingHandler {
	return &EvaluateBookingHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock)}
}

// Handle executes the EvaluateBookingCommand.
func (h *EvaluateBookingHandler) Handle(ctx context.Context, cmd EvaluateBookingCommand) (*domain.Booking, error) {
	actor := domain.Student(cmd.StudentID)
	return h.transition(ctx, cmd.BookingID, cmd.StudentID, func(b *domain.Booking, now time.Time) error {
		return b.Evaluate(actor, cmd.Rating, cmd.Review, now)
	})
}
