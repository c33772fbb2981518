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

// SkipEvaluationCommand completes a lesson without rating it.
type SkipEvaluationCommand struct {
	BookingID uuid.UUID
	StudentID uuid.UUID
}

// SkipEvaluationHandler handles the SkipEvaluationCommand.
type SkipEvaluationHandler struct {
	lifecycle
}

// NewSkipEvaluationHandler creates a new SkipEvaluationHandler.
func NewSkipEvaluationHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock) *SkipEvaluationHandler {
	return &SkipEvaluationHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock)}
}

// Handle executes the SkipEvaluationCommand.
func (h *SkipEvaluationHandler) Handle(ctx context.Context, cmd SkipEvaluationCommand) (*domain.Booking, error) {
	actor := domain.Student(cmd.StudentID)
	return h.transition(ctx, cmd.BookingID, cmd.StudentID, func(b *domain.Booking, now time.Time) error {
		return b.SkipEvaluation(actor, now)
	})
}
