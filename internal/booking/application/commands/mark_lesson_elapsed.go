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

// MarkLessonElapsedCommand moves a lesson whose start has passed to evaluation.
// At is the evaluation instant; zero means the handler's clock.
type MarkLessonElapsedCommand struct {
	BookingID uuid.UUID
	Actor     domain.Actor
	At        time.Time
}

// MarkLessonElapsedHandler handles the MarkLessonElapsedCommand.
type MarkLessonElapsedHandler struct {
	lifecycle
}

// NewMarkLessonElapsedHandler creates a new MarkLessonElapsedHandler.
func NewMarkLessonElapsedHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock) *MarkLessonElapsedHandler {
	return &MarkLessonElapsedHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock)}
}

// Handle executes the MarkLessonElapsedCommand.
func (h *MarkLessonElapsedHandler) Handle(ctx context.Context, cmd MarkLessonElapsedCommand) (*domain.Booking, error) {
	return h.transitionAt(ctx, cmd.BookingID, cmd.Actor.ID, cmd.At, func(b *domain.Booking, now time.Time) error {
		return b.MarkLessonElapsed(cmd.Actor, now)
	})
}
