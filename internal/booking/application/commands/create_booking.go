package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedApplication "github.com/fsgregorio/driverapp-sub000/internal/shared/application"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/outbox"
)

// CreateBookingCommand is a student's lesson request. Either Date and Time
// or Options must be given.
type CreateBookingCommand struct {
	StudentID       uuid.UUID
	InstructorID    uuid.UUID
	Date            string
	Time            string
	Options         []domain.SlotOption
	DurationMinutes int
	Price           decimal.Decimal
	ClassTypes      []string
	PickupType      string
}

// CreateBookingHandler handles the CreateBookingCommand.
type CreateBookingHandler struct {
	lifecycle
	location *time.Location
}

// NewCreateBookingHandler creates a new CreateBookingHandler. Slots are
// interpreted in loc.
func NewCreateBookingHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	loc *time.Location,
) *CreateBookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CreateBookingHandler{lifecycle: newLifecycle(repo, outboxRepo, uow, clock), location: loc}
}

// Handle executes the CreateBookingCommand.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*domain.Booking, error) {
	params := domain.NewBookingParams{
		StudentID:       cmd.StudentID,
		InstructorID:    cmd.InstructorID,
		Options:         cmd.Options,
		DurationMinutes: cmd.DurationMinutes,
		Price:           cmd.Price,
		ClassTypes:      cmd.ClassTypes,
		PickupType:      domain.PickupType(cmd.PickupType),
		Location:        h.location,
	}
	if cmd.Date != "" || cmd.Time != "" {
		slot, err := domain.NewSlot(cmd.Date, cmd.Time)
		if err != nil {
			return nil, err
		}
		params.Slot = &slot
	}

	booking, err := domain.NewBooking(params, h.clock.Now())
	if err != nil {
		return nil, err
	}

	return sharedApplication.InUnitOfWork(ctx, h.uow, func(txCtx context.Context) (*domain.Booking, error) {
		if err := h.persist(txCtx, booking, cmd.StudentID); err != nil {
			return nil, err
		}
		return booking, nil
	})
}
