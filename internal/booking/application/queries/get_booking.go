package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

// GetBookingQuery fetches one booking on behalf of an actor.
type GetBookingQuery struct {
	BookingID uuid.UUID
	Actor     domain.Actor
}

// GetBookingHandler handles the GetBookingQuery.
type GetBookingHandler struct {
	repo  domain.Repository
	clock sharedDomain.Clock
}

// NewGetBookingHandler creates a new GetBookingHandler.
func NewGetBookingHandler(repo domain.Repository, clock sharedDomain.Clock) *GetBookingHandler {
	return &GetBookingHandler{repo: repo, clock: clock}
}

// Handle executes the GetBookingQuery.
func (h *GetBookingHandler) Handle(ctx context.Context, query GetBookingQuery) (*BookingDTO, error) {
	booking, err := h.repo.FindByID(ctx, query.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.ErrBookingNotFound
	}
	if !canView(query.Actor, booking) {
		return nil, domain.ErrForbidden
	}
	dto := ToDTO(booking, h.clock.Now())
	return &dto, nil
}
