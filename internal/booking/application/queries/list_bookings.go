package queries

import (
	"context"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

// ListBookingsQuery lists the actor's bookings, optionally by status.
type ListBookingsQuery struct {
	Actor    domain.Actor
	Statuses []string
	Limit    int
}

// ListBookingsHandler handles the ListBookingsQuery.
type ListBookingsHandler struct {
	repo  domain.Repository
	clock sharedDomain.Clock
}

// NewListBookingsHandler creates a new ListBookingsHandler.
func NewListBookingsHandler(repo domain.Repository, clock sharedDomain.Clock) *ListBookingsHandler {
	return &ListBookingsHandler{repo: repo, clock: clock}
}

// Handle executes the ListBookingsQuery. Status names may use legacy aliases.
func (h *ListBookingsHandler) Handle(ctx context.Context, query ListBookingsQuery) ([]BookingDTO, error) {
	filter, err := scope(query.Actor)
	if err != nil {
		return nil, err
	}
	for _, raw := range query.Statuses {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	filter.Limit = query.Limit

	bookings, err := h.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToDTOs(bookings, h.clock.Now()), nil
}
