package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

// QuoteRefundQuery asks what cancelling now would refund.
type QuoteRefundQuery struct {
	BookingID uuid.UUID
	Actor     domain.Actor
}

// QuoteRefundHandler handles the QuoteRefundQuery.
type QuoteRefundHandler struct {
	repo   domain.Repository
	clock  sharedDomain.Clock
	policy domain.RefundPolicy
}

// NewQuoteRefundHandler creates a new QuoteRefundHandler.
func NewQuoteRefundHandler(repo domain.Repository, clock sharedDomain.Clock, policy domain.RefundPolicy) *QuoteRefundHandler {
	return &QuoteRefundHandler{repo: repo, clock: clock, policy: policy}
}

// Handle executes the QuoteRefundQuery.
func (h *QuoteRefundHandler) Handle(ctx context.Context, query QuoteRefundQuery) (domain.Refund, error) {
	booking, err := h.repo.FindByID(ctx, query.BookingID)
	if err != nil {
		return domain.Refund{}, err
	}
	if booking == nil {
		return domain.Refund{}, domain.ErrBookingNotFound
	}
	if !canView(query.Actor, booking) {
		return domain.Refund{}, domain.ErrForbidden
	}
	return booking.QuoteRefund(h.policy, h.clock.Now()), nil
}
