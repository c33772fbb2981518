// Package subscribers reacts to booking events after they leave the outbox.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/eventbus"
)

// RefundRequest is what the payment side needs to give money back.
type RefundRequest struct {
	EventID   uuid.UUID
	BookingID uuid.UUID
	StudentID uuid.UUID
	Percent   int
	Amount    decimal.Decimal
	Reason    string
}

// RefundIssuer pays refunds out. Implementations must tolerate the same
// EventID twice, since delivery is at least once.
type RefundIssuer interface {
	IssueRefund(ctx context.Context, req RefundRequest) error
}

// RefundSubscriber forwards refunds recorded on cancellation to an issuer.
type RefundSubscriber struct {
	issuer RefundIssuer
	logger *zap.Logger
}

// NewRefundSubscriber creates a RefundSubscriber.
func NewRefundSubscriber(issuer RefundIssuer, logger *zap.Logger) *RefundSubscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundSubscriber{issuer: issuer, logger: logger.Named("refunds")}
}

// RoutingKeys implements eventbus.Handler.
func (s *RefundSubscriber) RoutingKeys() []string {
	return []string{domain.RoutingKeyCancelled}
}

// Handle implements eventbus.Handler. Cancellations without a refund are
// ignored; a malformed payload is logged and dropped so it is not retried.
func (s *RefundSubscriber) Handle(ctx context.Context, env *eventbus.Envelope) error {
	var payload struct {
		StudentID uuid.UUID     `json:"student_id"`
		Reason    string        `json:"reason"`
		Refund    domain.Refund `json:"refund"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		s.logger.Error("unreadable cancellation payload",
			zap.Stringer("event_id", env.EventID),
			zap.Error(err),
		)
		return nil
	}
	if payload.Refund.IsZero() {
		return nil
	}

	req := RefundRequest{
		EventID:   env.EventID,
		BookingID: env.AggregateID,
		StudentID: payload.StudentID,
		Percent:   payload.Refund.EligiblePercent,
		Amount:    payload.Refund.Amount,
		Reason:    payload.Reason,
	}
	if err := s.issuer.IssueRefund(ctx, req); err != nil {
		return fmt.Errorf("issue refund for booking %s: %w", req.BookingID, err)
	}
	return nil
}

// LoggingRefundIssuer records refunds in the log. Money movement happens in
// the payment provider, outside this service.
type LoggingRefundIssuer struct {
	logger *zap.Logger
}

// NewLoggingRefundIssuer creates a LoggingRefundIssuer.
func NewLoggingRefundIssuer(logger *zap.Logger) *LoggingRefundIssuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingRefundIssuer{logger: logger}
}

// IssueRefund logs req.
func (i *LoggingRefundIssuer) IssueRefund(_ context.Context, req RefundRequest) error {
	i.logger.Info("refund due",
		zap.Stringer("booking_id", req.BookingID),
		zap.Stringer("student_id", req.StudentID),
		zap.Int("percent", req.Percent),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.Stringer("event_id", req.EventID),
	)
	return nil
}
