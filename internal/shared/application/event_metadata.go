package application

import (
	"context"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/google/uuid"
)

type correlationKey struct{}

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// WithCorrelationID stores the request correlation id in ctx.
func WithCorrelationID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the correlation id set by WithCorrelationID.
func CorrelationIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(correlationKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// NewEventMetadata creates command-scoped metadata for domain events.
// The correlation id is inherited from ctx when present.
func NewEventMetadata(ctx context.Context, userID uuid.UUID) domain.EventMetadata {
	correlationID, ok := CorrelationIDFromContext(ctx)
	if !ok {
		correlationID = uuid.New()
	}
	return domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   uuid.New(),
		UserID:        userID,
	}
}

// ApplyEventMetadata sets metadata on all events that support it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
