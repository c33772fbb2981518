// Package outbox implements the transactional outbox: events are stored in
// the same transaction as the aggregate and published afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/eventbus"
)

// Message is one stored event.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      uuid.UUID
	EventType        string
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	RetryCount       int
	LastError        string
	NextRetryAt      *time.Time
	DeadLetteredAt   *time.Time
	DeadLetterReason string
}

type metadataJSON struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	CausationID   uuid.UUID `json:"causation_id"`
	UserID        uuid.UUID `json:"user_id"`
}

// NewMessage encodes a domain event. The event's exported fields become the payload.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event.RoutingKey(), err)
	}
	meta := event.Metadata()
	metadata, err := json.Marshal(metadataJSON{
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		UserID:        meta.UserID,
	})
	if err != nil {
		return nil, err
	}
	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     event.RoutingKey(),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// Envelope wraps the payload with identity and tracing fields for the bus.
func (m *Message) Envelope() ([]byte, error) {
	var meta metadataJSON
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("decode metadata of message %d: %w", m.ID, err)
		}
	}
	return json.Marshal(eventbus.Envelope{
		EventID:       m.EventID,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		RoutingKey:    m.RoutingKey,
		OccurredAt:    m.CreatedAt,
		Payload:       m.Payload,
		Metadata: eventbus.EnvelopeMeta{
			CorrelationID: meta.CorrelationID,
			CausationID:   meta.CausationID,
			UserID:        meta.UserID,
		},
	})
}

// IsPublished returns true if the message has been published.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// Repository persists outbox messages.
type Repository interface {
	// SaveBatch stores messages; called inside the aggregate's transaction.
	SaveBatch(ctx context.Context, msgs []*Message) error
	// GetUnpublished returns pending messages due at now, oldest first.
	GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string, at time.Time) error
	// DeleteOld removes messages published before the cutoff.
	DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error)
	// CountPending counts messages neither published nor dead-lettered.
	CountPending(ctx context.Context) (int64, error)
}

// SaveEvents converts events to messages and stores them in one batch.
func SaveEvents(ctx context.Context, repo Repository, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return repo.SaveBatch(ctx, msgs)
}
