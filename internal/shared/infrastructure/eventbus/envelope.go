// Package eventbus moves domain events from the outbox to their handlers,
// either in-process or through RabbitMQ.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire form of a published domain event.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EnvelopeMeta    `json:"metadata"`
}

// EnvelopeMeta carries tracing identifiers.
type EnvelopeMeta struct {
	CorrelationID uuid.UUID `json:"correlation_id,omitempty"`
	CausationID   uuid.UUID `json:"causation_id,omitempty"`
	UserID        uuid.UUID `json:"user_id,omitempty"`
}

// Handler reacts to one or more routing keys.
type Handler interface {
	RoutingKeys() []string
	Handle(ctx context.Context, env *Envelope) error
}

// Publisher sends an encoded envelope under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}
