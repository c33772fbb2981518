package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// InProcessBus dispatches published envelopes synchronously to a Registry.
// It is the local-mode replacement for RabbitMQ.
type InProcessBus struct {
	registry *Registry
	logger   *zap.Logger
}

// NewInProcessBus creates a bus over registry.
func NewInProcessBus(registry *Registry, logger *zap.Logger) *InProcessBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InProcessBus{registry: registry, logger: logger}
}

// Publish decodes body and dispatches it. Handler errors are returned so the
// outbox keeps the message for a retry.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope for %s: %w", routingKey, err)
	}
	if env.RoutingKey == "" {
		env.RoutingKey = routingKey
	}
	if err := b.registry.Dispatch(ctx, &env); err != nil {
		return err
	}
	b.logger.Debug("event dispatched in-process",
		zap.String("routing_key", routingKey),
		zap.Stringer("event_id", env.EventID),
	)
	return nil
}

// Close is a no-op.
func (b *InProcessBus) Close() error { return nil }

// NoopPublisher drops every message.
type NoopPublisher struct {
	logger *zap.Logger
}

// NewNoopPublisher creates a publisher that only logs.
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs and discards body.
func (p *NoopPublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	p.logger.Debug("noop publish", zap.String("routing_key", routingKey), zap.Int("size", len(body)))
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error { return nil }
