package eventbus

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry maps routing keys to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{handlers: make(map[string][]Handler), logger: logger}
}

// Register adds h under each of its routing keys.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range h.RoutingKeys() {
		r.handlers[key] = append(r.handlers[key], h)
		r.logger.Debug("handler registered", zap.String("routing_key", key))
	}
}

// RoutingKeys lists every key with at least one handler, sorted.
func (r *Registry) RoutingKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dispatch runs every handler for env.RoutingKey. A failing handler does not
// stop the others; all failures are joined into the returned error.
func (r *Registry) Dispatch(ctx context.Context, env *Envelope) error {
	r.mu.RLock()
	handlers := r.handlers[env.RoutingKey]
	r.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, env); err != nil {
			r.logger.Error("event handler failed",
				zap.String("routing_key", env.RoutingKey),
				zap.Stringer("event_id", env.EventID),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
