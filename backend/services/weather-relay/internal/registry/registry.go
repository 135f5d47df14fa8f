package registry

import (
	"sync"

	"go.uber.org/zap"

	"weatherrelay/backend/services/weather-relay/internal/metrics"
)

// Subscriber is one live viewer connection.
type Subscriber interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

// Registry tracks live subscribers. All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	closed      bool
	logger      *zap.Logger
}

// New builds an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		subscribers: make(map[string]Subscriber),
		logger:      logger,
	}
}

// Add registers a subscriber. Adding an already present id is a no-op and
// adding after Close closes the subscriber instead. It reports whether the
// subscriber was inserted.
func (r *Registry) Add(sub Subscriber) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = sub.Close()
		return false
	}
	if _, ok := r.subscribers[sub.ID()]; ok {
		r.mu.Unlock()
		return false
	}
	r.subscribers[sub.ID()] = sub
	total := len(r.subscribers)
	r.mu.Unlock()

	metrics.Subscribers.Set(float64(total))
	r.logger.Info("subscriber connected", zap.String("subscriber_id", sub.ID()), zap.Int("total_subscribers", total))
	return true
}

// Remove unregisters a subscriber by id. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	if _, ok := r.subscribers[id]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.subscribers, id)
	total := len(r.subscribers)
	r.mu.Unlock()

	metrics.Subscribers.Set(float64(total))
	r.logger.Info("subscriber disconnected", zap.String("subscriber_id", id), zap.Int("total_subscribers", total))
	return true
}

// Snapshot returns the current members. The returned slice is owned by the caller.
func (r *Registry) Snapshot() []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Subscriber, 0, len(r.subscribers))
	for _, sub := range r.subscribers {
		out = append(out, sub)
	}
	return out
}

// Len returns the number of members.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers)
}

// Close removes and closes every member. Later Adds are rejected.
func (r *Registry) Close() {
	r.mu.Lock()
	members := r.subscribers
	r.subscribers = make(map[string]Subscriber)
	r.closed = true
	r.mu.Unlock()

	metrics.Subscribers.Set(0)
	for id, sub := range members {
		if err := sub.Close(); err != nil {
			r.logger.Warn("failed to close subscriber", zap.String("subscriber_id", id), zap.Error(err))
		}
	}
	if len(members) > 0 {
		r.logger.Info("registry closed", zap.Int("closed_subscribers", len(members)))
	}
}
