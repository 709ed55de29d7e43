package notifications

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/roperito/roperito-backend/pkg/metrics"
)

// Registry maps user ids to their live connections on this instance.
type Registry struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	metrics *metrics.RelayMetrics
}

// NewRegistry builds an empty registry. m may be nil.
func NewRegistry(m *metrics.RelayMetrics) *Registry {
	return &Registry{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		metrics: m,
	}
}

// Register adds c under its user id.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		r.clients[c.userID] = set
	}
	set[c] = struct{}{}
	r.metrics.Connected(1)
}

// Unregister removes c and closes its send queue. It is safe to call twice.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.clients, c.userID)
	}
	close(c.send)
	r.metrics.Connected(-1)
}

// Deliver queues frame on every connection of userID without blocking.
// Connections whose queue is full miss the frame.
func (r *Registry) Deliver(event string, userID uuid.UUID, frame []byte) (delivered, dropped int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.clients[userID]
	if len(set) == 0 {
		r.metrics.Delivered(event, metrics.OutcomeOffline)
		return 0, 0
	}
	for c := range set {
		select {
		case c.send <- frame:
			delivered++
			r.metrics.Delivered(event, metrics.OutcomeDelivered)
		default:
			dropped++
			r.metrics.Delivered(event, metrics.OutcomeDropped)
		}
	}
	return delivered, dropped
}

// Connections returns how many live connections userID has.
func (r *Registry) Connections(userID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients[userID])
}

// CloseAll drops every connection, used on shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	var all []*Client
	for _, set := range r.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	r.mu.Unlock()

	var errs error
	for _, c := range all {
		r.Unregister(c)
		errs = multierr.Append(errs, c.closeConn())
	}
	return errs
}
