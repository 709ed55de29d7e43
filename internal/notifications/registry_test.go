package notifications

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roperito/roperito-backend/pkg/metrics"
)

func detachedClient(registry *Registry, userID uuid.UUID, buffer int) *Client {
	return &Client{userID: userID, send: make(chan []byte, buffer), registry: registry}
}

func TestRegistryDeliverToEveryConnection(t *testing.T) {
	registry := NewRegistry(metrics.NewRelayMetrics(prometheus.NewRegistry()))
	user := uuid.New()
	phone := detachedClient(registry, user, 2)
	laptop := detachedClient(registry, user, 2)
	registry.Register(phone)
	registry.Register(laptop)
	assert.Equal(t, 2, registry.Connections(user))

	delivered, dropped := registry.Deliver("new-order", user, []byte("hello"))
	assert.Equal(t, 2, delivered)
	assert.Zero(t, dropped)
	assert.Equal(t, []byte("hello"), <-phone.send)
	assert.Equal(t, []byte("hello"), <-laptop.send)
}

func TestRegistryDropsWhenBufferFull(t *testing.T) {
	registry := NewRegistry(nil)
	user := uuid.New()
	c := detachedClient(registry, user, 1)
	registry.Register(c)

	delivered, _ := registry.Deliver("seller-reply", user, []byte("1"))
	assert.Equal(t, 1, delivered)
	delivered, dropped := registry.Deliver("seller-reply", user, []byte("2"))
	assert.Zero(t, delivered)
	assert.Equal(t, 1, dropped)
}

func TestRegistryOfflineUser(t *testing.T) {
	registry := NewRegistry(nil)
	delivered, dropped := registry.Deliver("new-order", uuid.New(), []byte("x"))
	assert.Zero(t, delivered)
	assert.Zero(t, dropped)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	registry := NewRegistry(nil)
	user := uuid.New()
	c := detachedClient(registry, user, 1)
	registry.Register(c)

	registry.Unregister(c)
	registry.Unregister(c)
	assert.Zero(t, registry.Connections(user))

	_, ok := <-c.send
	assert.False(t, ok, "send queue should be closed")
}

func TestRegistryCloseAll(t *testing.T) {
	registry := NewRegistry(nil)
	a := detachedClient(registry, uuid.New(), 1)
	b := detachedClient(registry, uuid.New(), 1)
	registry.Register(a)
	registry.Register(b)

	require.NoError(t, registry.CloseAll())
	assert.Zero(t, registry.Connections(a.userID))
	assert.Zero(t, registry.Connections(b.userID))
}
