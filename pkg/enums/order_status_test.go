package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusCanAdvanceTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusDelivered, true},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusConfirmed, false},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusPending, OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanAdvanceTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusPredicates(t *testing.T) {
	assert.True(t, OrderStatusPending.Cancellable())
	assert.True(t, OrderStatusConfirmed.Cancellable())
	assert.False(t, OrderStatusShipped.Cancellable())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusShipped.IsActive())
	assert.False(t, OrderStatusCancelled.IsActive())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)

	_, err = ParseOrderStatus("vendido")
	assert.Error(t, err)
}

func TestParseEventName(t *testing.T) {
	name, err := ParseEventName("seller-reply")
	require.NoError(t, err)
	assert.True(t, name.IsValid())

	_, err = ParseEventName("chat")
	assert.Error(t, err)
}
