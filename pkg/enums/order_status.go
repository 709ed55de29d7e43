package enums

import "fmt"

// OrderStatus tracks the lifecycle of a single-product order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// progression ranks the forward path; cancelled sits outside it.
var progression = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusConfirmed: 1,
	OrderStatusShipped:   2,
	OrderStatusDelivered: 3,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal is true once no further business transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsActive is true for orders that still hold their product reserved.
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed || s == OrderStatusShipped
}

// Cancellable reports whether either party may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// CanAdvanceTo reports whether a seller may move an order from s to next.
// Only forward moves along pending, confirmed, shipped, delivered are allowed.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	from, ok := progression[s]
	if !ok {
		return false
	}
	to, ok := progression[next]
	if !ok {
		return false
	}
	return to > from
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
