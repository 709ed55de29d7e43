package enums

import "fmt"

// EventName is the name of a realtime event pushed to user sessions.
type EventName string

const (
	EventNewOrder        EventName = "new-order"
	EventStatusChanged   EventName = "status-changed"
	EventOrderCancelled  EventName = "order-cancelled"
	EventNewBuyerMessage EventName = "new-buyer-message"
	EventSellerReply     EventName = "seller-reply"
)

var validEventNames = []EventName{
	EventNewOrder,
	EventStatusChanged,
	EventOrderCancelled,
	EventNewBuyerMessage,
	EventSellerReply,
}

func (e EventName) String() string {
	return string(e)
}

// IsValid checks whether the name is one clients subscribe to.
func (e EventName) IsValid() bool {
	for _, candidate := range validEventNames {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEventName converts raw strings into EventName.
func ParseEventName(value string) (EventName, error) {
	for _, candidate := range validEventNames {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event name %q", value)
}
