package models

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusInKitchen      OrderStatus = "in_kitchen"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// validNext encodes the only permitted status transitions. Anything not listed
// here requires an explicit forced override.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:        {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:      {StatusInKitchen: true, StatusCancelled: true},
	StatusInKitchen:      {StatusOutForDelivery: true},
	StatusOutForDelivery: {StatusDelivered: true},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// CanTransition reports whether moving from one status to another is allowed
// by the transition table
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return len(validNext[s]) == 0
}

// IsCancellable reports whether an order in this status may still be cancelled
// by its owner
func (s OrderStatus) IsCancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// ParseOrderStatus validates a raw status string
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(raw)
	_, known := validNext[s]
	return s, known
}
