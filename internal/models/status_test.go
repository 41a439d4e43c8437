package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"confirmed to in_kitchen", StatusConfirmed, StatusInKitchen, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"in_kitchen to out_for_delivery", StatusInKitchen, StatusOutForDelivery, true},
		{"out_for_delivery to delivered", StatusOutForDelivery, StatusDelivered, true},
		{"in_kitchen to cancelled is blocked", StatusInKitchen, StatusCancelled, false},
		{"pending to in_kitchen skips confirmation", StatusPending, StatusInKitchen, false},
		{"delivered is terminal", StatusDelivered, StatusPending, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, false},
		{"no backwards transition", StatusConfirmed, StatusPending, false},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusOutForDelivery.IsTerminal())
}

func TestIsCancellable(t *testing.T) {
	assert.True(t, StatusPending.IsCancellable())
	assert.True(t, StatusConfirmed.IsCancellable())
	assert.False(t, StatusInKitchen.IsCancellable())
	assert.False(t, StatusOutForDelivery.IsCancellable())
	assert.False(t, StatusDelivered.IsCancellable())
	assert.False(t, StatusCancelled.IsCancellable())
}

func TestParseOrderStatus(t *testing.T) {
	s, ok := ParseOrderStatus("in_kitchen")
	assert.True(t, ok)
	assert.Equal(t, StatusInKitchen, s)

	_, ok = ParseOrderStatus("sautéing")
	assert.False(t, ok)
}
