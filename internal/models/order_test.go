package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderNumber(t *testing.T) {
	order := Order{ID: "0b1f8e6a-3c3e-4f62-9a51-4dfc2a9e41ab"}
	assert.Equal(t, "ORD-2A9E41AB", order.OrderNumber())

	short := Order{ID: "abc"}
	assert.Equal(t, "ORD-ABC", short.OrderNumber())
}

func TestAppendHistoryIsAppendOnly(t *testing.T) {
	order := Order{ID: "x", Status: StatusPending}
	order.AppendHistory(StatusPending, "Alice Smith", "order placed")
	order.AppendHistory(StatusConfirmed, "admin:1", "")

	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, StatusPending, order.StatusHistory[0].Status)
	assert.Equal(t, StatusConfirmed, order.StatusHistory[1].Status)
	assert.False(t, order.StatusHistory[1].ChangedAt.Before(order.StatusHistory[0].ChangedAt))
}

func TestOrderJSONIncludesOrderNumber(t *testing.T) {
	order := Order{ID: "0b1f8e6a-3c3e-4f62-9a51-4dfc2a9e41ab", Status: StatusPending}
	payload, err := json.Marshal(order)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "ORD-2A9E41AB", decoded["order_number"])
	assert.Equal(t, "pending", decoded["status"])
}

func TestSizeMultiplier(t *testing.T) {
	testCases := []struct {
		size       string
		multiplier float64
		ok         bool
	}{
		{SizeSmall, 1.0, true},
		{SizeMedium, 1.25, true},
		{SizeLarge, 1.5, true},
		{"extra-large", 0, false},
	}
	for _, tt := range testCases {
		m, ok := SizeMultiplier(tt.size)
		assert.Equal(t, tt.ok, ok, tt.size)
		if ok {
			assert.Equal(t, tt.multiplier, m, tt.size)
		}
	}
}

func TestIsLowStock(t *testing.T) {
	item := CatalogItem{StockQuantity: 5, MinThreshold: 5}
	assert.True(t, item.IsLowStock())

	item.StockQuantity = 6
	assert.False(t, item.IsLowStock())

	item.StockQuantity = 0
	assert.True(t, item.IsLowStock())
}
