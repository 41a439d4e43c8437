package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Pizza sizes and their price multipliers
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

var sizeMultipliers = map[string]float64{
	SizeSmall:  1.0,
	SizeMedium: 1.25,
	SizeLarge:  1.5,
}

// SizeMultiplier returns the price multiplier for a pizza size
func SizeMultiplier(size string) (float64, bool) {
	m, ok := sizeMultipliers[size]
	return m, ok
}

// Payment states and methods
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"

	PayCash   = "cash"
	PayCard   = "card"
	PayOnline = "online"
)

// IngredientSnapshot is an immutable copy of an ingredient's identity and
// price taken at order-creation time. It is deliberately distinct from the
// live catalog row: catalog edits after the order is placed must not change
// what the customer was charged.
type IngredientSnapshot struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// StatusChange is one immutable entry in an order's append-only history
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changed_by,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
	Note      string      `json:"note,omitempty"`
}

// Order is a placed customer order. Ingredient choices are embedded as
// snapshots, never as live references, and TotalPrice is fixed at creation.
type Order struct {
	ID     string `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"index" json:"user_id"`

	// Denormalized contact fields so the kitchen never needs a user join
	CustomerEmail   string `gorm:"index" json:"customer_email"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	DeliveryAddress string `json:"delivery_address"`

	Base     IngredientSnapshot   `gorm:"serializer:json" json:"pizza_base"`
	Sauce    IngredientSnapshot   `gorm:"serializer:json" json:"sauce"`
	Cheese   IngredientSnapshot   `gorm:"serializer:json" json:"cheese"`
	Toppings []IngredientSnapshot `gorm:"serializer:json" json:"toppings"`

	Size     string `json:"size"`
	Quantity int    `json:"quantity"`

	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`

	Status              OrderStatus `gorm:"index;default:'pending'" json:"status"`
	SpecialInstructions string      `gorm:"size:500" json:"special_instructions,omitempty"`

	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time `json:"actual_delivery,omitempty"`

	PaymentStatus string `gorm:"default:'pending'" json:"payment_status"`
	PaymentMethod string `gorm:"default:'cash'" json:"payment_method"`

	StatusHistory []StatusChange `gorm:"serializer:json" json:"status_history"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderNumber derives the human-readable order reference from the id
func (o *Order) OrderNumber() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "ORD-" + strings.ToUpper(id)
}

// AppendHistory records a status change. History is append-only: entries are
// never edited or removed once written.
func (o *Order) AppendHistory(status OrderStatus, changedBy, note string) {
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: time.Now().UTC(),
		Note:      note,
	})
}

// MarshalJSON includes the derived order number in API responses
func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	return json.Marshal(struct {
		alias
		OrderNumber string `json:"order_number"`
	}{alias(o), o.OrderNumber()})
}
