package models

import (
	"time"

	"gorm.io/gorm"
)

// IngredientKind identifies one of the four catalog collections
type IngredientKind string

const (
	KindBase    IngredientKind = "base"
	KindSauce   IngredientKind = "sauce"
	KindCheese  IngredientKind = "cheese"
	KindTopping IngredientKind = "topping"
)

// AllKinds lists the catalog collections in menu order
var AllKinds = []IngredientKind{KindBase, KindSauce, KindCheese, KindTopping}

// ParseIngredientKind validates a raw kind string from a URL parameter
func ParseIngredientKind(raw string) (IngredientKind, bool) {
	switch IngredientKind(raw) {
	case KindBase, KindSauce, KindCheese, KindTopping:
		return IngredientKind(raw), true
	}
	return "", false
}

// CatalogItem holds the fields shared by all four ingredient kinds.
// StockQuantity is never allowed to go negative: decrements happen only
// through CatalogService.DecrementStock, which is conditional on sufficient
// stock.
type CatalogItem struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"not null" json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `gorm:"not null" json:"price" binding:"min=0"`
	StockQuantity int     `gorm:"not null;default:0" json:"stock_quantity" binding:"min=0"`
	MinThreshold  int     `gorm:"not null;default:5" json:"min_threshold" binding:"min=0"`
	Active        bool    `gorm:"default:true" json:"is_active"`
	ImageURL      string  `json:"image_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLowStock reports whether the item is at or below its restock threshold.
// Advisory only: it never blocks ordering.
func (c *CatalogItem) IsLowStock() bool {
	return c.StockQuantity <= c.MinThreshold
}

// Snapshot captures the item's identity and price at this moment. Orders embed
// these copies so later catalog edits never alter historical totals.
func (c *CatalogItem) Snapshot() IngredientSnapshot {
	return IngredientSnapshot{ID: c.ID, Name: c.Name, Price: c.Price}
}

// PizzaBase is the dough/crust component
type PizzaBase struct {
	CatalogItem `gorm:"embedded"`
	Category    string `json:"category"` // thin, thick, stuffed, gluten_free
}

func (PizzaBase) TableName() string { return "pizza_bases" }

// Sauce is the sauce component
type Sauce struct {
	CatalogItem `gorm:"embedded"`
	SpiceLevel  string `json:"spice_level"` // mild, medium, hot
}

func (Sauce) TableName() string { return "sauces" }

// Cheese is the cheese component
type Cheese struct {
	CatalogItem `gorm:"embedded"`
	Vegan       bool `json:"is_vegan"`
}

func (Cheese) TableName() string { return "cheeses" }

// Topping is an optional extra; orders may carry zero or more
type Topping struct {
	CatalogItem `gorm:"embedded"`
	Category    string   `json:"category"` // vegetable, meat, seafood, premium, other
	Allergens   []string `gorm:"serializer:json" json:"allergens,omitempty"`
}

func (Topping) TableName() string { return "toppings" }

// LowStockItem is a dashboard row for an ingredient at or below threshold
type LowStockItem struct {
	Kind          IngredientKind `json:"kind"`
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	StockQuantity int            `json:"stock_quantity"`
	MinThreshold  int            `json:"min_threshold"`
}

// CatalogModels returns one zero value per catalog table, for migration
func CatalogModels() []interface{} {
	return []interface{}{&PizzaBase{}, &Sauce{}, &Cheese{}, &Topping{}}
}

// AutoMigrateAll migrates every persisted model of the application
func AutoMigrateAll(db *gorm.DB) error {
	models := append(CatalogModels(), &User{}, &Order{}, &OAuthClient{}, &OAuthToken{})
	return db.AutoMigrate(models...)
}
