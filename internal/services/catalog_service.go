package services

import (
	"errors"
	"fmt"

	"github.com/pizzamaster/pizzamaster-api/internal/models"
	"gorm.io/gorm"
)

// CatalogService provides access to the four ingredient collections and owns
// the stock-mutation contract: stock only moves through DecrementStock /
// IncrementStock / AdjustStock and can never go negative.
type CatalogService interface {
	// ListItems returns all items of a kind; activeOnly filters retired items
	ListItems(kind models.IngredientKind, activeOnly bool) (interface{}, error)
	// GetItem returns the shared catalog fields of one item
	GetItem(kind models.IngredientKind, id uint) (*models.CatalogItem, error)
	// GetItemTx is GetItem inside a caller-provided transaction
	GetItemTx(tx *gorm.DB, kind models.IngredientKind, id uint) (*models.CatalogItem, error)
	// CreateItem persists a new kind-specific ingredient
	CreateItem(kind models.IngredientKind, item interface{}) error
	// UpdateItem saves a full kind-specific ingredient
	UpdateItem(kind models.IngredientKind, item interface{}) error
	// DeactivateItem retires an item without deleting its history
	DeactivateItem(kind models.IngredientKind, id uint) error
	// DecrementStock atomically subtracts qty where stock suffices.
	// Returns ErrInsufficientStock and leaves stock untouched otherwise.
	DecrementStock(tx *gorm.DB, kind models.IngredientKind, id uint, qty int) error
	// IncrementStock unconditionally adds qty back (cancellation restore)
	IncrementStock(tx *gorm.DB, kind models.IngredientKind, id uint, qty int) error
	// AdjustStock applies an admin restock/correction delta and returns the item
	AdjustStock(kind models.IngredientKind, id uint, delta int) (*models.CatalogItem, error)
	// LowStockReport lists active items at or below their threshold
	LowStockReport() ([]models.LowStockItem, error)
	// DashboardSummary aggregates per-kind counts and total stock value
	DashboardSummary() (*InventorySummary, error)
}

// ErrInsufficientStock is returned when a decrement would drive stock negative
var ErrInsufficientStock = errors.New("insufficient stock")

// InventorySummary is the admin dashboard aggregate
type InventorySummary struct {
	TotalItems    int64                           `json:"total_items"`
	LowStockCount int                             `json:"low_stock_count"`
	TotalValue    float64                         `json:"total_value"`
	Categories    map[models.IngredientKind]int64 `json:"categories"`
}

type catalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(db *gorm.DB) CatalogService {
	return &catalogService{db: db}
}

// modelFor maps a kind to a fresh record of its gorm model
func modelFor(kind models.IngredientKind) (interface{}, error) {
	switch kind {
	case models.KindBase:
		return &models.PizzaBase{}, nil
	case models.KindSauce:
		return &models.Sauce{}, nil
	case models.KindCheese:
		return &models.Cheese{}, nil
	case models.KindTopping:
		return &models.Topping{}, nil
	}
	return nil, fmt.Errorf("unknown ingredient kind: %s", kind)
}

func (s *catalogService) ListItems(kind models.IngredientKind, activeOnly bool) (interface{}, error) {
	q := s.db
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	switch kind {
	case models.KindBase:
		var out []models.PizzaBase
		return out, q.Order("name").Find(&out).Error
	case models.KindSauce:
		var out []models.Sauce
		return out, q.Order("name").Find(&out).Error
	case models.KindCheese:
		var out []models.Cheese
		return out, q.Order("name").Find(&out).Error
	case models.KindTopping:
		var out []models.Topping
		return out, q.Order("name").Find(&out).Error
	}
	return nil, fmt.Errorf("unknown ingredient kind: %s", kind)
}

func (s *catalogService) GetItem(kind models.IngredientKind, id uint) (*models.CatalogItem, error) {
	return s.GetItemTx(s.db, kind, id)
}

func (s *catalogService) GetItemTx(tx *gorm.DB, kind models.IngredientKind, id uint) (*models.CatalogItem, error) {
	switch kind {
	case models.KindBase:
		var m models.PizzaBase
		if err := tx.First(&m, id).Error; err != nil {
			return nil, err
		}
		return &m.CatalogItem, nil
	case models.KindSauce:
		var m models.Sauce
		if err := tx.First(&m, id).Error; err != nil {
			return nil, err
		}
		return &m.CatalogItem, nil
	case models.KindCheese:
		var m models.Cheese
		if err := tx.First(&m, id).Error; err != nil {
			return nil, err
		}
		return &m.CatalogItem, nil
	case models.KindTopping:
		var m models.Topping
		if err := tx.First(&m, id).Error; err != nil {
			return nil, err
		}
		return &m.CatalogItem, nil
	}
	return nil, fmt.Errorf("unknown ingredient kind: %s", kind)
}

func (s *catalogService) CreateItem(kind models.IngredientKind, item interface{}) error {
	if _, err := modelFor(kind); err != nil {
		return err
	}
	return s.db.Create(item).Error
}

func (s *catalogService) UpdateItem(kind models.IngredientKind, item interface{}) error {
	if _, err := modelFor(kind); err != nil {
		return err
	}
	return s.db.Save(item).Error
}

func (s *catalogService) DeactivateItem(kind models.IngredientKind, id uint) error {
	model, err := modelFor(kind)
	if err != nil {
		return err
	}
	res := s.db.Model(model).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock is a single conditional update rather than read-then-write,
// so two concurrent orders for the same scarce ingredient cannot both pass a
// stale check and drive stock negative.
func (s *catalogService) DecrementStock(tx *gorm.DB, kind models.IngredientKind, id uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("decrement quantity must be positive, got %d", qty)
	}
	model, err := modelFor(kind)
	if err != nil {
		return err
	}
	res := tx.Model(model).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (s *catalogService) IncrementStock(tx *gorm.DB, kind models.IngredientKind, id uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("increment quantity must be positive, got %d", qty)
	}
	model, err := modelFor(kind)
	if err != nil {
		return err
	}
	res := tx.Model(model).
		Where("id = ?", id).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *catalogService) AdjustStock(kind models.IngredientKind, id uint, delta int) (*models.CatalogItem, error) {
	if delta == 0 {
		return s.GetItem(kind, id)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if delta > 0 {
			return s.IncrementStock(tx, kind, id, delta)
		}
		return s.DecrementStock(tx, kind, id, -delta)
	})
	if err != nil {
		return nil, err
	}
	return s.GetItem(kind, id)
}

func (s *catalogService) LowStockReport() ([]models.LowStockItem, error) {
	var report []models.LowStockItem
	for _, kind := range models.AllKinds {
		model, err := modelFor(kind)
		if err != nil {
			return nil, err
		}
		var rows []models.LowStockItem
		err = s.db.Model(model).
			Select("id, name, stock_quantity, min_threshold").
			Where("active = ? AND stock_quantity <= min_threshold", true).
			Order("stock_quantity").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].Kind = kind
		}
		report = append(report, rows...)
	}
	return report, nil
}

func (s *catalogService) DashboardSummary() (*InventorySummary, error) {
	summary := &InventorySummary{Categories: make(map[models.IngredientKind]int64)}
	for _, kind := range models.AllKinds {
		model, err := modelFor(kind)
		if err != nil {
			return nil, err
		}
		var count int64
		if err := s.db.Model(model).Where("active = ?", true).Count(&count).Error; err != nil {
			return nil, err
		}
		summary.Categories[kind] = count
		summary.TotalItems += count

		var value float64
		err = s.db.Model(model).
			Where("active = ?", true).
			Select("COALESCE(SUM(stock_quantity * price), 0)").
			Scan(&value).Error
		if err != nil {
			return nil, err
		}
		summary.TotalValue += value
	}
	lowStock, err := s.LowStockReport()
	if err != nil {
		return nil, err
	}
	summary.LowStockCount = len(lowStock)
	return summary, nil
}
