package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pizzamaster/pizzamaster-api/internal/cache"
	"github.com/pizzamaster/pizzamaster-api/internal/models"
	"github.com/pizzamaster/pizzamaster-api/internal/notify"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Delivery windows applied on status transitions. Fixed constants, not
// computed from kitchen load.
const (
	prepWindow     = 30 * time.Minute
	deliveryWindow = 15 * time.Minute
)

// PlaceOrderRequest is a raw build-a-pizza selection plus delivery details
type PlaceOrderRequest struct {
	BaseID     uint   `json:"pizza_base_id" binding:"required"`
	SauceID    uint   `json:"sauce_id" binding:"required"`
	CheeseID   uint   `json:"cheese_id" binding:"required"`
	ToppingIDs []uint `json:"topping_ids"`

	Size     string `json:"size"`
	Quantity int    `json:"quantity"`

	Phone               string `json:"phone"`
	DeliveryAddress     string `json:"delivery_address"`
	SpecialInstructions string `json:"special_instructions"`
	PaymentMethod       string `json:"payment_method"`
}

// OrderPage is one page of the admin order listing
type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Pages  int            `json:"pages"`
}

// OrderService runs the order workflow: placement with stock reservation,
// admin status transitions, and cancellation with stock restoration.
type OrderService interface {
	// PlaceOrder validates the selection, prices it, persists the order and
	// reserves ingredient stock, all-or-nothing
	PlaceOrder(ctx context.Context, userID uint, req PlaceOrderRequest) (*models.Order, error)
	// GetOrder returns one order; only the owner or an admin may read it
	GetOrder(ctx context.Context, orderID string, requesterID uint, isAdmin bool) (*models.Order, error)
	// ListUserOrders returns the requester's orders, newest first
	ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error)
	// ListAllOrders returns a page of every order, optionally status-filtered
	ListAllOrders(ctx context.Context, page, limit int, status string) (*OrderPage, error)
	// AdvanceStatus applies an admin-directed status change
	AdvanceStatus(ctx context.Context, orderID string, newStatus models.OrderStatus, actor string, note string, force bool) (*models.Order, error)
	// CancelOrder cancels an early-status order and restores reserved stock
	CancelOrder(ctx context.Context, orderID string, requesterID uint, isAdmin bool) (*models.Order, error)
	// TrackStatus returns an order's current status, served from cache when fresh
	TrackStatus(ctx context.Context, orderID string) (models.OrderStatus, error)
}

type orderService struct {
	db       *gorm.DB
	catalog  CatalogService
	notifier *notify.Publisher
	statuses *cache.Cache
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(db *gorm.DB, catalog CatalogService, notifier *notify.Publisher, statuses *cache.Cache) OrderService {
	return &orderService{
		db:       db,
		catalog:  catalog,
		notifier: notifier,
		statuses: statuses,
	}
}

// roundCents keeps money at two decimal places after the size multiplier
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uint, req PlaceOrderRequest) (*models.Order, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Size == "" {
		req.Size = models.SizeSmall
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PayCash
	}

	if req.Quantity < 0 {
		return nil, models.NewValidationError("quantity must be positive")
	}
	multiplier, ok := models.SizeMultiplier(req.Size)
	if !ok {
		return nil, models.NewValidationError(fmt.Sprintf("unknown pizza size: %s", req.Size))
	}
	if req.BaseID == 0 || req.SauceID == 0 || req.CheeseID == 0 {
		return nil, models.NewInvalidSelection("an order requires exactly one base, one sauce and one cheese")
	}
	if req.Phone == "" || req.DeliveryAddress == "" {
		return nil, models.NewValidationError("phone and delivery address are required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFound("user not found")
		}
		return nil, err
	}

	order := &models.Order{
		ID:                  uuid.NewString(),
		UserID:              userID,
		CustomerEmail:       user.Email,
		CustomerName:        user.FullName(),
		CustomerPhone:       req.Phone,
		DeliveryAddress:     req.DeliveryAddress,
		Size:                req.Size,
		Quantity:            req.Quantity,
		Status:              models.StatusPending,
		SpecialInstructions: req.SpecialInstructions,
		PaymentStatus:       models.PaymentPending,
		PaymentMethod:       req.PaymentMethod,
	}

	// Selection of (kind, id, snapshot destination) in reservation order
	type component struct {
		kind models.IngredientKind
		id   uint
		dest *models.IngredientSnapshot
	}
	components := []component{
		{models.KindBase, req.BaseID, &order.Base},
		{models.KindSauce, req.SauceID, &order.Sauce},
		{models.KindCheese, req.CheeseID, &order.Cheese},
	}
	order.Toppings = make([]models.IngredientSnapshot, len(req.ToppingIDs))
	for i, toppingID := range req.ToppingIDs {
		components = append(components, component{models.KindTopping, toppingID, &order.Toppings[i]})
	}

	// Price computation, order creation and every stock decrement share one
	// transaction: a shortfall on any ingredient rolls the whole thing back.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unitPrice float64
		for _, comp := range components {
			item, err := s.catalog.GetItemTx(tx, comp.kind, comp.id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewOutOfStock(comp.kind, "")
				}
				return err
			}
			if !item.Active || item.StockQuantity < req.Quantity {
				return models.NewOutOfStock(comp.kind, item.Name)
			}
			*comp.dest = item.Snapshot()
			unitPrice += item.Price
		}

		order.UnitPrice = roundCents(unitPrice * multiplier)
		order.TotalPrice = roundCents(order.UnitPrice * float64(req.Quantity))
		order.AppendHistory(models.StatusPending, order.CustomerName, "order placed")

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, comp := range components {
			if err := s.catalog.DecrementStock(tx, comp.kind, comp.id, req.Quantity); err != nil {
				if errors.Is(err, ErrInsufficientStock) {
					// Stock moved between the check and this decrement
					return models.NewOutOfStock(comp.kind, comp.dest.Name)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"order_number": order.OrderNumber(),
		"user_id":      userID,
		"total_price":  order.TotalPrice,
	}).Info("Order placed")

	// Fire-and-forget side effects; neither may fail the placed order
	s.notifier.OrderConfirmed(order)
	s.statuses.SetOrderStatus(ctx, order.ID, order.Status)

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string, requesterID uint, isAdmin bool) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID && !isAdmin {
		return nil, models.NewForbidden("not authorized to access this order")
	}
	return order, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *orderService) ListAllOrders(ctx context.Context, page, limit int, status string) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	q := s.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		parsed, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("unknown order status: %s", status))
		}
		q = q.Where("status = ?", parsed)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []models.Order
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return &OrderPage{
		Orders: orders,
		Total:  total,
		Page:   page,
		Limit:  limit,
		Pages:  int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (s *orderService) AdvanceStatus(ctx context.Context, orderID string, newStatus models.OrderStatus, actor, note string, force bool) (*models.Order, error) {
	if _, known := models.ParseOrderStatus(string(newStatus)); !known {
		return nil, models.NewValidationError(fmt.Sprintf("unknown order status: %s", newStatus))
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(order.Status, newStatus) {
		if !force {
			return nil, models.NewInvalidTransition(order.Status, newStatus)
		}
		log.WithFields(logrus.Fields{
			"order_number": order.OrderNumber(),
			"from":         order.Status,
			"to":           newStatus,
			"actor":        actor,
		}).Warn("Forced status transition outside the transition table")
		if note == "" {
			note = "forced override"
		} else {
			note = "forced override: " + note
		}
	}

	now := time.Now().UTC()
	order.Status = newStatus
	switch newStatus {
	case models.StatusInKitchen:
		eta := now.Add(prepWindow)
		order.EstimatedDelivery = &eta
	case models.StatusOutForDelivery:
		eta := now.Add(deliveryWindow)
		order.EstimatedDelivery = &eta
	case models.StatusDelivered:
		order.ActualDelivery = &now
	}
	order.AppendHistory(newStatus, actor, note)

	if err := s.db.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}

	s.notifier.StatusChanged(order)
	s.statuses.SetOrderStatus(ctx, order.ID, order.Status)

	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, orderID string, requesterID uint, isAdmin bool) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID && !isAdmin {
		return nil, models.NewForbidden("not authorized to cancel this order")
	}
	if !order.Status.IsCancellable() {
		return nil, models.NewInvalidTransition(order.Status, models.StatusCancelled)
	}

	actor := order.CustomerName
	if isAdmin && order.UserID != requesterID {
		actor = fmt.Sprintf("admin:%d", requesterID)
	}
	order.Status = models.StatusCancelled
	order.AppendHistory(models.StatusCancelled, actor, "order cancelled")

	// The compensating action for placement: restore exactly the quantities
	// that were reserved, from the snapshots, in one transaction with the
	// status flip.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		restore := []struct {
			kind models.IngredientKind
			id   uint
		}{
			{models.KindBase, order.Base.ID},
			{models.KindSauce, order.Sauce.ID},
			{models.KindCheese, order.Cheese.ID},
		}
		for _, t := range order.Toppings {
			restore = append(restore, struct {
				kind models.IngredientKind
				id   uint
			}{models.KindTopping, t.ID})
		}
		for _, r := range restore {
			if err := s.catalog.IncrementStock(tx, r.kind, r.id, order.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"order_number": order.OrderNumber(),
		"requester":    requesterID,
	}).Info("Order cancelled, stock restored")

	s.notifier.StatusChanged(order)
	s.statuses.SetOrderStatus(ctx, order.ID, order.Status)

	return order, nil
}

// TrackStatus backs the public tracking widget, which polls; the cache keeps
// that traffic off the orders table.
func (s *orderService) TrackStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	if status, ok := s.statuses.GetOrderStatus(ctx, orderID); ok {
		return status, nil
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	s.statuses.SetOrderStatus(ctx, order.ID, order.Status)
	return order.Status, nil
}

func (s *orderService) loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFound("order not found")
		}
		return nil, err
	}
	return &order, nil
}
