package services

import (
	"context"
	"testing"

	"github.com/pizzamaster/pizzamaster-api/internal/cache"
	"github.com/pizzamaster/pizzamaster-api/internal/models"
	"github.com/pizzamaster/pizzamaster-api/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// orderTestEnv wires the order service against an in-memory database with a
// small seeded catalog.
type orderTestEnv struct {
	db      *gorm.DB
	catalog CatalogService
	orders  OrderService

	customer models.User
	admin    models.User

	base    models.PizzaBase
	sauce   models.Sauce
	cheese  models.Cheese
	topping models.Topping
}

func setupOrderTest(t *testing.T) *orderTestEnv {
	db := setupTestDB(t)
	catalog := NewCatalogService(db)
	env := &orderTestEnv{
		db:      db,
		catalog: catalog,
		orders:  NewOrderService(db, catalog, notify.NewPublisher(nil, ""), cache.New("")),
	}

	env.customer = models.User{Email: "maria@example.com", Password: "x", FirstName: "Maria", LastName: "Rossi", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&env.customer).Error)
	env.admin = models.User{Email: "admin@example.com", Password: "x", FirstName: "Admin", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&env.admin).Error)

	env.base = models.PizzaBase{
		CatalogItem: models.CatalogItem{Name: "Thin Crust", Price: 8.99, StockQuantity: 50, MinThreshold: 10, Active: true},
		Category:    "thin",
	}
	require.NoError(t, db.Create(&env.base).Error)
	env.sauce = models.Sauce{
		CatalogItem: models.CatalogItem{Name: "Tomato", Price: 0.99, StockQuantity: 100, MinThreshold: 20, Active: true},
		SpiceLevel:  "mild",
	}
	require.NoError(t, db.Create(&env.sauce).Error)
	env.cheese = models.Cheese{
		CatalogItem: models.CatalogItem{Name: "Mozzarella", Price: 2.49, StockQuantity: 200, MinThreshold: 30, Active: true},
	}
	require.NoError(t, db.Create(&env.cheese).Error)
	env.topping = models.Topping{
		CatalogItem: models.CatalogItem{Name: "Pepperoni", Price: 2.99, StockQuantity: 150, MinThreshold: 20, Active: true},
		Category:    "meat",
	}
	require.NoError(t, db.Create(&env.topping).Error)

	return env
}

func (env *orderTestEnv) placeRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		BaseID:          env.base.ID,
		SauceID:         env.sauce.ID,
		CheeseID:        env.cheese.ID,
		ToppingIDs:      []uint{env.topping.ID},
		Size:            models.SizeSmall,
		Quantity:        1,
		Phone:           "555-0100",
		DeliveryAddress: "1 Via Roma",
	}
}

func (env *orderTestEnv) stock(t *testing.T, kind models.IngredientKind, id uint) int {
	item, err := env.catalog.GetItem(kind, id)
	require.NoError(t, err)
	return item.StockQuantity
}

func TestPlaceOrder(t *testing.T) {
	env := setupOrderTest(t)

	order, err := env.orders.PlaceOrder(context.Background(), env.customer.ID, env.placeRequest())
	require.NoError(t, err)

	// 8.99 + 0.99 + 2.49 + 2.99 at small size
	assert.Equal(t, 15.46, order.UnitPrice)
	assert.Equal(t, 15.46, order.TotalPrice)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "Maria Rossi", order.CustomerName)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, models.PayCash, order.PaymentMethod)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.StatusPending, order.StatusHistory[0].Status)

	// Snapshots carry the catalog prices at placement time
	assert.Equal(t, "Thin Crust", order.Base.Name)
	assert.Equal(t, 8.99, order.Base.Price)
	require.Len(t, order.Toppings, 1)
	assert.Equal(t, "Pepperoni", order.Toppings[0].Name)

	// Every selected ingredient reserved exactly once
	assert.Equal(t, 49, env.stock(t, models.KindBase, env.base.ID))
	assert.Equal(t, 99, env.stock(t, models.KindSauce, env.sauce.ID))
	assert.Equal(t, 199, env.stock(t, models.KindCheese, env.cheese.ID))
	assert.Equal(t, 149, env.stock(t, models.KindTopping, env.topping.ID))
}

func TestPlaceOrderSizeAndQuantityPricing(t *testing.T) {
	env := setupOrderTest(t)

	req := env.placeRequest()
	req.Size = models.SizeLarge
	req.Quantity = 2

	order, err := env.orders.PlaceOrder(context.Background(), env.customer.ID, req)
	require.NoError(t, err)

	// 15.46 * 1.5 = 23.19, doubled
	assert.Equal(t, 23.19, order.UnitPrice)
	assert.Equal(t, 46.38, order.TotalPrice)

	// Reservation scales with quantity
	assert.Equal(t, 48, env.stock(t, models.KindBase, env.base.ID))
	assert.Equal(t, 148, env.stock(t, models.KindTopping, env.topping.ID))
}

func TestPlaceOrderOutOfStock(t *testing.T) {
	env := setupOrderTest(t)

	require.NoError(t, env.db.Model(&models.Topping{}).
		Where("id = ?", env.topping.ID).
		Update("stock_quantity", 0).Error)

	_, err := env.orders.PlaceOrder(context.Background(), env.customer.ID, env.placeRequest())
	require.Error(t, err)

	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrOutOfStock, de.Code)
	assert.Contains(t, de.Message, "Pepperoni")

	// All-or-nothing: nothing was reserved, nothing was persisted
	assert.Equal(t, 50, env.stock(t, models.KindBase, env.base.ID))
	assert.Equal(t, 100, env.stock(t, models.KindSauce, env.sauce.ID))
	assert.Equal(t, 200, env.stock(t, models.KindCheese, env.cheese.ID))

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPlaceOrderInactiveIngredient(t *testing.T) {
	env := setupOrderTest(t)

	require.NoError(t, env.catalog.DeactivateItem(models.KindSauce, env.sauce.ID))

	_, err := env.orders.PlaceOrder(context.Background(), env.customer.ID, env.placeRequest())
	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrOutOfStock, de.Code)
	assert.Contains(t, de.Message, "Tomato")
}

func TestPlaceOrderValidation(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	missingCheese := env.placeRequest()
	missingCheese.CheeseID = 0
	_, err := env.orders.PlaceOrder(ctx, env.customer.ID, missingCheese)
	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrInvalidSelection, de.Code)

	noAddress := env.placeRequest()
	noAddress.DeliveryAddress = ""
	_, err = env.orders.PlaceOrder(ctx, env.customer.ID, noAddress)
	de, ok = models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrValidationFailed, de.Code)

	badSize := env.placeRequest()
	badSize.Size = "gigantic"
	_, err = env.orders.PlaceOrder(ctx, env.customer.ID, badSize)
	de, ok = models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrValidationFailed, de.Code)
}

func TestPriceSnapshotSurvivesCatalogEdit(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	order, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.PizzaBase{}).
		Where("id = ?", env.base.ID).
		Update("price", 99.99).Error)

	reloaded, err := env.orders.GetOrder(ctx, order.ID, env.customer.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 8.99, reloaded.Base.Price)
	assert.Equal(t, 15.46, reloaded.TotalPrice)
}

func TestGetOrderOwnership(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	order, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
	require.NoError(t, err)

	// Owner and admin may read; another customer may not
	_, err = env.orders.GetOrder(ctx, order.ID, env.customer.ID, false)
	assert.NoError(t, err)
	_, err = env.orders.GetOrder(ctx, order.ID, env.admin.ID, true)
	assert.NoError(t, err)

	_, err = env.orders.GetOrder(ctx, order.ID, env.customer.ID+100, false)
	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrForbidden, de.Code)

	_, err = env.orders.GetOrder(ctx, "no-such-order", env.admin.ID, true)
	de, ok = models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrNotFound, de.Code)
}

func TestAdvanceStatus(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	order, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
	require.NoError(t, err)

	order, err = env.orders.AdvanceStatus(ctx, order.ID, models.StatusConfirmed, "admin", "", false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, order.Status)
	assert.Nil(t, order.EstimatedDelivery)

	order, err = env.orders.AdvanceStatus(ctx, order.ID, models.StatusInKitchen, "admin", "", false)
	require.NoError(t, err)
	require.NotNil(t, order.EstimatedDelivery)

	order, err = env.orders.AdvanceStatus(ctx, order.ID, models.StatusOutForDelivery, "admin", "", false)
	require.NoError(t, err)

	order, err = env.orders.AdvanceStatus(ctx, order.ID, models.StatusDelivered, "admin", "", false)
	require.NoError(t, err)
	require.NotNil(t, order.ActualDelivery)
	assert.Len(t, order.StatusHistory, 5)
}

func TestAdvanceStatusRejectsIllegalTransition(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	order, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
	require.NoError(t, err)

	// pending cannot jump straight to delivered
	_, err = env.orders.AdvanceStatus(ctx, order.ID, models.StatusDelivered, "admin", "", false)
	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrInvalidTransition, de.Code)

	// The rejected attempt left no trace
	reloaded, err := env.orders.GetOrder(ctx, order.ID, env.admin.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reloaded.Status)
	assert.Len(t, reloaded.StatusHistory, 1)

	_, err = env.orders.AdvanceStatus(ctx, order.ID, "teleported", "admin", "", false)
	de, ok = models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrValidationFailed, de.Code)
}

func TestAdvanceStatusForced(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	order, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
	require.NoError(t, err)

	order, err = env.orders.AdvanceStatus(ctx, order.ID, models.StatusDelivered, "admin:1", "support escalation", true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, order.Status)

	last := order.StatusHistory[len(order.StatusHistory)-1]
	assert.Equal(t, "admin:1", last.ChangedBy)
	assert.Equal(t, "forced override: support escalation", last.Note)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	req := env.placeRequest()
	req.Quantity = 3
	order, err := env.orders.PlaceOrder(ctx, env.customer.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 47, env.stock(t, models.KindBase, env.base.ID))

	cancelled, err := env.orders.CancelOrder(ctx, order.ID, env.customer.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	// Every reservation restored in full
	assert.Equal(t, 50, env.stock(t, models.KindBase, env.base.ID))
	assert.Equal(t, 100, env.stock(t, models.KindSauce, env.sauce.ID))
	assert.Equal(t, 200, env.stock(t, models.KindCheese, env.cheese.ID))
	assert.Equal(t, 150, env.stock(t, models.KindTopping, env.topping.ID))

	// A second cancel must not restore stock again
	_, err = env.orders.CancelOrder(ctx, order.ID, env.customer.ID, false)
	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrInvalidTransition, de.Code)
	assert.Equal(t, 50, env.stock(t, models.KindBase, env.base.ID))
}

func TestCancelOrderWindow(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	order, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
	require.NoError(t, err)
	_, err = env.orders.AdvanceStatus(ctx, order.ID, models.StatusConfirmed, "admin", "", false)
	require.NoError(t, err)

	// Still cancellable while confirmed
	_, err = env.orders.CancelOrder(ctx, order.ID, env.customer.ID, false)
	assert.NoError(t, err)

	prepped, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
	require.NoError(t, err)
	_, err = env.orders.AdvanceStatus(ctx, prepped.ID, models.StatusConfirmed, "admin", "", false)
	require.NoError(t, err)
	_, err = env.orders.AdvanceStatus(ctx, prepped.ID, models.StatusInKitchen, "admin", "", false)
	require.NoError(t, err)

	// Once in the kitchen the window has closed
	_, err = env.orders.CancelOrder(ctx, prepped.ID, env.customer.ID, false)
	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrInvalidTransition, de.Code)
}

func TestCancelOrderOwnership(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	order, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
	require.NoError(t, err)

	_, err = env.orders.CancelOrder(ctx, order.ID, env.customer.ID+100, false)
	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrForbidden, de.Code)

	// Admin cancelling on behalf of the customer is recorded as such
	cancelled, err := env.orders.CancelOrder(ctx, order.ID, env.admin.ID, true)
	require.NoError(t, err)
	last := cancelled.StatusHistory[len(cancelled.StatusHistory)-1]
	assert.Contains(t, last.ChangedBy, "admin:")
}

func TestTrackStatus(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	order, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
	require.NoError(t, err)

	status, err := env.orders.TrackStatus(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status)

	_, err = env.orders.AdvanceStatus(ctx, order.ID, models.StatusConfirmed, "admin", "", false)
	require.NoError(t, err)

	status, err = env.orders.TrackStatus(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, status)

	_, err = env.orders.TrackStatus(ctx, "no-such-order")
	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrNotFound, de.Code)
}

func TestListUserOrders(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
		require.NoError(t, err)
	}

	orders, err := env.orders.ListUserOrders(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	orders, err = env.orders.ListUserOrders(ctx, env.admin.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListAllOrders(t *testing.T) {
	env := setupOrderTest(t)
	ctx := context.Background()

	var first *models.Order
	for i := 0; i < 5; i++ {
		order, err := env.orders.PlaceOrder(ctx, env.customer.ID, env.placeRequest())
		require.NoError(t, err)
		if first == nil {
			first = order
		}
	}
	_, err := env.orders.CancelOrder(ctx, first.ID, env.customer.ID, false)
	require.NoError(t, err)

	page, err := env.orders.ListAllOrders(ctx, 1, 2, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Orders, 2)
	assert.Equal(t, 3, page.Pages)

	page, err = env.orders.ListAllOrders(ctx, 1, 10, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = env.orders.ListAllOrders(ctx, 1, 10, "bogus")
	de, ok := models.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrValidationFailed, de.Code)
}
