package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pizzamaster/pizzamaster-api/internal/cache"
	"github.com/pizzamaster/pizzamaster-api/internal/models"
	"github.com/pizzamaster/pizzamaster-api/internal/services"
)

// InventoryController handles the public catalog and the admin back office
type InventoryController interface {
	// GetCatalog returns the active items of all four kinds (public)
	GetCatalog(c *gin.Context)
	// GetCatalogKind returns the active items of one kind (public)
	GetCatalogKind(c *gin.Context)
	// Dashboard aggregates inventory counts, value and low-stock items (admin)
	Dashboard(c *gin.Context)
	// ListItems lists all items of a kind including inactive ones (admin)
	ListItems(c *gin.Context)
	// CreateItem adds a new ingredient (admin)
	CreateItem(c *gin.Context)
	// UpdateItem edits an ingredient (admin)
	UpdateItem(c *gin.Context)
	// DeleteItem deactivates an ingredient (admin)
	DeleteItem(c *gin.Context)
	// AdjustStock applies a restock or correction delta (admin)
	AdjustStock(c *gin.Context)
}

type inventoryController struct {
	catalog services.CatalogService
	cache   *cache.Cache
}

// NewInventoryController creates a new instance of InventoryController
func NewInventoryController(catalog services.CatalogService, cache *cache.Cache) *inventoryController {
	return &inventoryController{catalog: catalog, cache: cache}
}

func kindParam(ctx *gin.Context) (models.IngredientKind, bool) {
	kind, ok := models.ParseIngredientKind(ctx.Param("kind"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest,
			"Unknown ingredient kind: must be base, sauce, cheese or topping"))
		return "", false
	}
	return kind, true
}

// GetCatalog godoc
// @Summary Get the pizza catalog
// @Description Active ingredients of all four kinds, for the build-a-pizza flow
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/public/catalog [get]
func (ic *inventoryController) GetCatalog(ctx *gin.Context) {
	catalog := make(map[models.IngredientKind]interface{}, len(models.AllKinds))
	for _, kind := range models.AllKinds {
		items, err := ic.listKindCached(ctx, kind)
		if err != nil {
			respondError(ctx, err)
			return
		}
		catalog[kind] = items
	}
	ctx.JSON(http.StatusOK, catalog)
}

// GetCatalogKind godoc
// @Summary Get one catalog collection
// @Description Active ingredients of a single kind
// @Tags catalog
// @Produce json
// @Param kind path string true "Ingredient kind (base, sauce, cheese, topping)"
// @Success 200 {array} models.CatalogItem
// @Failure 400 {object} models.APIError
// @Router /api/v1/public/catalog/{kind} [get]
func (ic *inventoryController) GetCatalogKind(ctx *gin.Context) {
	kind, ok := kindParam(ctx)
	if !ok {
		return
	}
	items, err := ic.listKindCached(ctx, kind)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, items)
}

// listKindCached serves a kind's active listing through the Redis cache
func (ic *inventoryController) listKindCached(ctx *gin.Context, kind models.IngredientKind) (json.RawMessage, error) {
	reqCtx := ctx.Request.Context()
	if payload, hit := ic.cache.GetCatalog(reqCtx, kind); hit {
		return payload, nil
	}
	items, err := ic.catalog.ListItems(kind, true)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	ic.cache.SetCatalog(reqCtx, kind, payload)
	return payload, nil
}

// Dashboard godoc
// @Summary Inventory dashboard
// @Description Per-kind counts, total stock value and low-stock items
// @Tags inventory
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/protected/admin/inventory/dashboard [get]
func (ic *inventoryController) Dashboard(ctx *gin.Context) {
	summary, err := ic.catalog.DashboardSummary()
	if err != nil {
		respondError(ctx, err)
		return
	}
	lowStock, err := ic.catalog.LowStockReport()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"summary":         summary,
		"low_stock_items": lowStock,
	})
}

// ListItems godoc
// @Summary List inventory items
// @Description All items of a kind, including deactivated ones
// @Tags inventory
// @Produce json
// @Param kind path string true "Ingredient kind"
// @Success 200 {array} models.CatalogItem
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/inventory/{kind} [get]
func (ic *inventoryController) ListItems(ctx *gin.Context) {
	kind, ok := kindParam(ctx)
	if !ok {
		return
	}
	items, err := ic.catalog.ListItems(kind, false)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, items)
}

// bindItem decodes the request body into the kind-specific model
func bindItem(ctx *gin.Context, kind models.IngredientKind) (interface{}, error) {
	switch kind {
	case models.KindBase:
		var m models.PizzaBase
		return &m, ctx.ShouldBindJSON(&m)
	case models.KindSauce:
		var m models.Sauce
		return &m, ctx.ShouldBindJSON(&m)
	case models.KindCheese:
		var m models.Cheese
		return &m, ctx.ShouldBindJSON(&m)
	default:
		var m models.Topping
		return &m, ctx.ShouldBindJSON(&m)
	}
}

// CreateItem godoc
// @Summary Create an ingredient
// @Tags inventory
// @Accept json
// @Produce json
// @Param kind path string true "Ingredient kind"
// @Success 201 {object} models.CatalogItem
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/inventory/{kind} [post]
func (ic *inventoryController) CreateItem(ctx *gin.Context) {
	kind, ok := kindParam(ctx)
	if !ok {
		return
	}
	item, err := bindItem(ctx, kind)
	if err != nil {
		ctx.JSON(http.StatusBadRequest,
			models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}
	if err := ic.catalog.CreateItem(kind, item); err != nil {
		respondError(ctx, err)
		return
	}
	ic.cache.InvalidateCatalog(ctx.Request.Context(), kind)
	ctx.JSON(http.StatusCreated, item)
}

// UpdateItem godoc
// @Summary Update an ingredient
// @Tags inventory
// @Accept json
// @Produce json
// @Param kind path string true "Ingredient kind"
// @Param id path int true "Ingredient ID"
// @Success 200 {object} models.CatalogItem
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/inventory/{kind}/{id} [put]
func (ic *inventoryController) UpdateItem(ctx *gin.Context) {
	kind, ok := kindParam(ctx)
	if !ok {
		return
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest,
			models.NewAPIError(models.ErrBadRequest, "Invalid ingredient ID format"))
		return
	}
	if _, err := ic.catalog.GetItem(kind, uint(id)); err != nil {
		ctx.JSON(http.StatusNotFound,
			models.NewAPIError(models.ErrNotFound, "Ingredient not found"))
		return
	}

	item, err := bindItem(ctx, kind)
	if err != nil {
		ctx.JSON(http.StatusBadRequest,
			models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}
	setItemID(item, uint(id))
	if err := ic.catalog.UpdateItem(kind, item); err != nil {
		respondError(ctx, err)
		return
	}
	ic.cache.InvalidateCatalog(ctx.Request.Context(), kind)
	ctx.JSON(http.StatusOK, item)
}

// setItemID forces the URL id onto the bound payload
func setItemID(item interface{}, id uint) {
	switch m := item.(type) {
	case *models.PizzaBase:
		m.ID = id
	case *models.Sauce:
		m.ID = id
	case *models.Cheese:
		m.ID = id
	case *models.Topping:
		m.ID = id
	}
}

// DeleteItem godoc
// @Summary Deactivate an ingredient
// @Description Retires the item from the storefront without deleting order history
// @Tags inventory
// @Produce json
// @Param kind path string true "Ingredient kind"
// @Param id path int true "Ingredient ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/inventory/{kind}/{id} [delete]
func (ic *inventoryController) DeleteItem(ctx *gin.Context) {
	kind, ok := kindParam(ctx)
	if !ok {
		return
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest,
			models.NewAPIError(models.ErrBadRequest, "Invalid ingredient ID format"))
		return
	}
	if err := ic.catalog.DeactivateItem(kind, uint(id)); err != nil {
		ctx.JSON(http.StatusNotFound,
			models.NewAPIError(models.ErrNotFound, "Ingredient not found"))
		return
	}
	ic.cache.InvalidateCatalog(ctx.Request.Context(), kind)
	ctx.JSON(http.StatusNoContent, nil)
}

type stockAdjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// AdjustStock godoc
// @Summary Adjust ingredient stock
// @Description Apply a restock (positive) or correction (negative) delta
// @Tags inventory
// @Accept json
// @Produce json
// @Param kind path string true "Ingredient kind"
// @Param id path int true "Ingredient ID"
// @Param delta body stockAdjustRequest true "Stock delta"
// @Success 200 {object} models.CatalogItem
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/inventory/{kind}/{id}/stock [put]
func (ic *inventoryController) AdjustStock(ctx *gin.Context) {
	kind, ok := kindParam(ctx)
	if !ok {
		return
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest,
			models.NewAPIError(models.ErrBadRequest, "Invalid ingredient ID format"))
		return
	}

	var req stockAdjustRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest,
			models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	item, err := ic.catalog.AdjustStock(kind, uint(id), req.Delta)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientStock) {
			ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrOutOfStock,
				"Stock adjustment would drive stock below zero"))
			return
		}
		ctx.JSON(http.StatusNotFound,
			models.NewAPIError(models.ErrNotFound, "Ingredient not found"))
		return
	}
	ic.cache.InvalidateCatalog(ctx.Request.Context(), kind)
	ctx.JSON(http.StatusOK, gin.H{
		"item":      item,
		"low_stock": item.IsLowStock(),
	})
}
