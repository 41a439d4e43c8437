package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pizzamaster/pizzamaster-api/internal/models"
	"github.com/pizzamaster/pizzamaster-api/internal/services"
	log "github.com/sirupsen/logrus"
)

// OrderController handles HTTP requests for the order workflow
type OrderController interface {
	// PlaceOrder creates a new order from a build-a-pizza selection
	PlaceOrder(c *gin.Context)
	// GetMyOrders lists the authenticated customer's orders
	GetMyOrders(c *gin.Context)
	// GetOrder retrieves one order for its owner or an admin
	GetOrder(c *gin.Context)
	// GetAllOrders lists every order, paginated (admin)
	GetAllOrders(c *gin.Context)
	// UpdateStatus applies an admin-directed status change
	UpdateStatus(c *gin.Context)
	// CancelOrder cancels an early-status order and restores stock
	CancelOrder(c *gin.Context)
	// TrackOrder returns an order's current status (public)
	TrackOrder(c *gin.Context)
}

type orderController struct {
	service services.OrderService
}

// NewOrderController creates a new instance of OrderController
func NewOrderController(service services.OrderService) *orderController {
	return &orderController{service: service}
}

// requester pulls the authenticated identity placed by the JWT middleware
func requester(ctx *gin.Context) (uint, bool, bool) {
	rawID, exists := ctx.Get("userID")
	if !exists {
		return 0, false, false
	}
	userID, ok := rawID.(uint)
	if !ok {
		return 0, false, false
	}
	role, _ := ctx.Get("userRole")
	return userID, role == models.RoleAdmin, true
}

// respondError maps service errors onto the API error contract
func respondError(ctx *gin.Context, err error) {
	if de, ok := models.AsDomainError(err); ok {
		ctx.JSON(de.HTTPStatus, models.NewAPIError(de.Code, de.Message))
		return
	}
	log.WithError(err).Error("Unhandled service error")
	ctx.JSON(http.StatusInternalServerError,
		models.NewAPIError(models.ErrInternalServer, "Internal server error"))
}

// PlaceOrder godoc
// @Summary Place an order
// @Description Validate a pizza selection, price it and reserve ingredient stock
// @Tags orders
// @Accept json
// @Produce json
// @Param order body services.PlaceOrderRequest true "Pizza selection and delivery details"
// @Success 201 {object} models.Order
// @Failure 400 {object} models.APIError
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/orders [post]
func (oc *orderController) PlaceOrder(ctx *gin.Context) {
	userID, _, ok := requester(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req services.PlaceOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest,
			models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	order, err := oc.service.PlaceOrder(ctx.Request.Context(), userID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, order)
}

// GetMyOrders godoc
// @Summary List my orders
// @Description List the authenticated customer's orders, newest first
// @Tags orders
// @Produce json
// @Success 200 {array} models.Order
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/orders [get]
func (oc *orderController) GetMyOrders(ctx *gin.Context) {
	userID, _, ok := requester(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	orders, err := oc.service.ListUserOrders(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrder godoc
// @Summary Get an order
// @Description Retrieve one order; owner or admin only
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/orders/{id} [get]
func (oc *orderController) GetOrder(ctx *gin.Context) {
	userID, isAdmin, ok := requester(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	order, err := oc.service.GetOrder(ctx.Request.Context(), ctx.Param("id"), userID, isAdmin)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// GetAllOrders godoc
// @Summary List all orders
// @Description Paginated listing of every order, optionally filtered by status
// @Tags orders
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param status query string false "Filter by order status"
// @Success 200 {object} services.OrderPage
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/admin/orders/all [get]
func (oc *orderController) GetAllOrders(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	status := ctx.Query("status")

	result, err := oc.service.ListAllOrders(ctx.Request.Context(), page, limit, status)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// statusUpdateRequest is the admin status change payload. Force bypasses the
// transition table; it is always logged and noted in the order history.
type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
	Force  bool   `json:"force"`
}

// UpdateStatus godoc
// @Summary Update order status
// @Description Apply an admin-directed status transition
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param status body statusUpdateRequest true "Target status"
// @Success 200 {object} models.Order
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/orders/{id}/status [put]
func (oc *orderController) UpdateStatus(ctx *gin.Context) {
	userID, _, ok := requester(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req statusUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest,
			models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	actor := "admin:" + strconv.FormatUint(uint64(userID), 10)
	order, err := oc.service.AdvanceStatus(ctx.Request.Context(), ctx.Param("id"),
		models.OrderStatus(req.Status), actor, req.Note, req.Force)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// CancelOrder godoc
// @Summary Cancel an order
// @Description Cancel a pending or confirmed order and restore reserved stock
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/orders/{id}/cancel [put]
func (oc *orderController) CancelOrder(ctx *gin.Context) {
	userID, isAdmin, ok := requester(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	order, err := oc.service.CancelOrder(ctx.Request.Context(), ctx.Param("id"), userID, isAdmin)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// TrackOrder godoc
// @Summary Track an order
// @Description Current status of an order, for the tracking widget. Order IDs are unguessable, so no authentication is required.
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/orders/{id}/track [get]
func (oc *orderController) TrackOrder(ctx *gin.Context) {
	status, err := oc.service.TrackStatus(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"order_id": ctx.Param("id"),
		"status":   status,
	})
}
