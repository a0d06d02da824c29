package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"qrdine_backend/internal/broadcast"
	"qrdine_backend/internal/middleware"
	"qrdine_backend/internal/services"
	"qrdine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service and the broadcaster for fan-out.
type OrderHandler struct {
	orderService services.OrderService
	broadcaster  broadcast.Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService, b broadcast.Broadcaster) *OrderHandler {
	return &OrderHandler{orderService: os, broadcaster: b}
}

// CreateOrder handles order intake. On success it fans the new order out to
// the restaurant's real-time channels; delivery failures never fail the
// request.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateOrder: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.orderService.CreateOrder(req)
	if err != nil {
		utils.LogError(err, "CreateOrder: Error from orderService.CreateOrder")
		respondOrderError(c, err)
		return
	}

	broadcast.PublishOrder(c.Request.Context(), h.broadcaster, result.Order, broadcast.EventNewOrder)
	c.JSON(http.StatusCreated, result)
}

// UpdateOrderStatus moves an order along the status graph and fans the
// updated order out.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format.", err.Error()))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrderStatus(orderID, req.Status)
	if err != nil {
		utils.LogError(err, "UpdateOrderStatus: Error from orderService.UpdateOrderStatus")
		respondOrderError(c, err)
		return
	}

	broadcast.PublishOrder(c.Request.Context(), h.broadcaster, order, broadcast.EventOrderUpdated)
	c.JSON(http.StatusOK, order)
}

// GetOrder fetches one order with its item snapshot.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format.", err.Error()))
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetActiveOrders lists the in-flight orders for the caller's restaurant.
func (h *OrderHandler) GetActiveOrders(c *gin.Context) {
	restaurantID, ok := middleware.RestaurantID(c)
	if !ok {
		// Public dashboards pass the restaurant explicitly.
		var err error
		restaurantID, err = strconv.ParseInt(c.Query("restaurant_id"), 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "restaurant_id is required.", ""))
			return
		}
	}

	orders, err := h.orderService.GetActiveOrders(restaurantID)
	if err != nil {
		utils.LogError(err, "GetActiveOrders: Error from orderService.GetActiveOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch active orders.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// AllowedStatusActions exposes the validator standalone so UIs can render the
// next allowed actions for an order.
func (h *OrderHandler) AllowedStatusActions(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format.", err.Error()))
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       order.Status,
		"allowed_next": services.AllowedNextStatuses(order.Status),
	})
}

// respondOrderError maps service sentinel errors onto the API error taxonomy.
func respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrRestaurantNotFound),
		errors.Is(err, services.ErrRestaurantInactive),
		errors.Is(err, services.ErrItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), err.Error()))
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrPaymentRequired):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeConflict, err.Error(), err.Error()))
	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrItemUnavailable),
		errors.Is(err, services.ErrItemWrongRestaurant),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrTableInactive),
		errors.Is(err, services.ErrPromoNotFound),
		errors.Is(err, services.ErrPromoInactive),
		errors.Is(err, services.ErrPromoNotYet),
		errors.Is(err, services.ErrPromoExpired),
		errors.Is(err, services.ErrPromoExhausted),
		errors.Is(err, services.ErrPromoMinOrder):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process order.", "Internal error"))
	}
}
