package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"qrdine_backend/internal/services"
	"qrdine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler holds the payment service.
type PaymentHandler struct {
	paymentService services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ps services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// ProvisionVendor creates (or adopts) the gateway vendor account for a
// restaurant.
func (h *PaymentHandler) ProvisionVendor(c *gin.Context) {
	var req struct {
		RestaurantID int64 `json:"restaurant_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	vendorID, err := h.paymentService.ProvisionVendor(c.Request.Context(), req.RestaurantID)
	if err != nil {
		utils.LogError(err, "ProvisionVendor: Error from paymentService.ProvisionVendor")
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor_id": vendorID})
}

// InitiatePayment creates a gateway payment session with the platform split.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req services.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if req.OrderID == 0 {
		utils.RespondValidationFailed(c, "order_id is required")
		return
	}

	session, err := h.paymentService.InitiatePayment(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "InitiatePayment: Error from paymentService.InitiatePayment")
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// HandleWebhook receives gateway callbacks. It answers 401 on a bad
// signature and 200 for everything else, including internal processing
// failures, so the gateway does not retry unresolvable conditions.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.LogError(err, "HandleWebhook: Failed to read request body")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	signature := c.GetHeader("x-webhook-signature")
	timestamp := c.GetHeader("x-webhook-timestamp")

	err = h.paymentService.HandleWebhook(c.Request.Context(), timestamp, body, signature)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Webhook signature verification failed.", ""))
			return
		}
		utils.LogError(err, "HandleWebhook: Error from paymentService.HandleWebhook")
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PaymentStatus passes the gateway order status through.
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format.", err.Error()))
		return
	}

	status, err := h.paymentService.PaymentStatus(c.Request.Context(), orderID)
	if err != nil {
		utils.LogError(err, "PaymentStatus: Error from paymentService.PaymentStatus")
		respondPaymentError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", status)
}

// Refund reverses a captured payment.
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req services.RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if req.OrderID == 0 {
		utils.RespondValidationFailed(c, "order_id is required")
		return
	}

	order, err := h.paymentService.Refund(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "Refund: Error from paymentService.Refund")
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Settlements lists the vendor settlement history for a restaurant.
func (h *PaymentHandler) Settlements(c *gin.Context) {
	restaurantID, err := strconv.ParseInt(c.Param("restaurantId"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid restaurant ID format.", err.Error()))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	settlements, err := h.paymentService.Settlements(c.Request.Context(), restaurantID, limit)
	if err != nil {
		utils.LogError(err, "Settlements: Error from paymentService.Settlements")
		respondPaymentError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", settlements)
}

// respondPaymentError maps payment sentinel errors onto the API taxonomy.
// Gateway failures surface as 500 with the message passed through.
func respondPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrRestaurantNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), err.Error()))
	case errors.Is(err, services.ErrPaymentNotCompleted),
		errors.Is(err, services.ErrVendorNotReady):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, err.Error(), "Gateway or internal error"))
	}
}
