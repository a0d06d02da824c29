package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"qrdine_backend/internal/services"
	"qrdine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RestaurantHandler serves the cached public restaurant projection.
type RestaurantHandler struct {
	restaurantService   services.RestaurantService
	notificationService services.NotificationService
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(rs services.RestaurantService, ns services.NotificationService) *RestaurantHandler {
	return &RestaurantHandler{restaurantService: rs, notificationService: ns}
}

// GetPublicInfo returns the customer-facing restaurant projection by id.
func (h *RestaurantHandler) GetPublicInfo(c *gin.Context) {
	restaurantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid restaurant ID format.", err.Error()))
		return
	}

	info, err := h.restaurantService.GetPublicInfo(c.Request.Context(), restaurantID)
	if err != nil {
		if errors.Is(err, services.ErrRestaurantNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), err.Error()))
			return
		}
		utils.LogError(err, "GetPublicInfo: Error from restaurantService.GetPublicInfo")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch restaurant.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetPublicInfoBySlug serves QR deep links that carry the restaurant slug.
func (h *RestaurantHandler) GetPublicInfoBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if utils.IsEmpty(slug) {
		utils.RespondValidationFailed(c, "slug is required")
		return
	}

	info, err := h.restaurantService.GetPublicInfoBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, services.ErrRestaurantNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), err.Error()))
			return
		}
		utils.LogError(err, "GetPublicInfoBySlug: Error from restaurantService.GetPublicInfoBySlug")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch restaurant.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, info)
}

// ListPaymentEvents exposes the webhook audit trail for reconciliation
// reporting.
func (h *RestaurantHandler) ListPaymentEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := h.notificationService.ListRecentPaymentEvents(limit)
	if err != nil {
		utils.LogError(err, "ListPaymentEvents: Error from notificationService.ListRecentPaymentEvents")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payment events.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
