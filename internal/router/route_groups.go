package router

import (
	"qrdine_backend/internal/handlers"
	"qrdine_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPublicRestaurantRoutes serves the cached public projection hit by
// every QR scan. The QR code encodes the slug deep link; staff tooling
// resolves by numeric id.
func SetupPublicRestaurantRoutes(group *gin.RouterGroup, h *handlers.RestaurantHandler) {
	group.GET("/restaurants/:id", h.GetPublicInfo)
	group.GET("/qr/:slug", h.GetPublicInfoBySlug)
}

// SetupPublicOrderRoutes lets customers place and track orders without a
// staff token. Tracking sits under /track; gin's route tree cannot hold a
// param segment next to the static /orders/active.
func SetupPublicOrderRoutes(group *gin.RouterGroup, h *handlers.OrderHandler) {
	orders := group.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/track/:id", h.GetOrder)
		orders.GET("/track/:id/actions", h.AllowedStatusActions)
	}
}

// SetupPublicPaymentRoutes covers the customer pay flow and the gateway
// callback. The webhook authenticates by signature, not a JWT.
func SetupPublicPaymentRoutes(group *gin.RouterGroup, h *handlers.PaymentHandler) {
	payment := group.Group("/payment")
	{
		payment.POST("/webhook", h.HandleWebhook)
		payment.POST("/initiate", h.InitiatePayment)
		payment.GET("/status/:orderId", h.PaymentStatus)
	}
}

// SetupOrderRoutes wires the staff-facing order lifecycle.
func SetupOrderRoutes(group *gin.RouterGroup, h *handlers.OrderHandler) {
	orders := group.Group("/orders")
	{
		orders.GET("/active", h.GetActiveOrders)
		orders.PUT("/:id/status", middleware.RoleAuthMiddleware("admin", "reception", "kitchen", "captain"), h.UpdateOrderStatus)
	}
}

// SetupPaymentRoutes wires vendor provisioning, payment sessions, refunds
// and gateway passthrough reads.
func SetupPaymentRoutes(group *gin.RouterGroup, h *handlers.PaymentHandler) {
	payment := group.Group("/payment")
	{
		payment.POST("/vendor", middleware.RoleAuthMiddleware("admin"), h.ProvisionVendor)
		payment.POST("/refund", middleware.RoleAuthMiddleware("admin", "reception"), h.Refund)
		payment.GET("/vendor/:restaurantId/settlements", middleware.RoleAuthMiddleware("admin"), h.Settlements)
	}
}

// SetupReconciliationRoutes exposes the webhook audit trail to admins.
func SetupReconciliationRoutes(group *gin.RouterGroup, h *handlers.RestaurantHandler) {
	group.GET("/payment/events", middleware.RoleAuthMiddleware("admin"), h.ListPaymentEvents)
}
