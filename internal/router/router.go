package router

import (
	"time"

	"qrdine_backend/internal/broadcast"
	"qrdine_backend/internal/cache"
	"qrdine_backend/internal/gateway"
	"qrdine_backend/internal/handlers"
	"qrdine_backend/internal/middleware"
	"qrdine_backend/internal/repositories"
	"qrdine_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Dependencies carries the infrastructure the routes are wired onto.
type Dependencies struct {
	Datastore   repositories.Datastore
	Gateway     gateway.Gateway
	Broadcaster broadcast.Broadcaster
	Cache       cache.Cache
	Payment     services.PaymentConfig
	CacheTTL    time.Duration
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	// Initialize Services
	orderService := services.NewOrderService(deps.Datastore)
	paymentService := services.NewPaymentService(deps.Datastore, deps.Gateway, deps.Broadcaster, deps.Cache, deps.Payment)
	restaurantService := services.NewRestaurantService(deps.Datastore, deps.Cache, deps.CacheTTL)
	notificationService := services.NewNotificationService(deps.Datastore)

	// Initialize Handlers
	orderHandler := handlers.NewOrderHandler(orderService, deps.Broadcaster)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	restaurantHandler := handlers.NewRestaurantHandler(restaurantService, notificationService)

	apiV1 := engine.Group("/api/v1")

	// Public routes: QR landing pages, order intake, the customer pay flow
	// and the gateway webhook.
	SetupPublicRestaurantRoutes(apiV1, restaurantHandler)
	SetupPublicOrderRoutes(apiV1, orderHandler)
	SetupPublicPaymentRoutes(apiV1, paymentHandler)

	// Staff routes require a token from the external auth service.
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupOrderRoutes(authenticated, orderHandler)
		SetupPaymentRoutes(authenticated, paymentHandler)
		SetupReconciliationRoutes(authenticated, restaurantHandler)
	}
}
