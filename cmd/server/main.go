package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"qrdine_backend/internal/broadcast"
	"qrdine_backend/internal/cache"
	"qrdine_backend/internal/config"
	"qrdine_backend/internal/database"
	"qrdine_backend/internal/gateway"
	"qrdine_backend/internal/repositories"
	"qrdine_backend/internal/repositories/memory"
	"qrdine_backend/internal/router"
	"qrdine_backend/internal/services"
	"qrdine_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	// Initialize Logger
	utils.InitLogger()

	cfg := config.Load()
	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	// Datastore: postgres by default, memory for local development.
	var ds repositories.Datastore
	switch cfg.Storage.Driver {
	case "memory":
		ds = memory.New()
		utils.LogWarn("Using in-memory datastore, data is lost on restart")
	default:
		database.InitDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode, cfg.DB.SchemaPath)
		ds = repositories.NewPostgresDatastore(database.GetDB())
		utils.LogInfo("Database initialized", map[string]interface{}{"configured_from_env": true})
	}

	// A redis client is shared by the broadcaster and cache when either of
	// them is configured to use it.
	var redisClient *redis.Client
	needRedis := cfg.Broadcast.Driver == "redis" || cfg.Cache.Driver == "redis"
	if needRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var broadcaster broadcast.Broadcaster
	switch cfg.Broadcast.Driver {
	case "rabbitmq":
		url := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
			cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.VHost)
		var err error
		broadcaster, err = broadcast.NewRabbitBroadcaster(url)
		if err != nil {
			utils.LogError(err, "Failed to connect to RabbitMQ")
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
	case "memory":
		broadcaster = broadcast.NewMemoryBroadcaster()
	default:
		broadcaster = broadcast.NewRedisBroadcaster(redisClient)
	}
	defer broadcaster.Close()

	var readCache cache.Cache
	if cfg.Cache.Driver == "redis" {
		readCache = cache.NewRedisCache(redisClient)
	} else {
		readCache = cache.NewMemoryCache()
	}

	gw := gateway.NewClient(gateway.Config{
		BaseURL:       cfg.Gateway.BaseURL,
		AppID:         cfg.Gateway.AppID,
		SecretKey:     cfg.Gateway.SecretKey,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Timeout:       cfg.Gateway.Timeout,
	})

	engine := gin.Default()

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	var allowedOrigins []string
	if cfg.Server.CORSOrigins != "" {
		allowedOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "x-webhook-signature", "x-webhook-timestamp"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Setup all application routes
	router.Setup(engine, router.Dependencies{
		Datastore:   ds,
		Gateway:     gw,
		Broadcaster: broadcaster,
		Cache:       readCache,
		Payment: services.PaymentConfig{
			CommissionRate:     cfg.Gateway.CommissionRate,
			SettlementSchedule: cfg.Gateway.SettlementSchedule,
		},
		CacheTTL: cfg.Cache.TTL,
	})

	utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port})
	if err := engine.Run(":" + cfg.Server.Port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
