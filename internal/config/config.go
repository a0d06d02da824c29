package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime knob the server needs. Values come from the
// environment, with a .env file honoured for local development.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Storage   StorageConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Broadcast BroadcastConfig
	Cache     CacheConfig
	Gateway   GatewayConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins string // comma-separated; empty means localhost defaults
}

type DBConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SchemaPath string
}

type StorageConfig struct {
	// Driver selects the Datastore implementation: "postgres" or "memory".
	Driver string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type BroadcastConfig struct {
	// Driver selects the Broadcaster implementation: "redis", "rabbitmq" or "memory".
	Driver string
}

type CacheConfig struct {
	// Driver selects the cache implementation: "memory" or "redis".
	Driver string
	TTL    time.Duration
}

type GatewayConfig struct {
	BaseURL        string
	AppID          string
	SecretKey      string
	WebhookSecret  string
	CommissionRate float64 // platform share of each payment, 0.01 = 1%
	Timeout        time.Duration
	// SettlementSchedule 1 = next business day (default), 2 = instant.
	SettlementSchedule int
}

type AuthConfig struct {
	JWTSecret string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	mqPort, _ := strconv.Atoi(getEnv("RABBITMQ_PORT", "5672"))
	commission, err := strconv.ParseFloat(getEnv("PLATFORM_COMMISSION_RATE", "0.01"), 64)
	if err != nil || commission < 0 || commission >= 1 {
		commission = 0.01
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "15m"))
	if err != nil {
		cacheTTL = 15 * time.Minute
	}
	gwTimeout, err := time.ParseDuration(getEnv("GATEWAY_TIMEOUT", "10s"))
	if err != nil {
		gwTimeout = 10 * time.Second
	}
	schedule, _ := strconv.Atoi(getEnv("GATEWAY_SETTLEMENT_SCHEDULE", "1"))
	if schedule != 1 && schedule != 2 {
		schedule = 1
	}

	return Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		},
		DB: DBConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "qrdine_user"),
			Password:   getEnv("DB_PASSWORD", "qrdine_password"),
			Name:       getEnv("DB_NAME", "qrdine_db"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SchemaPath: getEnv("DB_SCHEMA_PATH", ""),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "postgres"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     mqPort,
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", "/"),
		},
		Broadcast: BroadcastConfig{
			Driver: getEnv("BROADCAST_DRIVER", "redis"),
		},
		Cache: CacheConfig{
			Driver: getEnv("CACHE_DRIVER", "memory"),
			TTL:    cacheTTL,
		},
		Gateway: GatewayConfig{
			BaseURL:            getEnv("CASHFREE_BASE_URL", "https://sandbox.cashfree.com/pg"),
			AppID:              getEnv("CASHFREE_APP_ID", ""),
			SecretKey:          getEnv("CASHFREE_SECRET_KEY", ""),
			WebhookSecret:      getEnv("CASHFREE_WEBHOOK_SECRET", ""),
			CommissionRate:     commission,
			Timeout:            gwTimeout,
			SettlementSchedule: schedule,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
