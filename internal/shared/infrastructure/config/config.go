package config

import (
	"os"
	"strconv"
	"time"

	"github.com/brokeradda/portal/internal/shared/infrastructure/database"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Log          LogConfig
	Database     database.PostgresConfig
	Redis        database.RedisConfig
	Storage      StorageConfig
	Backend      BackendConfig
	Notification NotificationConfig
	OTP          OTPConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
	Environment    string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects where verified sessions are persisted:
// "redis", "postgres" or "memory".
type StorageConfig struct {
	Driver         string
	SessionTTL     time.Duration
	MigrationsPath string
}

// BackendConfig points at the upstream marketplace API
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NotificationConfig holds toast store defaults
type NotificationConfig struct {
	ToastLimit  int
	RemoveDelay time.Duration
	Gutter      float64
}

// OTPConfig holds OTP verification flow settings
type OTPConfig struct {
	ResendCooldown    time.Duration
	IdleTimeout       time.Duration
	MaxFlowsPerClient int
	BrokerHome        string
	CustomerProfile   string
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
			Environment:    getEnv("APP_ENV", "development"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		Database: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "broker_portal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: database.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Storage: StorageConfig{
			Driver:         getEnv("SESSION_STORAGE", "redis"),
			SessionTTL:     parseDuration(getEnv("SESSION_TTL", "720h"), 720*time.Hour),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "https://broker-adda-be.algofolks.com/api"),
			Timeout: parseDuration(getEnv("BACKEND_TIMEOUT", "15s"), 15*time.Second),
		},
		Notification: NotificationConfig{
			ToastLimit:  parseInt(getEnv("TOAST_LIMIT", "20"), 20),
			RemoveDelay: parseDuration(getEnv("TOAST_REMOVE_DELAY", "1s"), time.Second),
			Gutter:      parseFloat(getEnv("TOAST_GUTTER", "8"), 8),
		},
		OTP: OTPConfig{
			ResendCooldown:    parseDuration(getEnv("OTP_RESEND_COOLDOWN", "60s"), 60*time.Second),
			IdleTimeout:       parseDuration(getEnv("OTP_FLOW_IDLE_TIMEOUT", "15m"), 15*time.Minute),
			MaxFlowsPerClient: parseInt(getEnv("OTP_MAX_FLOWS_PER_CLIENT", "5"), 5),
			BrokerHome:        getEnv("BROKER_HOME_PATH", "/broker-dashboard"),
			CustomerProfile:   getEnv("CUSTOMER_PROFILE_PATH", "/profile"),
		},
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}

func parseFloat(value string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return defaultValue
}
