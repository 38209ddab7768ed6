package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Broker backend selectors.
const (
	BrokerPaper  = "paper"
	BrokerAlpaca = "alpaca"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Broker    BrokerConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// BrokerConfig selects and configures the broker backend. Credentials are
// read from the environment only; nothing is persisted.
type BrokerConfig struct {
	Backend          string // "paper" or "alpaca"
	AlpacaAPIKey     string
	AlpacaAPISecret  string
	AlpacaBaseURL    string
	OrderHistoryDays int
}

// SchedulerConfig holds the cron specs for the background jobs. Specs use
// the six-field form with a leading seconds field.
type SchedulerConfig struct {
	Enabled            bool
	ScanCron           string
	QueueSweepCron     string
	RetentionSweepCron string
	RetentionDays      int
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/tlh.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost"), ","),
		},
		Broker: BrokerConfig{
			Backend:          getEnv("BROKER", BrokerPaper),
			AlpacaAPIKey:     os.Getenv("ALPACA_API_KEY"),
			AlpacaAPISecret:  os.Getenv("ALPACA_API_SECRET"),
			AlpacaBaseURL:    getEnv("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
			OrderHistoryDays: getEnvInt("ORDER_HISTORY_DAYS", 60),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getEnvBool("SCHEDULER_ENABLED", true),
			ScanCron:           getEnv("SCAN_CRON", "0 30 9 * * MON-FRI"),
			QueueSweepCron:     getEnv("QUEUE_SWEEP_CRON", "0 0 0 * * *"),
			RetentionSweepCron: getEnv("RETENTION_SWEEP_CRON", "0 0 1 * * SUN"),
			RetentionDays:      getEnvInt("RETENTION_DAYS", 90),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	if config.Broker.Backend != BrokerPaper && config.Broker.Backend != BrokerAlpaca {
		return nil, fmt.Errorf("unknown broker backend %q", config.Broker.Backend)
	}
	if config.Broker.Backend == BrokerAlpaca && (config.Broker.AlpacaAPIKey == "" || config.Broker.AlpacaAPISecret == "") {
		return nil, fmt.Errorf("broker backend %q requires ALPACA_API_KEY and ALPACA_API_SECRET", BrokerAlpaca)
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
