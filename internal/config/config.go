// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DBConnStr       string
	Port            int
	APIToken        string
	LogLevel        string
	YahooBaseURL    string // Empty means the default Yahoo Finance chart endpoint
	DolarAPIBaseURL string // Empty means the default DolarAPI blue endpoint
	RefreshCron     string // Cron spec for the price refresh job; empty disables it
	SnapshotUserID  string // Portfolio owner the scheduler records snapshots for
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DBConnStr:       buildConnStr(),
		Port:            getEnvAsInt("PORT", 8080),
		APIToken:        getEnv("API_TOKEN", "dev-token"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		YahooBaseURL:    getEnv("YAHOO_BASE_URL", ""),
		DolarAPIBaseURL: getEnv("DOLARAPI_BASE_URL", ""),
		RefreshCron:     getEnv("REFRESH_CRON", ""),
		SnapshotUserID:  getEnv("SNAPSHOT_USER_ID", ""),
	}

	if cfg.RefreshCron != "" && cfg.SnapshotUserID == "" {
		return nil, fmt.Errorf("REFRESH_CRON is set but SNAPSHOT_USER_ID is empty")
	}

	return cfg, nil
}

// buildConnStr returns DB_CONN_STR when set, otherwise assembles a
// connection string from individual DB_* vars (Docker friendly).
func buildConnStr() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	dbname := getEnv("DB_NAME", "portfolio")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
