// Package config provides configuration management for the SmartBudget
// pipeline. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Storage  StorageConfig
	Ingest   IngestConfig
	Server   ServerConfig
	LogLevel string
	AppEnv   string
}

// StorageConfig represents database and filesystem layout configuration.
type StorageConfig struct {
	DataDir    string
	DBPath     string
	ReportsDir string
}

// IngestConfig represents CSV ingestion configuration.
type IngestConfig struct {
	CSVPath  string
	SeedPath string
	Source   string
}

// ServerConfig represents HTTP API configuration.
type ServerConfig struct {
	Addr string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Storage: StorageConfig{
			DataDir:    getEnvOrDefault("SMARTBUDGET_DATA_DIR", "data"),
			DBPath:     os.Getenv("SMARTBUDGET_DB_PATH"),
			ReportsDir: os.Getenv("SMARTBUDGET_REPORTS_DIR"),
		},
		Ingest: IngestConfig{
			CSVPath:  os.Getenv("SMARTBUDGET_CSV_PATH"),
			SeedPath: os.Getenv("SMARTBUDGET_SEED_PATH"),
			Source:   getEnvOrDefault("SMARTBUDGET_SOURCE", "google_sheets"),
		},
		Server: ServerConfig{
			Addr: getEnvOrDefault("SMARTBUDGET_ADDR", ":8069"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
		AppEnv:   getEnvOrDefault("APP_ENV", "local"),
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) == 0 {
			continue
		}

		var value string
		switch path[0] {
		case "storage":
			if len(path) < 2 {
				continue
			}
			switch path[1] {
			case "dataDir":
				value = c.Storage.DataDir
			case "dbPath":
				value = c.Storage.DBPath
			case "reportsDir":
				value = c.Storage.ReportsDir
			}
		case "ingest":
			if len(path) < 2 {
				continue
			}
			switch path[1] {
			case "csvPath":
				value = c.Ingest.CSVPath
			case "seedPath":
				value = c.Ingest.SeedPath
			case "source":
				value = c.Ingest.Source
			}
		case "server":
			if len(path) < 2 {
				continue
			}
			switch path[1] {
			case "addr":
				value = c.Server.Addr
			}
		}

		if value == "" {
			missing = append(missing, joinPath(path))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// IsProduction reports whether the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// joinPath joins a path slice into a dot-separated string.
func joinPath(path []string) string {
	result := ""
	for i, p := range path {
		if i > 0 {
			result += "."
		}
		result += p
	}
	return result
}
