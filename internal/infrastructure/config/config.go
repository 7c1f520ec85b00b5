// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${ENV} expansion
//  2. A local .env file
//  3. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration.
type Config struct {
	Reports       ReportsConfig       `yaml:"reports"`
	Tagger        TaggerConfig        `yaml:"tagger"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ReportsConfig holds the Amazon order history report paths.
type ReportsConfig struct {
	ItemsPath   string `yaml:"items_path"`
	OrdersPath  string `yaml:"orders_path"`
	RefundsPath string `yaml:"refunds_path"`
}

// TaggerConfig holds reconciliation policy settings.
type TaggerConfig struct {
	Itemize           bool `yaml:"itemize"`
	Retag             bool `yaml:"retag"`
	DateToleranceDays int  `yaml:"date_tolerance_days"`
}

// LedgerConfig holds the ledger export locations.
type LedgerConfig struct {
	ExportPath string `yaml:"export_path"`
	OutputPath string `yaml:"output_path"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${TAGGER_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	return &Config{
		Reports: ReportsConfig{
			ItemsPath:   os.Getenv("AMAZON_ITEMS_CSV"),
			OrdersPath:  os.Getenv("AMAZON_ORDERS_CSV"),
			RefundsPath: os.Getenv("AMAZON_REFUNDS_CSV"),
		},
		Tagger: TaggerConfig{
			Itemize:           getEnvBool("TAGGER_ITEMIZE", true),
			Retag:             getEnvBool("TAGGER_RETAG", true),
			DateToleranceDays: getEnvInt("TAGGER_DATE_TOLERANCE_DAYS", 3),
		},
		Ledger: LedgerConfig{
			ExportPath: os.Getenv("LEDGER_EXPORT_PATH"),
			OutputPath: getEnv("LEDGER_OUTPUT_PATH", "ledger_updates.json"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("TAGGER_DB_PATH", "tagger.db"),
		},
		API: APIConfig{
			ListenAddr: getEnv("TAGGER_API_ADDR", ":8080"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries config.yaml, falling back to environment variables. A
// local .env file is loaded first so either path sees it.
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries the specified path, falling back to environment
// variables.
func LoadOrEnvWithPath(path string) *Config {
	// Missing .env is fine; it is a development convenience.
	_ = godotenv.Load()

	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default.
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvBool retrieves a boolean environment variable with a fallback default.
func getEnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}
