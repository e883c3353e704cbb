// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	tolerance := cfg.Matching.AmountTolerance
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Storage        StorageConfig        `yaml:"storage"`
	Server         ServerConfig         `yaml:"server"`
	Matching       MatchingConfig       `yaml:"matching"`
	Categorization CategorizationConfig `yaml:"categorization"`
	AI             AIConfig             `yaml:"ai"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MatchingConfig holds auto-matcher settings
type MatchingConfig struct {
	AmountTolerance    float64 `yaml:"amount_tolerance"`
	DateToleranceDays  int     `yaml:"date_tolerance_days"`
	WarningDateGapDays int     `yaml:"warning_date_gap_days"`
	AutoMarkCash       bool    `yaml:"auto_mark_cash"`
}

// CategorizationConfig holds categorizer settings
type CategorizationConfig struct {
	RulesPath        string `yaml:"rules_path"` // Optional, built-in rules when empty
	PatternCacheSize int    `yaml:"pattern_cache_size"`
}

// AIConfig holds settings for AI-assisted matching. An empty provider
// disables it.
type AIConfig struct {
	Provider    string        `yaml:"provider"` // openai | gemini
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	BatchSize   int           `yaml:"batch_size"`
	BatchDelay  time.Duration `yaml:"batch_delay"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${OPENAI_API_KEY})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			DatabasePath: getEnv("RECONCILE_DB_PATH", "reconcile.db"),
		},
		Server: ServerConfig{
			Port:           getEnvInt("PORT", 8085),
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),
		},
		Matching: MatchingConfig{
			AmountTolerance:    getEnvFloat("MATCH_AMOUNT_TOLERANCE", 0.50),
			DateToleranceDays:  getEnvInt("MATCH_DATE_TOLERANCE_DAYS", 60),
			WarningDateGapDays: getEnvInt("MATCH_WARNING_DATE_GAP_DAYS", 45),
			AutoMarkCash:       getEnvBool("MATCH_AUTO_MARK_CASH", false),
		},
		Categorization: CategorizationConfig{
			RulesPath:        getEnv("CATEGORIZATION_RULES_PATH", ""),
			PatternCacheSize: getEnvInt("PATTERN_CACHE_SIZE", 256),
		},
		AI: AIConfig{
			Provider:   getEnv("AI_PROVIDER", ""),
			APIKey:     os.Getenv("AI_API_KEY"),
			Model:      getEnv("AI_MODEL", ""),
			BaseURL:    getEnv("AI_BASE_URL", ""),
			BatchSize:  getEnvInt("AI_BATCH_SIZE", 3),
			BatchDelay: getEnvDuration("AI_BATCH_DELAY", 2*time.Second),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills zero values. Zero date tolerance is kept: it disables
// the date filter.
func (c *Config) applyDefaults() {
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "reconcile.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8085
	}
	if c.Matching.AmountTolerance == 0 {
		c.Matching.AmountTolerance = 0.50
	}
	if c.Matching.WarningDateGapDays == 0 {
		c.Matching.WarningDateGapDays = 45
	}
	if c.Categorization.PatternCacheSize == 0 {
		c.Categorization.PatternCacheSize = 256
	}
	if c.AI.BatchSize == 0 {
		c.AI.BatchSize = 3
	}
	if c.AI.BatchDelay == 0 {
		c.AI.BatchDelay = 2 * time.Second
	}
	if c.AI.APIKey == "" {
		c.AI.APIKey = c.GetAPIKey("", aiKeyEnvVars(c.AI.Provider)...)
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// Validate rejects settings that would make matching misbehave.
func (c *Config) Validate() error {
	if c.Matching.AmountTolerance < 0 {
		return fmt.Errorf("matching.amount_tolerance must not be negative")
	}
	if c.Matching.DateToleranceDays < 0 {
		return fmt.Errorf("matching.date_tolerance_days must not be negative")
	}
	if c.AI.BatchSize < 0 {
		return fmt.Errorf("ai.batch_size must not be negative")
	}
	switch strings.ToLower(c.AI.Provider) {
	case "", "openai", "gemini":
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	switch c.Observability.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown observability.logging.format %q", c.Observability.Logging.Format)
	}
	return nil
}

func aiKeyEnvVars(provider string) []string {
	switch strings.ToLower(provider) {
	case "openai":
		return []string{"OPENAI_API_KEY"}
	case "gemini":
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(val, 64); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseBool(val); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if result, err := time.ParseDuration(val); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.AI.APIKey, "OPENAI_API_KEY")
//
//	GetAPIKey(cfg.AI.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	// First, try the config value
	if configValue != "" {
		return configValue
	}

	// Then try each environment variable in order
	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}
