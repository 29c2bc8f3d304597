package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Storage    StorageConfig
	Database   DatabaseConfig
	Classifier ClassifierConfig
	Server     ServerConfig
	Scheduler  SchedulerConfig
	Log        LogConfig
}

type StorageConfig struct {
	LedgerDir       string
	VocabularyPath  string
	CategoriesPath  string
	SearchIndexPath string
}

// DatabaseConfig is optional; an empty URL keeps everything on local files.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

type ClassifierConfig struct {
	ShortWordWeight float64
	ShortWordLength int
	MinConfidence   float64
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	AllowedOrigins     []string
}

type SchedulerConfig struct {
	VocabularyFlush string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{
			LedgerDir:       getEnv("LEDGER_DIR", "./data"),
			VocabularyPath:  getEnv("VOCABULARY_PATH", ""),
			CategoriesPath:  getEnv("CATEGORIES_PATH", ""),
			SearchIndexPath: getEnv("SEARCH_INDEX_PATH", ""),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvAsInt("DATABASE_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DATABASE_MIN_CONNS", 5),
		},
		Classifier: ClassifierConfig{
			ShortWordWeight: getEnvAsFloat("CLASSIFIER_SHORT_WORD_WEIGHT", 0.95),
			ShortWordLength: getEnvAsInt("CLASSIFIER_SHORT_WORD_LENGTH", 4),
			MinConfidence:   getEnvAsFloat("CLASSIFIER_MIN_CONFIDENCE", 0.1),
		},
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 100),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 200),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Scheduler: SchedulerConfig{
			VocabularyFlush: getEnv("VOCABULARY_FLUSH_SCHEDULE", "@every 5m"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Storage.LedgerDir == "" {
		errs = append(errs, errors.New("LEDGER_DIR is required"))
	}
	if c.Classifier.ShortWordWeight <= 0 {
		errs = append(errs, fmt.Errorf("CLASSIFIER_SHORT_WORD_WEIGHT must be positive, got %v", c.Classifier.ShortWordWeight))
	}
	if c.Classifier.ShortWordLength < 0 {
		errs = append(errs, fmt.Errorf("CLASSIFIER_SHORT_WORD_LENGTH must not be negative, got %d", c.Classifier.ShortWordLength))
	}
	if c.Classifier.MinConfidence < 0 {
		errs = append(errs, fmt.Errorf("CLASSIFIER_MIN_CONFIDENCE must not be negative, got %v", c.Classifier.MinConfidence))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port))
	}
	if c.Server.RateLimitPerSecond <= 0 || c.Server.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("rate limit and burst must be positive"))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DATABASE_MIN_CONNS exceeds DATABASE_MAX_CONNS"))
	}
	if c.Scheduler.VocabularyFlush != "" {
		if _, err := cron.ParseStandard(c.Scheduler.VocabularyFlush); err != nil {
			errs = append(errs, fmt.Errorf("VOCABULARY_FLUSH_SCHEDULE: %w", err))
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address of the HTTP server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
