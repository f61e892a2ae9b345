package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned when extraction is requested without a credential.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

const (
	TierFree = "free"
	TierPaid = "paid"
)

// Config holds all application configuration
type Config struct {
	LogLevel  string
	Gemini    GeminiConfig
	Pipeline  PipelineConfig
	Normalize NormalizeConfig
	Server    ServerConfig
	GCP       GCPConfig
	Export    ExportConfig
}

// GeminiConfig selects the extraction model and its usage tier.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Tier    string
	Timeout time.Duration
}

// PipelineConfig controls chunking, retries and pacing.
type PipelineConfig struct {
	PagesPerChunk    int
	MaxRetries       int
	RetryDelay       time.Duration
	RateLimitBackoff time.Duration
	PacingDelay      time.Duration
}

type NormalizeConfig struct {
	DefaultCurrency  string
	UnknownDirection string // "credit" or "debit"
}

type ServerConfig struct {
	Port           string
	CacheTTL       time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	MaxUploadBytes int64
}

// ExportConfig points at the YAML file with default ledger rules.
type ExportConfig struct {
	RulesPath string
}

type GCPConfig struct {
	ProjectID string
	Bucket    string
	Dataset   string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() *Config {
	tier := strings.ToLower(getEnv("GEMINI_TIER", TierFree))

	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Tier:    tier,
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 2*time.Minute),
		},
		Pipeline: PipelineConfig{
			PagesPerChunk:    getEnvAsInt("PAGES_PER_CHUNK", 2),
			MaxRetries:       getEnvAsInt("MAX_RETRIES", 2),
			RetryDelay:       getEnvAsDuration("RETRY_DELAY", 2*time.Second),
			RateLimitBackoff: getEnvAsDuration("RATE_LIMIT_BACKOFF", 60*time.Second),
			PacingDelay:      getEnvAsDuration("PACING_DELAY", DefaultPacing(tier)),
		},
		Normalize: NormalizeConfig{
			DefaultCurrency:  strings.ToUpper(getEnv("DEFAULT_CURRENCY", "INR")),
			UnknownDirection: strings.ToLower(getEnv("UNKNOWN_DIRECTION", "credit")),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			CacheTTL:       getEnvAsDuration("RESULT_CACHE_TTL", 30*time.Minute),
			RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 2),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 4),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 25)) << 20,
		},
		GCP: GCPConfig{
			ProjectID: getEnv("GCP_PROJECT_ID", ""),
			Bucket:    getEnv("GCS_BUCKET", ""),
			Dataset:   getEnv("BIGQUERY_DATASET", "bank_to_tally"),
		},
		Export: ExportConfig{
			RulesPath: getEnv("EXPORT_RULES", ""),
		},
	}
}

// DefaultPacing is the gap between chunk calls for a usage tier.
// The free tier allows roughly ten requests a minute.
func DefaultPacing(tier string) time.Duration {
	if tier == TierPaid {
		return time.Second
	}
	return 6 * time.Second
}

// Validate checks values that do not depend on which command runs.
func (c *Config) Validate() error {
	if c.Pipeline.PagesPerChunk < 1 {
		return fmt.Errorf("Validate: PAGES_PER_CHUNK must be >= 1, got %d", c.Pipeline.PagesPerChunk)
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("Validate: MAX_RETRIES must be >= 0, got %d", c.Pipeline.MaxRetries)
	}
	if c.Pipeline.RetryDelay < 0 || c.Pipeline.RateLimitBackoff < 0 || c.Pipeline.PacingDelay < 0 {
		return fmt.Errorf("Validate: delays must not be negative")
	}
	if c.Gemini.Tier != TierFree && c.Gemini.Tier != TierPaid {
		return fmt.Errorf("Validate: GEMINI_TIER must be %q or %q, got %q", TierFree, TierPaid, c.Gemini.Tier)
	}
	if money.GetCurrency(c.Normalize.DefaultCurrency) == nil {
		return fmt.Errorf("Validate: unknown DEFAULT_CURRENCY %q", c.Normalize.DefaultCurrency)
	}
	switch c.Normalize.UnknownDirection {
	case "credit", "debit":
	default:
		return fmt.Errorf("Validate: UNKNOWN_DIRECTION must be credit or debit, got %q", c.Normalize.UnknownDirection)
	}
	return nil
}

// RequireExtraction fails fast when the extraction credential is missing.
func (c *Config) RequireExtraction() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Helper functions for environment variable parsing
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
