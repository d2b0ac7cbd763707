// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides listener and CORS settings.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// AssistantConfig provides settings for the OpenAI assistant thread client.
type AssistantConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIAssistantID() string
	GetOpenAIBaseURL() string
	GetOpenAIPollInterval() time.Duration
	GetOpenAIMaxPolls() int
	GetOpenAIAssistantModel() string
	IsAssistantEnabled() bool
}

// GeminiConfig provides settings for the backup generator.
type GeminiConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	IsGeminiEnabled() bool
}

// GeocodingConfig provides Nominatim settings.
type GeocodingConfig interface {
	GetNominatimURL() string
	GetNominatimUserAgent() string
	GetNominatimMinInterval() time.Duration
	GetGeocodeCacheTTL() time.Duration
}

// EmailConfig provides SMTP settings.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetEmailAttachPDF() bool
	IsEmailEnabled() bool
}

// GotenbergConfig provides settings for the HTML to PDF converter.
type GotenbergConfig interface {
	GetGotenbergURL() string
	GetGotenbergUsername() string
	GetGotenbergPassword() string
	IsGotenbergEnabled() bool
}

// MinIOConfig provides object storage settings for archived reports.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketReports() string
	IsMinIOEnabled() bool
}

// SchedulerConfig provides Redis and asynq settings for background generation.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetJobResultRetention() time.Duration
	GetJobTimeout() time.Duration
	IsSchedulerEnabled() bool
}

// ValuationConfig provides the knobs of the report pipeline.
type ValuationConfig interface {
	GetPricingTablePath() string
	GetPlausibilityThreshold() float64
	IsMarkupEnabled() bool
}

// =============================================================================
// Config Implementation
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Env            string
	HTTPAddr       string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	OpenAIAPIKey         string
	OpenAIAssistantID    string
	OpenAIBaseURL        string
	OpenAIPollInterval   time.Duration
	OpenAIMaxPolls       int
	OpenAIAssistantModel string

	GeminiAPIKey string
	GeminiModel  string

	NominatimURL         string
	NominatimUserAgent   string
	NominatimMinInterval time.Duration
	GeocodeCacheTTL      time.Duration

	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	EmailAttachPDF   bool

	GotenbergURL      string
	GotenbergUsername string
	GotenbergPassword string

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinioBucketReports string

	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
	JobResultRetention time.Duration
	JobTimeout         time.Duration

	PricingTablePath      string
	PlausibilityThreshold float64
	MarkupEnabled         bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig
func (c *Config) GetEnv() string           { return c.Env }
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// AssistantConfig
func (c *Config) GetOpenAIAPIKey() string              { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIAssistantID() string         { return c.OpenAIAssistantID }
func (c *Config) GetOpenAIBaseURL() string             { return c.OpenAIBaseURL }
func (c *Config) GetOpenAIPollInterval() time.Duration { return c.OpenAIPollInterval }
func (c *Config) GetOpenAIMaxPolls() int               { return c.OpenAIMaxPolls }
func (c *Config) GetOpenAIAssistantModel() string      { return c.OpenAIAssistantModel }
func (c *Config) IsAssistantEnabled() bool {
	return c.OpenAIAPIKey != "" && c.OpenAIAssistantID != ""
}

// GeminiConfig
func (c *Config) GetGeminiAPIKey() string { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string  { return c.GeminiModel }
func (c *Config) IsGeminiEnabled() bool   { return c.GeminiAPIKey != "" }

// GeocodingConfig
func (c *Config) GetNominatimURL() string                { return c.NominatimURL }
func (c *Config) GetNominatimUserAgent() string          { return c.NominatimUserAgent }
func (c *Config) GetNominatimMinInterval() time.Duration { return c.NominatimMinInterval }
func (c *Config) GetGeocodeCacheTTL() time.Duration      { return c.GeocodeCacheTTL }

// EmailConfig
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetEmailAttachPDF() bool     { return c.EmailAttachPDF }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" }

// GotenbergConfig
func (c *Config) GetGotenbergURL() string      { return c.GotenbergURL }
func (c *Config) GetGotenbergUsername() string { return c.GotenbergUsername }
func (c *Config) GetGotenbergPassword() string { return c.GotenbergPassword }
func (c *Config) IsGotenbergEnabled() bool     { return c.GotenbergURL != "" }

// MinIOConfig
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketReports() string { return c.MinioBucketReports }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// SchedulerConfig
func (c *Config) GetRedisURL() string                  { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool            { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string            { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int             { return c.AsynqConcurrency }
func (c *Config) GetJobResultRetention() time.Duration { return c.JobResultRetention }
func (c *Config) GetJobTimeout() time.Duration         { return c.JobTimeout }
func (c *Config) IsSchedulerEnabled() bool             { return c.RedisURL != "" }

// ValuationConfig
func (c *Config) GetPricingTablePath() string       { return c.PricingTablePath }
func (c *Config) GetPlausibilityThreshold() float64 { return c.PlausibilityThreshold }
func (c *Config) IsMarkupEnabled() bool             { return c.MarkupEnabled }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIAssistantID:     getEnv("OPENAI_ASSISTANT_ID", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		OpenAIPollInterval:    mustDuration(getEnv("OPENAI_POLL_INTERVAL", "2s")),
		OpenAIMaxPolls:        mustInt(getEnv("OPENAI_MAX_POLLS", "60")),
		OpenAIAssistantModel:  getEnv("OPENAI_ASSISTANT_MODEL", "gpt-4o"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		NominatimURL:          getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent:    getEnv("NOMINATIM_USER_AGENT", "ValoraPro/1.0"),
		NominatimMinInterval:  mustDuration(getEnv("NOMINATIM_MIN_INTERVAL", "300ms")),
		GeocodeCacheTTL:       mustDuration(getEnv("GEOCODE_CACHE_TTL", "1h")),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "ValoraPro"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailAttachPDF:        strings.EqualFold(getEnv("EMAIL_ATTACH_PDF", "true"), "true"),
		GotenbergURL:          getEnv("GOTENBERG_URL", ""),
		GotenbergUsername:     getEnv("GOTENBERG_USERNAME", ""),
		GotenbergPassword:     getEnv("GOTENBERG_PASSWORD", ""),
		MinIOEndpoint:         getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:        getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:           strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketReports:    getEnv("MINIO_BUCKET_REPORTS", "valuation-reports"),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "valuations"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		JobResultRetention:    mustDuration(getEnv("JOB_RESULT_RETENTION", "24h")),
		JobTimeout:            mustDuration(getEnv("JOB_TIMEOUT", "5m")),
		PricingTablePath:      getEnv("PRICING_TABLE_PATH", ""),
		PlausibilityThreshold: mustFloat(getEnv("VALUATION_PLAUSIBILITY_THRESHOLD", "10000")),
		MarkupEnabled:         !strings.EqualFold(getEnv("VALUATION_MARKUP_ENABLED", "true"), "false"),
	}

	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.OpenAIAPIKey != "" && cfg.OpenAIAssistantID == "" {
		return nil, fmt.Errorf("OPENAI_ASSISTANT_ID is required when OPENAI_API_KEY is set")
	}
	if cfg.OpenAIPollInterval <= 0 || cfg.OpenAIMaxPolls <= 0 {
		return nil, fmt.Errorf("OPENAI_POLL_INTERVAL and OPENAI_MAX_POLLS must be positive")
	}
	if cfg.IsEmailEnabled() && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.PlausibilityThreshold <= 0 {
		return nil, fmt.Errorf("VALUATION_PLAUSIBILITY_THRESHOLD must be positive")
	}
	if cfg.AsynqConcurrency <= 0 {
		cfg.AsynqConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
