// Package config loads and validates the EcoQuest server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Port string `toml:"port"`
	Env  string `toml:"env"`

	// DatabaseURL is optional; without it sessions and activity stay in memory.
	DatabaseURL string `toml:"database_url"`

	GeminiAPIKey      string        `toml:"-"`
	GeminiBaseURL     string        `toml:"gemini_base_url"`
	GeminiTextModel   string        `toml:"gemini_text_model"`
	GeminiVisionModel string        `toml:"gemini_vision_model"`
	GeminiTimeout     time.Duration `toml:"-"`

	NominatimBaseURL   string        `toml:"nominatim_base_url"`
	NominatimUserAgent string        `toml:"nominatim_user_agent"`
	GeocodeCacheTTL    time.Duration `toml:"-"`

	SessionTTL     time.Duration `toml:"-"`
	MaxImageBytes  int           `toml:"max_image_bytes"`
	AllowedOrigins string        `toml:"allowed_origins"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// fileConfig mirrors the TOML file; durations are written as seconds.
type fileConfig struct {
	Config
	GeminiTimeoutSeconds   int `toml:"gemini_timeout_seconds"`
	GeocodeCacheTTLSeconds int `toml:"geocode_cache_ttl_seconds"`
	SessionTTLMinutes      int `toml:"session_ttl_minutes"`
}

// Defaults returns the built-in configuration before any file or environment overrides.
func Defaults() *Config {
	return &Config{
		Port:               "8080",
		Env:                "development",
		GeminiBaseURL:      "https://generativelanguage.googleapis.com",
		GeminiTextModel:    "gemini-pro",
		GeminiVisionModel:  "gemini-pro-vision",
		GeminiTimeout:      30 * time.Second,
		NominatimBaseURL:   "https://nominatim.openstreetmap.org",
		NominatimUserAgent: "ecoquest-waste-analyzer",
		GeocodeCacheTTL:    10 * time.Minute,
		SessionTTL:         12 * time.Hour,
		MaxImageBytes:      8 << 20,
		AllowedOrigins:     "*",
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load builds the configuration: defaults, then the optional TOML file named
// by ECOQUEST_CONFIG, then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("ECOQUEST_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("GO_ENV", cfg.Env)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", cfg.GeminiAPIKey))
	cfg.GeminiBaseURL = getEnv("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.GeminiTextModel = getEnv("GEMINI_TEXT_MODEL", cfg.GeminiTextModel)
	cfg.GeminiVisionModel = getEnv("GEMINI_VISION_MODEL", cfg.GeminiVisionModel)
	cfg.GeminiTimeout = getSecondsEnv("GEMINI_TIMEOUT_SECONDS", cfg.GeminiTimeout)
	cfg.NominatimBaseURL = getEnv("NOMINATIM_BASE_URL", cfg.NominatimBaseURL)
	cfg.NominatimUserAgent = getEnv("NOMINATIM_USER_AGENT", cfg.NominatimUserAgent)
	cfg.GeocodeCacheTTL = getSecondsEnv("GEOCODE_CACHE_TTL_SECONDS", cfg.GeocodeCacheTTL)
	cfg.SessionTTL = getSecondsEnv("SESSION_TTL_SECONDS", cfg.SessionTTL)
	cfg.MaxImageBytes = getIntEnv("MAX_IMAGE_BYTES", cfg.MaxImageBytes)
	cfg.AllowedOrigins = getEnv("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	fc := fileConfig{Config: *c}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	apiKey := c.GeminiAPIKey
	*c = fc.Config
	// secrets only come from the environment
	c.GeminiAPIKey = apiKey
	if fc.GeminiTimeoutSeconds > 0 {
		c.GeminiTimeout = time.Duration(fc.GeminiTimeoutSeconds) * time.Second
	}
	if fc.GeocodeCacheTTLSeconds > 0 {
		c.GeocodeCacheTTL = time.Duration(fc.GeocodeCacheTTLSeconds) * time.Second
	}
	if fc.SessionTTLMinutes > 0 {
		c.SessionTTL = time.Duration(fc.SessionTTLMinutes) * time.Minute
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that every required field is present and sane. All problems
// are reported together.
func (c *Config) Validate() error {
	var problems []string

	required := []struct {
		env   string
		value string
	}{
		{"GEMINI_API_KEY", c.GeminiAPIKey},
		{"GEMINI_TEXT_MODEL", c.GeminiTextModel},
		{"GEMINI_VISION_MODEL", c.GeminiVisionModel},
		{"NOMINATIM_USER_AGENT", c.NominatimUserAgent},
		{"PORT", c.Port},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.env+" is required")
		}
	}

	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL_SECONDS must be positive")
	}
	if c.GeocodeCacheTTL <= 0 {
		problems = append(problems, "GEOCODE_CACHE_TTL_SECONDS must be positive")
	}
	if c.MaxImageBytes <= 0 {
		problems = append(problems, "MAX_IMAGE_BYTES must be positive")
	}

	if len(problems) > 0 {
		return errors.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
