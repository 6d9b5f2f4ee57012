package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is loaded from environment variables, optionally overlaid by a
// YAML file named in PINSCOUT_CONFIG. File values win over env values.
type Config struct {
	// Server
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// Auth. Empty disables bearer-token checks.
	JWTSecret string `yaml:"jwt_secret"`

	// Browse service (feed warm-up)
	BrowseURL    string `yaml:"browse_url"`
	BrowseAPIKey string `yaml:"browse_api_key"`

	// Collection service (feed harvesting)
	CollectorURL    string `yaml:"collector_url"`
	CollectorAPIKey string `yaml:"collector_api_key"`

	// Scoring service (OpenAI-compatible chat completions)
	ScorerURL    string `yaml:"scorer_url"`
	ScorerAPIKey string `yaml:"scorer_api_key"`
	ScorerModel  string `yaml:"scorer_model"`

	// Pipeline tunables
	MaxPins        int     `yaml:"max_pins"`
	ScoreThreshold float64 `yaml:"score_threshold"`
	ScoreAttempts  int     `yaml:"score_attempts"`

	// Recovery sweep
	SessionStaleAfter time.Duration `yaml:"session_stale_after"`
	SweepInterval     time.Duration `yaml:"sweep_interval"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		BrowseURL:    getEnv("BROWSE_SERVICE_URL", ""),
		BrowseAPIKey: getEnv("BROWSE_SERVICE_API_KEY", ""),

		CollectorURL:    getEnv("COLLECTOR_SERVICE_URL", ""),
		CollectorAPIKey: getEnv("COLLECTOR_SERVICE_API_KEY", ""),

		ScorerURL:    getEnv("SCORER_SERVICE_URL", ""),
		ScorerAPIKey: getEnv("SCORER_SERVICE_API_KEY", ""),
		ScorerModel:  getEnv("SCORER_MODEL", "gpt-4o-mini"),
	}

	var err error
	if cfg.MaxPins, err = getEnvInt("MAX_PINS", 25); err != nil {
		return nil, err
	}
	if cfg.ScoreThreshold, err = getEnvFloat("SCORE_THRESHOLD", 0.5); err != nil {
		return nil, err
	}
	// One attempt per pin unless retries are explicitly configured.
	if cfg.ScoreAttempts, err = getEnvInt("SCORE_ATTEMPTS", 1); err != nil {
		return nil, err
	}
	if cfg.SessionStaleAfter, err = getEnvDuration("SESSION_STALE_AFTER", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getEnvDuration("SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	if path := os.Getenv("PINSCOUT_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyFile overlays the YAML file onto cfg. Keys absent from the file
// keep their env-derived values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.BrowseURL == "" {
		return fmt.Errorf("BROWSE_SERVICE_URL is required")
	}
	if c.CollectorURL == "" {
		return fmt.Errorf("COLLECTOR_SERVICE_URL is required")
	}
	if c.ScorerURL == "" {
		return fmt.Errorf("SCORER_SERVICE_URL is required")
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("SCORE_THRESHOLD must be between 0 and 1, got %v", c.ScoreThreshold)
	}
	if c.ScoreAttempts < 1 {
		return fmt.Errorf("SCORE_ATTEMPTS must be at least 1, got %d", c.ScoreAttempts)
	}
	if c.MaxPins < 1 {
		return fmt.Errorf("MAX_PINS must be at least 1, got %d", c.MaxPins)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return value, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	return value, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 10m or 90s, got %q", key, raw)
	}
	return value, nil
}
