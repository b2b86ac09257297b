// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables, optionally seeded from a .env file
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	rc, err := cfg.Reconcile.ToReconciler()
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/orderrecon/internal/domain/matcher"
	"github.com/eshaffer321/orderrecon/internal/domain/reconciler"
)

// Config represents the entire application configuration
type Config struct {
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ReconcileConfig holds engine settings. Tolerances are decimal strings so
// that values like "0.5" survive YAML without float rounding.
type ReconcileConfig struct {
	AbsoluteTolerance  string `yaml:"absolute_tolerance"`
	PercentTolerance   string `yaml:"percent_tolerance"`
	MaxGroupSize       int    `yaml:"max_group_size"`
	MaxGroupCandidates int    `yaml:"max_group_candidates"`
	Workers            int    `yaml:"workers"`
	Timeout            string `yaml:"timeout"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	OutcomeTTL     string   `yaml:"outcome_ttl"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" (default) or "json"
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Reconcile: ReconcileConfig{
			AbsoluteTolerance:  "10",
			PercentTolerance:   "5",
			MaxGroupSize:       5,
			MaxGroupCandidates: 0,
			Workers:            runtime.NumCPU(),
			Timeout:            "60s",
		},
		Storage: StorageConfig{
			DatabasePath: "orderrecon.db",
		},
		Server: ServerConfig{
			Port:           3000,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3001"},
			OutcomeTTL:     "30m",
			MaxUploadMB:    32,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// Load reads and parses the config file. Fields the file leaves out keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECON_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	d := Default()
	return &Config{
		Reconcile: ReconcileConfig{
			AbsoluteTolerance:  getEnv("RECON_ABS_TOLERANCE", d.Reconcile.AbsoluteTolerance),
			PercentTolerance:   getEnv("RECON_PCT_TOLERANCE", d.Reconcile.PercentTolerance),
			MaxGroupSize:       getEnvInt("RECON_MAX_GROUP_SIZE", d.Reconcile.MaxGroupSize),
			MaxGroupCandidates: getEnvInt("RECON_MAX_GROUP_CANDIDATES", d.Reconcile.MaxGroupCandidates),
			Workers:            getEnvInt("RECON_WORKERS", d.Reconcile.Workers),
			Timeout:            getEnv("RECON_TIMEOUT", d.Reconcile.Timeout),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECON_DB_PATH", d.Storage.DatabasePath),
		},
		Server: ServerConfig{
			Port:           getEnvInt("PORT", d.Server.Port),
			AllowedOrigins: getEnvList("RECON_ALLOWED_ORIGINS", d.Server.AllowedOrigins),
			OutcomeTTL:     getEnv("RECON_OUTCOME_TTL", d.Server.OutcomeTTL),
			MaxUploadMB:    getEnvInt("RECON_MAX_UPLOAD_MB", d.Server.MaxUploadMB),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", d.Observability.Logging.Level),
				Format: getEnv("LOG_FORMAT", d.Observability.Logging.Format),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath loads .env if present, then tries path, then falls back
// to environment variables.
func LoadOrEnvWithPath(path string) *Config {
	_ = godotenv.Load()
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// ToReconciler converts the settings into engine configuration.
func (c ReconcileConfig) ToReconciler() (reconciler.Config, error) {
	cfg := reconciler.DefaultConfig()

	abs, err := parseDecimal("absolute_tolerance", c.AbsoluteTolerance)
	if err != nil {
		return cfg, err
	}
	pct, err := parseDecimal("percent_tolerance", c.PercentTolerance)
	if err != nil {
		return cfg, err
	}
	cfg.Matcher.Tolerance = matcher.Tolerance{Absolute: abs, Percent: pct}

	if c.MaxGroupSize > 0 {
		cfg.Matcher.MaxGroupSize = c.MaxGroupSize
	}
	if c.MaxGroupCandidates > 0 {
		cfg.Matcher.MaxGroupCandidates = c.MaxGroupCandidates
	}
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}

	timeout, err := ParseDuration("timeout", c.Timeout)
	if err != nil {
		return cfg, err
	}
	cfg.Timeout = timeout
	return cfg, nil
}

// ParseDuration parses an optional duration setting; empty means zero.
func ParseDuration(field, s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
}

// parseDecimal parses an optional tolerance; empty means unset.
func parseDecimal(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
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
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
