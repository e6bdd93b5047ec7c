package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/parley-dev/parley/internal/storage"
)

// Config holds everything the server and MCP adapter binaries need. Values
// come from an optional YAML file overridden by environment variables.
type Config struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`

	// Storage
	StorageContext storage.Scope   `yaml:"storage_context"` // workspace | global
	StorageBackend storage.Backend `yaml:"storage_backend"` // sqlite | pebble
	WorkspaceDir   string          `yaml:"workspace_dir"`
	DataDir        string          `yaml:"data_dir"` // overrides scope resolution when set

	LogLevel string `yaml:"log_level"`

	// Rate limiting on authenticated routes
	RateRPS   float64 `yaml:"rate_rps"`
	RateBurst int     `yaml:"rate_burst"`

	// MCP adapter
	ServerURL string `yaml:"server_url"`
}

// Load builds the config: defaults, then the YAML file named by PARLEY_CONFIG
// (if any), then environment variables. A .env file in the working directory
// is folded into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := &Config{
		Port:           8787,
		StorageContext: storage.ScopeWorkspace,
		StorageBackend: storage.BackendSQLite,
		LogLevel:       "info",
		RateRPS:        50,
		RateBurst:      100,
		ServerURL:      "http://localhost:8787",
	}

	if path := os.Getenv("PARLEY_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = envInt("PORT", cfg.Port)
	cfg.APIKey = envStr("API_KEY", cfg.APIKey)
	cfg.StorageContext = storage.Scope(envStr("STORAGE_CONTEXT", string(cfg.StorageContext)))
	cfg.StorageBackend = storage.Backend(envStr("STORAGE_BACKEND", string(cfg.StorageBackend)))
	cfg.WorkspaceDir = envStr("WORKSPACE_DIR", cfg.WorkspaceDir)
	cfg.DataDir = envStr("DATA_DIR", cfg.DataDir)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.RateRPS = envFloat("RATE_RPS", cfg.RateRPS)
	cfg.RateBurst = envInt("RATE_BURST", cfg.RateBurst)
	cfg.ServerURL = envStr("PARLEY_SERVER_URL", cfg.ServerURL)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if !c.StorageContext.IsValid() {
		return fmt.Errorf("STORAGE_CONTEXT must be %q or %q, got %q",
			storage.ScopeWorkspace, storage.ScopeGlobal, c.StorageContext)
	}
	if !c.StorageBackend.IsValid() {
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q",
			storage.BackendSQLite, storage.BackendPebble, c.StorageBackend)
	}
	if c.RateRPS <= 0 {
		return fmt.Errorf("RATE_RPS must be positive, got %f", c.RateRPS)
	}
	return nil
}

// ResolveDataDir returns the directory the key-value context lives in,
// honoring an explicit DataDir override before scope resolution.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	return storage.Dir(c.StorageContext, c.WorkspaceDir)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
