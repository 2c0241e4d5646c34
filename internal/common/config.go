package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the toolkit MCP server.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Cache     CacheConfig     `toml:"cache"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Name string `toml:"name"`
	Port string `toml:"port"` // used by the streamable HTTP transport only
}

// LimitConfig holds one sliding-window rate-limit budget.
type LimitConfig struct {
	MaxRequests int    `toml:"max_requests"`
	Window      string `toml:"window"`
}

// GetWindow parses and returns the window duration
func (c *LimitConfig) GetWindow() time.Duration {
	d, err := time.ParseDuration(c.Window)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// RateLimitConfig holds per-category budgets plus the default budget applied to
// tools with no declared category.
type RateLimitConfig struct {
	SweepInterval string                 `toml:"sweep_interval"`
	Default       LimitConfig            `toml:"default"`
	Categories    map[string]LimitConfig `toml:"categories"`
}

// GetSweepInterval parses and returns the limiter sweep interval
func (c *RateLimitConfig) GetSweepInterval() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// CacheConfig holds TTL cache settings for the geolocation lookup.
type CacheConfig struct {
	GeoTTL        string `toml:"geo_ttl"`
	PruneInterval string `toml:"prune_interval"`
}

// GetGeoTTL parses and returns the geolocation cache TTL
func (c *CacheConfig) GetGeoTTL() time.Duration {
	d, err := time.ParseDuration(c.GeoTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// GetPruneInterval parses and returns the cache prune interval
func (c *CacheConfig) GetPruneInterval() time.Duration {
	d, err := time.ParseDuration(c.PruneInterval)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults. The geo budget
// matches the ip-api.com free tier (45 requests per rolling minute).
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "Toolkit-MCP",
			Port: "4280",
		},
		RateLimit: RateLimitConfig{
			SweepInterval: "5m",
			Default: LimitConfig{
				MaxRequests: 120,
				Window:      "60s",
			},
			Categories: map[string]LimitConfig{
				"network": {MaxRequests: 30, Window: "60s"},
				"geo":     {MaxRequests: 45, Window: "60s"},
			},
		},
		Cache: CacheConfig{
			GeoTTL:        "5m",
			PruneInterval: "10m",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console", "file"},
			FilePath:   "logs/toolkit-mcp.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if name := os.Getenv("TOOLKIT_SERVER_NAME"); name != "" {
		config.Server.Name = name
	}

	if port := os.Getenv("TOOLKIT_MCP_PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			config.Server.Port = port
		}
	}

	if level := os.Getenv("TOOLKIT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if ttl := os.Getenv("TOOLKIT_GEO_TTL"); ttl != "" {
		if _, err := time.ParseDuration(ttl); err == nil {
			config.Cache.GeoTTL = ttl
		}
	}
}
