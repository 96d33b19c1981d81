// Package config loads and persists engine configuration from
// .mplads/config.json, with full in-code defaults.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete engine configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	DataRoot string `json:"dataRoot" mapstructure:"dataRoot"`

	Query   QueryConfig   `json:"query" mapstructure:"query"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Jobs    JobsConfig    `json:"jobs" mapstructure:"jobs"`
	Loader  LoaderConfig  `json:"loader" mapstructure:"loader"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// QueryConfig contains query-level settings
type QueryConfig struct {
	// DefaultTerm is used when a request's term selection is absent or
	// unrecognized. One of "17", "18", "both".
	DefaultTerm string `json:"defaultTerm" mapstructure:"defaultTerm"`
	// MaxRowsPerAggregation bounds how many raw rows feed a single
	// aggregation; a safety valve against pathological inputs.
	MaxRowsPerAggregation int `json:"maxRowsPerAggregation" mapstructure:"maxRowsPerAggregation"`
}

// CacheConfig contains aggregation cache settings
type CacheConfig struct {
	MaxEntries int `json:"maxEntries" mapstructure:"maxEntries"`

	// TTL tiers by data volatility, in seconds.
	LongTtlSeconds   int `json:"longTtlSeconds" mapstructure:"longTtlSeconds"`     // rarely-changing rollups
	MediumTtlSeconds int `json:"mediumTtlSeconds" mapstructure:"mediumTtlSeconds"` // per-MP/state summaries
	ShortTtlSeconds  int `json:"shortTtlSeconds" mapstructure:"shortTtlSeconds"`   // expenditure-adjacent views

	// MemoryCeilingBytes and MemoryFraction define the memory-pressure
	// policy: before any write, if process heap usage exceeds
	// MemoryFraction * MemoryCeilingBytes, ~30% of entries are evicted
	// oldest-first.
	MemoryCeilingBytes uint64  `json:"memoryCeilingBytes" mapstructure:"memoryCeilingBytes"`
	MemoryFraction     float64 `json:"memoryFraction" mapstructure:"memoryFraction"`
}

// JobsConfig contains background job runner settings
type JobsConfig struct {
	QueueSize               int `json:"queueSize" mapstructure:"queueSize"`
	WorkerCount             int `json:"workerCount" mapstructure:"workerCount"`
	RecoveryIntervalSeconds int `json:"recoveryIntervalSeconds" mapstructure:"recoveryIntervalSeconds"`
}

// LoaderConfig contains snapshot loader settings
type LoaderConfig struct {
	// SourcesPath is the TOML registry of validated snapshot files,
	// relative to DataRoot unless absolute.
	SourcesPath string `json:"sourcesPath" mapstructure:"sourcesPath"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		DataRoot: ".",
		Query: QueryConfig{
			DefaultTerm:           "18",
			MaxRowsPerAggregation: 200000,
		},
		Cache: CacheConfig{
			MaxEntries:         2000,
			LongTtlSeconds:     86400, // 24h
			MediumTtlSeconds:   43200, // 12h
			ShortTtlSeconds:    21600, // 6h
			MemoryCeilingBytes: 512 << 20,
			MemoryFraction:     0.8,
		},
		Jobs: JobsConfig{
			QueueSize:               50,
			WorkerCount:             1, // summary rebuild is single-writer
			RecoveryIntervalSeconds: 30,
		},
		Loader: LoaderConfig{
			SourcesPath: "sources.toml",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from <root>/.mplads/config.json.
// A missing file yields the defaults.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ".mplads"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to <root>/.mplads/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, ".mplads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Query.DefaultTerm {
	case "17", "18", "both":
	default:
		return &ConfigError{Field: "query.defaultTerm", Message: "must be 17, 18, or both"}
	}
	if c.Cache.MemoryFraction <= 0 || c.Cache.MemoryFraction > 1 {
		return &ConfigError{Field: "cache.memoryFraction", Message: "must be in (0, 1]"}
	}
	if c.Cache.MaxEntries <= 0 {
		return &ConfigError{Field: "cache.maxEntries", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
