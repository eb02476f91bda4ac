package model

import "time"

// Config holds all runtime settings for curato
type Config struct {
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// ExtractionConfig controls how evidence is found
type ExtractionConfig struct {
	CaseInsensitive bool   `yaml:"case_insensitive" mapstructure:"case_insensitive"`   // ASCII case folding for dictionary lemmas
	ExtraPattern    string `yaml:"extra_pattern,omitempty" mapstructure:"extra_pattern"` // Auxiliary regex with named groups
}

// ConcurrencyConfig controls sentence fan-out
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // Sentence workers (1 = sequential)
	Sources int `yaml:"sources" mapstructure:"sources"` // Corpora processed at once in batch mode
}

// CacheConfig controls evidence memoization for repeated sentences
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// FetchConfig controls how remote HTML corpora are retrieved
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // json or markdown
	Dedupe  bool   `yaml:"dedupe" mapstructure:"dedupe"` // Collapse candidates with identical statement and evidence
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Concurrency: ConcurrencyConfig{
			Workers: 1,
			Sources: 4,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Fetch: FetchConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "Curato/0.1 (+https://github.com/ppiankov/curato)",
			MaxBodyBytes:      5_000_000,
			RequestsPerSecond: 1,
			Burst:             2,
			RespectRobots:     true,
		},
		Output: OutputConfig{
			Format: "json",
		},
	}
}
