// Package config loads and persists pxharvest configuration. Values merge
// from defaults, system/user/project TOML files and environment variables,
// in that order of precedence.
package config

import (
	"fmt"
	"time"
)

// Config represents the pxharvest configuration
type Config struct {
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	Output    OutputConfig    `mapstructure:"output"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

// FetchConfig configures the shared HTTP transport
type FetchConfig struct {
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`     // Per-request timeout (default: 30)
	MaxRetries        int     `mapstructure:"max_retries"`         // Attempts per request before giving up (default: 3)
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // Politeness cap shared by all workers (default: 1)
	UserAgent         string  `mapstructure:"user_agent"`          // Override the User-Agent header
}

// Timeout returns the per-request timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// BatchConfig configures batch reconciliation
type BatchConfig struct {
	Workers       int    `mapstructure:"workers"`        // Concurrent accessions in flight (default: 5)
	FallbackOrder string `mapstructure:"fallback_order"` // "embedded-first" or "archive-first"
}

// EndpointsConfig overrides archive endpoints, mainly for mirrors and tests.
// Empty values mean the public endpoints.
type EndpointsConfig struct {
	Registry string `mapstructure:"registry"`
	PRIDE    string `mapstructure:"pride"`
	MassIVE  string `mapstructure:"massive"`
	JPOST    string `mapstructure:"jpost"`
	IProX    string `mapstructure:"iprox"`
}

// OutputConfig configures where exports land
type OutputConfig struct {
	Dir string `mapstructure:"dir"` // Directory for spreadsheets and CSVs (default: "data")
}

// JournalConfig configures the SQLite run journal
type JournalConfig struct {
	Path string `mapstructure:"path"` // Journal database path (default: "pxharvest.db")
}

// DiscoveryConfig configures browser-driven accession discovery
type DiscoveryConfig struct {
	Headless       bool `mapstructure:"headless"`        // Run the browser headless (default: true)
	PageLimit      int  `mapstructure:"page_limit"`      // Max result pages to walk (default: 5)
	TimeoutSeconds int  `mapstructure:"timeout_seconds"` // Whole-session budget (default: 60)
}

// Timeout returns the discovery session budget as a duration.
func (d DiscoveryConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// GetJournalPath returns the configured journal path
func (c *Config) GetJournalPath() string {
	if c.Journal.Path == "" {
		return "pxharvest.db"
	}
	return c.Journal.Path
}

// GetOutputDir returns the configured output directory
func (c *Config) GetOutputDir() string {
	if c.Output.Dir == "" {
		return "data"
	}
	return c.Output.Dir
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Journal: %s, Output: %s, Batch: {Workers: %d, FallbackOrder: %s}}",
		c.GetJournalPath(), c.GetOutputDir(), c.Batch.Workers, c.Batch.FallbackOrder)
}
