package config

import (
	"github.com/spf13/viper"
)

const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Transport defaults: one request per second with three attempts keeps
	// the public archives happy even with several workers in flight.
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.requests_per_second", 1.0)

	// Batch defaults
	v.SetDefault("batch.workers", 5)
	v.SetDefault("batch.fallback_order", "embedded-first")

	// Public endpoints; override for mirrors
	v.SetDefault("endpoints.registry", "https://proteomecentral.proteomexchange.org/cgi/GetDataset")
	v.SetDefault("endpoints.pride", "https://www.ebi.ac.uk/pride/ws/archive/v2")
	v.SetDefault("endpoints.massive", "https://massive.ucsd.edu")
	v.SetDefault("endpoints.jpost", "https://repository.jpostdb.org")
	v.SetDefault("endpoints.iprox", "https://www.iprox.cn")

	// Output and journal defaults
	v.SetDefault("output.dir", "data")
	v.SetDefault("journal.path", "pxharvest.db")

	// Discovery defaults
	v.SetDefault("discovery.headless", true)
	v.SetDefault("discovery.page_limit", 5)
	v.SetDefault("discovery.timeout_seconds", 60)
}
