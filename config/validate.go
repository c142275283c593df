package config

import "github.com/pxharvest/pxharvest/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.Newf("fetch.timeout_seconds must be > 0, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Fetch.MaxRetries < 1 {
		return errors.Newf("fetch.max_retries must be >= 1, got %d", c.Fetch.MaxRetries)
	}

	// Rate limit: 0 = unlimited, negative = invalid
	if c.Fetch.RequestsPerSecond < 0 {
		return errors.Newf("fetch.requests_per_second must be >= 0, got %f", c.Fetch.RequestsPerSecond)
	}

	// Workers: 0 = default pool size, negative = invalid
	if c.Batch.Workers < 0 {
		return errors.Newf("batch.workers must be >= 0, got %d", c.Batch.Workers)
	}

	switch c.Batch.FallbackOrder {
	case "", "embedded-first", "archive-first":
	default:
		return errors.Newf("batch.fallback_order must be \"embedded-first\" or \"archive-first\", got %q", c.Batch.FallbackOrder)
	}

	// Page limit: 0 = default, negative = invalid
	if c.Discovery.PageLimit < 0 {
		return errors.Newf("discovery.page_limit must be >= 0, got %d", c.Discovery.PageLimit)
	}
	if c.Discovery.TimeoutSeconds < 0 {
		return errors.Newf("discovery.timeout_seconds must be >= 0, got %d", c.Discovery.TimeoutSeconds)
	}

	return nil
}
