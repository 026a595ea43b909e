// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package recommend

import (
	"fmt"
	"time"
)

// Config contains the engine configuration.
type Config struct {
	Limits    LimitsConfig    `json:"limits"`
	Cache     CacheConfig     `json:"cache"`
	Diversity DiversityConfig `json:"diversity"`

	// WriteBackTimeout bounds one background write-back.
	WriteBackTimeout time.Duration `json:"writeback_timeout"`
}

// LimitsConfig bounds the number of recommendations per request.
type LimitsConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
}

// CacheConfig controls the response cache. Only non-degraded responses are cached.
type CacheConfig struct {
	Enabled    bool          `json:"enabled"`
	TTL        time.Duration `json:"ttl"`
	MaxEntries int           `json:"max_entries"`
}

// DiversityConfig controls MMR reranking.
type DiversityConfig struct {
	Enabled bool `json:"enabled"`
	// Lambda balances relevance (1.0) against diversity (0.0).
	Lambda float64 `json:"lambda"`
	// Overfetch multiplies the retrieval limit so the reranker has candidates to choose from.
	Overfetch int `json:"overfetch"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultLimit: 3,
			MaxLimit:     50,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 1000,
		},
		Diversity: DiversityConfig{
			Enabled:   false,
			Lambda:    0.7,
			Overfetch: 3,
		},
		WriteBackTimeout: time.Minute,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit (%d) must be >= default_limit (%d)", c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}
	if c.Diversity.Lambda < 0 || c.Diversity.Lambda > 1 {
		return fmt.Errorf("diversity.lambda must be in [0, 1], got %f", c.Diversity.Lambda)
	}
	if c.Diversity.Enabled && c.Diversity.Overfetch < 1 {
		return fmt.Errorf("diversity.overfetch must be positive, got %d", c.Diversity.Overfetch)
	}
	if c.WriteBackTimeout <= 0 {
		return fmt.Errorf("writeback_timeout must be positive, got %v", c.WriteBackTimeout)
	}
	return nil
}
