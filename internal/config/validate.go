// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ConfigError is returned by Validate for an invalid field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for contract violations. Missing
// provider credentials are not errors: components degrade without them.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateVector(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	if err := c.validateWriteBack(); err != nil {
		return err
	}
	if c.Ingest.BatchSize < 1 {
		return &ConfigError{Field: "ingest.batch_size", Message: "must be at least 1"}
	}
	if c.Ingest.Limit < 0 {
		return &ConfigError{Field: "ingest.limit", Message: "must not be negative"}
	}
	return c.validateServer()
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return &ConfigError{Field: "logging.format", Message: "must be json or console"}
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.Model == "" {
		return &ConfigError{Field: "embedding.model", Message: "is required"}
	}
	if err := validateURL("embedding.provider_url", c.Embedding.ProviderURL); err != nil {
		return err
	}
	if c.Embedding.Dimension < 1 {
		return &ConfigError{Field: "embedding.dimension", Message: "must be at least 1"}
	}
	if c.Embedding.Timeout < time.Second {
		return &ConfigError{Field: "embedding.timeout", Message: "must be at least 1 second"}
	}
	if c.Embedding.RateLimit < 0 {
		return &ConfigError{Field: "embedding.rate_limit", Message: "must not be negative"}
	}
	return nil
}

func (c *Config) validateVector() error {
	switch c.Vector.Backend {
	case "qdrant":
		if err := validateURL("vector.url", c.Vector.URL); err != nil {
			return err
		}
	case "pgvector":
		if c.Vector.DSN == "" {
			return &ConfigError{Field: "vector.dsn", Message: "is required for the pgvector backend"}
		}
	case "memory":
	default:
		return &ConfigError{Field: "vector.backend", Message: "must be qdrant, pgvector or memory"}
	}
	if c.Vector.Collection == "" {
		return &ConfigError{Field: "vector.collection", Message: "is required"}
	}
	if c.Vector.Dimension != c.Embedding.Dimension {
		return &ConfigError{
			Field:   "vector.dimension",
			Message: fmt.Sprintf("must equal embedding.dimension (%d != %d)", c.Vector.Dimension, c.Embedding.Dimension),
		}
	}
	if c.Vector.ScrollPageSize < 1 {
		return &ConfigError{Field: "vector.scroll_page_size", Message: "must be at least 1"}
	}
	return nil
}

func (c *Config) validateLedger() error {
	if c.Ledger.Path == "" {
		return &ConfigError{Field: "ledger.path", Message: "is required"}
	}
	if c.Ledger.MaxRetries < 1 {
		return &ConfigError{Field: "ledger.max_retries", Message: "must be at least 1"}
	}
	if c.Ledger.RetryEnabled && c.Ledger.RetryInterval < time.Second {
		return &ConfigError{Field: "ledger.retry_interval", Message: "must be at least 1 second"}
	}
	return nil
}

func (c *Config) validateWriteBack() error {
	if !c.WriteBack.Enabled {
		return nil
	}
	return validateURL("writeback.base_url", c.WriteBack.BaseURL)
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 1 and 65535"}
	}
	if c.Server.DefaultLimit < 1 || c.Server.DefaultLimit > 50 {
		return &ConfigError{Field: "server.default_limit", Message: "must be between 1 and 50"}
	}
	if c.Server.RateLimitPerMinute < 0 {
		return &ConfigError{Field: "server.rate_limit_per_minute", Message: "must not be negative"}
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Field: field, Message: fmt.Sprintf("invalid URL %q", raw)}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
