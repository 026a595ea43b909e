// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package config loads JazzMate configuration with Koanf v2.
//
// Sources are layered, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML file: CONFIG_PATH, or the first of DefaultConfigPaths that exists
//  3. Environment variables, mapped explicitly in envTransformFunc
//
// Provider credentials (HF_TOKEN, QDRANT_API_KEY, OPENAI_API_KEY) are only ever
// read from the environment or the config file; they have no defaults.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Logging   LoggingConfig   `koanf:"logging"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Vector    VectorConfig    `koanf:"vector"`
	Ledger    LedgerConfig    `koanf:"ledger"`
	Source    SourceConfig    `koanf:"source"`
	Reason    ReasonConfig    `koanf:"reason"`
	WriteBack WriteBackConfig `koanf:"writeback"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Server    ServerConfig    `koanf:"server"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EmbeddingConfig configures the Hugging Face feature-extraction client.
type EmbeddingConfig struct {
	// ProviderURL is the inference endpoint base. The model path is appended.
	ProviderURL string `koanf:"provider_url"`
	Model       string `koanf:"model"`
	APIKey      string `koanf:"api_key"`

	// Dimension is the expected vector length for Model.
	Dimension int `koanf:"dimension"`

	Timeout      time.Duration `koanf:"timeout"`
	BatchTimeout time.Duration `koanf:"batch_timeout"`

	// RateLimit is the sustained request rate in requests per second; 0 disables throttling.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// VectorConfig selects and configures the vector index backend.
type VectorConfig struct {
	// Backend is one of qdrant, pgvector, memory.
	Backend    string `koanf:"backend"`
	URL        string `koanf:"url"`
	APIKey     string `koanf:"api_key"`
	Collection string `koanf:"collection"`
	Dimension  int    `koanf:"dimension"`

	// DSN is the Postgres connection string for the pgvector backend.
	DSN string `koanf:"dsn"`

	// ScrollPageSize bounds each page of the existing-ID scan.
	ScrollPageSize int `koanf:"scroll_page_size"`
}

// LedgerConfig configures the BadgerDB failure ledger.
type LedgerConfig struct {
	Path          string        `koanf:"path"`
	SyncWrites    bool          `koanf:"sync_writes"`
	MaxRetries    int           `koanf:"max_retries"`
	RetryEnabled  bool          `koanf:"retry_enabled"`
	RetryInterval time.Duration `koanf:"retry_interval"`
}

// SourceConfig configures the relational album/review store.
type SourceConfig struct {
	DSN      string `koanf:"dsn"`
	MaxConns int32  `koanf:"max_conns"`
}

// ReasonConfig configures the LLM used for recommendation reasons.
type ReasonConfig struct {
	Provider    string        `koanf:"provider"`
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int64         `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
}

// WriteBackConfig configures persistence of recommendations to the shop backend.
type WriteBackConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// IngestConfig holds ingestion run defaults. CLI flags override them.
type IngestConfig struct {
	BatchSize int `koanf:"batch_size"`
	Limit     int `koanf:"limit"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	Timeout            time.Duration `koanf:"timeout"`
	AllowedOrigins     []string      `koanf:"allowed_origins"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute"`
	DefaultLimit       int           `koanf:"default_limit"`
}

func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Embedding: EmbeddingConfig{
			ProviderURL:  "https://router.huggingface.co/hf-inference/models",
			Model:        "intfloat/multilingual-e5-large",
			Dimension:    1024,
			Timeout:      30 * time.Second,
			BatchTimeout: 2 * time.Minute,
			RateLimit:    5,
			RateBurst:    5,
		},
		Vector: VectorConfig{
			Backend:        "qdrant",
			URL:            "http://localhost:6334",
			Collection:     "allthatjazz_album",
			Dimension:      1024,
			ScrollPageSize: 1000,
		},
		Ledger: LedgerConfig{
			Path:          "data/failed_embeddings",
			SyncWrites:    true,
			MaxRetries:    3,
			RetryEnabled:  true,
			RetryInterval: 10 * time.Minute,
		},
		Source: SourceConfig{
			MaxConns: 4,
		},
		Reason: ReasonConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
			MaxTokens:   300,
			Timeout:     30 * time.Second,
		},
		WriteBack: WriteBackConfig{
			Enabled: false,
			BaseURL: "http://jazzmateshop-java-backend-1:8080",
			Timeout: 10 * time.Second,
		},
		Ingest: IngestConfig{
			BatchSize: 20,
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8000,
			Timeout:            60 * time.Second,
			AllowedOrigins:     []string{"http://localhost:3001", "http://localhost:3000"},
			RateLimitPerMinute: 60,
			DefaultLimit:       3,
		},
	}
}
