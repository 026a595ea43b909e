// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/jazzmate/config.yaml",
	"/etc/jazzmate/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// sliceConfigPaths are keys that accept a comma-separated string from the environment.
var sliceConfigPaths = []string{
	"server.allowed_origins",
}

// envMappings maps lower-cased environment variable names to koanf keys.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"hf_token":                 "embedding.api_key",
	"huggingface_api_key":      "embedding.api_key",
	"embedding_provider_url":   "embedding.provider_url",
	"embedding_model":          "embedding.model",
	"embedding_dimension":      "embedding.dimension",
	"embedding_timeout":        "embedding.timeout",
	"embedding_batch_timeout":  "embedding.batch_timeout",
	"embedding_rate_limit":     "embedding.rate_limit",
	"embedding_rate_burst":     "embedding.rate_burst",
	"vector_backend":           "vector.backend",
	"qdrant_url":               "vector.url",
	"qdrant_api_key":           "vector.api_key",
	"qdrant_collection":        "vector.collection",
	"vector_dimension":         "vector.dimension",
	"pgvector_dsn":             "vector.dsn",
	"vector_scroll_page_size":  "vector.scroll_page_size",
	"ledger_path":              "ledger.path",
	"ledger_sync_writes":       "ledger.sync_writes",
	"ledger_max_retries":       "ledger.max_retries",
	"ledger_retry_enabled":     "ledger.retry_enabled",
	"ledger_retry_interval":    "ledger.retry_interval",
	"supabase_db_url":          "source.dsn",
	"database_url":             "source.dsn",
	"source_max_conns":         "source.max_conns",
	"openai_api_key":           "reason.api_key",
	"reason_provider":          "reason.provider",
	"reason_base_url":          "reason.base_url",
	"reason_model":             "reason.model",
	"reason_timeout":           "reason.timeout",
	"writeback_enabled":        "writeback.enabled",
	"backend_url":              "writeback.base_url",
	"writeback_timeout":        "writeback.timeout",
	"ingest_batch_size":        "ingest.batch_size",
	"ingest_limit":             "ingest.limit",
	"http_host":                "server.host",
	"http_port":                "server.port",
	"http_timeout":             "server.timeout",
	"allowed_origins":          "server.allowed_origins",
	"http_rate_limit":          "server.rate_limit_per_minute",
	"recommend_default_limit":  "server.default_limit",
}

// Load reads configuration from defaults, the optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
