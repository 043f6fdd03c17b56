// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wayfinder/config.yaml",
	"/etc/wayfinder/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultSalt is the salt used when none is configured.
const DefaultSalt = "PORT_TOWNSEND_PROFESSIONAL_LIBRARY_SALT"

// sliceConfigPaths are the keys that accept comma-separated environment values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"reranker.hidden_layers",
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8750,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/wayfinder.duckdb",
			MaxMemory:    "512MB",
			Threads:      0,
			QueryTimeout: 30 * time.Second,
		},
		Graph: GraphConfig{
			Path:  "/data/cross_reference_metadata.json",
			Watch: false,
		},
		Privacy: PrivacyConfig{
			Salt:           DefaultSalt,
			HashAlgorithm:  "sha256",
			RequireConsent: false,
			ConsentVersion: "1.0",
		},
		Recommend: RecommendConfig{
			Weights: ScoringWeights{
				DirectConnection:  0.4,
				ContextSimilarity: 0.3,
				PathwayAlignment:  0.2,
				EconomicRelevance: 0.1,
			},
			EconomicRelevance: map[string]float64{
				"04_Quick_Start_Guides":   0.9,
				"09_Workflow_Automation":  0.8,
				"19_Digital_Marketing":    0.9,
				"36_Personal_Development": 0.7,
			},
			DefaultEconomicRelevance: 0.5,
			DefaultLimit:             5,
			MaxLimit:                 50,
			RuleWeight:               0.5,
			CacheSize:                1000,
			CacheTTL:                 5 * time.Minute,
			ModelDir:                 "/data/models",
			RetainVersions:           5,
			Seed:                     42,
		},
		Reranker: RerankerConfig{
			HiddenLayers:      []int{10, 5},
			LearningRate:      0.001,
			LearningRateDecay: 0.95,
			DecaySteps:        100,
			BatchSize:         32,
			MaxIterations:     1000,
			Patience:          10,
			TestFraction:      0.2,
			SyntheticSamples:  1000,
		},
		Training: TrainingConfig{
			Schedule:                 "@weekly",
			TrainOnStartup:           true,
			Timeout:                  10 * time.Minute,
			RetrainAfterInteractions: 500,
			MinRetrainInterval:       time.Hour,
			PerformanceThreshold:     0.85,
		},
		Evaluation: EvaluationConfig{
			TestSize: 0.2,
			Seed:     42,
			TopK:     1,
		},
		Reports: ReportsConfig{
			Path:      "/data/reports",
			Retention: 90 * 24 * time.Hour,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 from defaults, an optional
// config file and environment variables, then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DUCKDB_PATH -> database.path, RULE_WEIGHT -> recommend.rule_weight
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
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

// findConfigFile returns the first config file found, or "" when none exists.
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

// processSliceFields splits comma-separated environment values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"server_timeout":   "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	// Interaction store
	"db_driver":         "database.driver",
	"duckdb_path":       "database.path",
	"db_path":           "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"db_query_timeout":  "database.query_timeout",

	// Resource graph
	"graph_path":  "graph.path",
	"graph_watch": "graph.watch",

	// Privacy
	"user_hash_salt":      "privacy.salt",
	"user_hash_algorithm": "privacy.hash_algorithm",
	"require_consent":     "privacy.require_consent",
	"consent_version":     "privacy.consent_version",

	// Recommendation engine
	"weight_direct_connection":   "recommend.weights.direct_connection",
	"weight_context_similarity":  "recommend.weights.context_similarity",
	"weight_pathway_alignment":   "recommend.weights.pathway_alignment",
	"weight_economic_relevance":  "recommend.weights.economic_relevance",
	"default_economic_relevance": "recommend.default_economic_relevance",
	"recommend_default_limit":    "recommend.default_limit",
	"recommend_max_limit":        "recommend.max_limit",
	"rule_weight":                "recommend.rule_weight",
	"recommend_cache_size":       "recommend.cache_size",
	"recommend_cache_ttl":        "recommend.cache_ttl",
	"model_dir":                  "recommend.model_dir",
	"model_retain_versions":      "recommend.retain_versions",
	"recommend_seed":             "recommend.seed",

	// Re-ranker
	"reranker_hidden_layers":       "reranker.hidden_layers",
	"reranker_learning_rate":       "reranker.learning_rate",
	"reranker_learning_rate_decay": "reranker.learning_rate_decay",
	"reranker_decay_steps":         "reranker.decay_steps",
	"reranker_batch_size":          "reranker.batch_size",
	"reranker_max_iterations":      "reranker.max_iterations",
	"reranker_patience":            "reranker.patience",
	"reranker_test_fraction":       "reranker.test_fraction",
	"reranker_synthetic_samples":   "reranker.synthetic_samples",

	// Training
	"retrain_schedule":            "training.schedule",
	"train_on_startup":            "training.train_on_startup",
	"train_timeout":               "training.timeout",
	"retrain_after_interactions":  "training.retrain_after_interactions",
	"min_retrain_interval":        "training.min_retrain_interval",
	"model_performance_threshold": "training.performance_threshold",

	// Evaluation
	"validation_test_size": "evaluation.test_size",
	"validation_seed":      "evaluation.seed",
	"validation_top_k":     "evaluation.top_k",

	// Reports
	"reports_path":      "reports.path",
	"reports_retention": "reports.retention",

	// Security
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",
	"cors_origins":       "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Returns an empty string for unmapped keys so unrelated environment variables
// never pollute the configuration.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
