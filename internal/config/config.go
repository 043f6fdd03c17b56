// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package config loads the Wayfinder configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Config is immutable after LoadWithKoanf and safe for concurrent reads.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Graph      GraphConfig      `koanf:"graph"`
	Privacy    PrivacyConfig    `koanf:"privacy"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Reranker   RerankerConfig   `koanf:"reranker"`
	Training   TrainingConfig   `koanf:"training"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
	Reports    ReportsConfig    `koanf:"reports"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds interaction store settings.
type DatabaseConfig struct {
	// Driver selects the SQL engine: "duckdb" or "sqlite".
	// Default: duckdb
	Driver string `koanf:"driver"`

	// Path is the database file. ":memory:" opens a throwaway store.
	// Default: /data/wayfinder.duckdb
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory use. Ignored by sqlite.
	MaxMemory string `koanf:"max_memory"`

	// Threads is the number of DuckDB threads (0 = use NumCPU). Ignored by sqlite.
	Threads int `koanf:"threads"`

	// QueryTimeout bounds individual store queries.
	// Default: 30s
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// GraphConfig locates the resource graph.
type GraphConfig struct {
	// Path is the resource graph JSON document.
	// Default: /data/cross_reference_metadata.json
	Path string `koanf:"path"`

	// Watch reloads the graph when the file changes.
	// Default: false
	Watch bool `koanf:"watch"`
}

// PrivacyConfig controls user identifier hashing and consent.
type PrivacyConfig struct {
	// Salt is appended to user identifiers before hashing.
	Salt string `koanf:"salt"`

	// HashAlgorithm is "sha256" or "blake2b".
	// Default: sha256
	HashAlgorithm string `koanf:"hash_algorithm"`

	// RequireConsent rejects interactions from users without a consent record.
	// Default: false
	RequireConsent bool `koanf:"require_consent"`

	// ConsentVersion is the version recorded when none is supplied.
	// Default: 1.0
	ConsentVersion string `koanf:"consent_version"`
}

// ScoringWeights are the rule-based scorer weights. They must sum to 1.
type ScoringWeights struct {
	DirectConnection  float64 `koanf:"direct_connection"`
	ContextSimilarity float64 `koanf:"context_similarity"`
	PathwayAlignment  float64 `koanf:"pathway_alignment"`
	EconomicRelevance float64 `koanf:"economic_relevance"`
}

// RecommendConfig holds hybrid engine settings.
type RecommendConfig struct {
	Weights ScoringWeights `koanf:"weights"`

	// EconomicRelevance maps directory ids to a local economic relevance
	// score. Directories not listed score DefaultEconomicRelevance.
	EconomicRelevance        map[string]float64 `koanf:"economic_relevance"`
	DefaultEconomicRelevance float64            `koanf:"default_economic_relevance"`

	// DefaultLimit is used when a request does not name a limit.
	// Default: 5
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the limit a request may ask for.
	// Default: 50
	MaxLimit int `koanf:"max_limit"`

	// RuleWeight is the rule-based share of the hybrid score.
	// Default: 0.5
	RuleWeight float64 `koanf:"rule_weight"`

	// CacheSize is the number of cached recommendation results (0 disables).
	// Default: 1000
	CacheSize int `koanf:"cache_size"`

	// CacheTTL is how long a cached result stays valid.
	// Default: 5m
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// ModelDir is the directory for persisted re-ranker checkpoints.
	// Default: /data/models
	ModelDir string `koanf:"model_dir"`

	// RetainVersions is how many checkpoints to keep.
	// Default: 5
	RetainVersions int `koanf:"retain_versions"`

	// Seed drives synthetic data and the train/test split.
	// Default: 42
	Seed int64 `koanf:"seed"`
}

// RerankerConfig holds learned re-ranker hyperparameters.
type RerankerConfig struct {
	HiddenLayers      []int   `koanf:"hidden_layers"`
	LearningRate      float64 `koanf:"learning_rate"`
	LearningRateDecay float64 `koanf:"learning_rate_decay"`
	DecaySteps        int     `koanf:"decay_steps"`
	BatchSize         int     `koanf:"batch_size"`
	MaxIterations     int     `koanf:"max_iterations"`
	Patience          int     `koanf:"patience"`
	TestFraction      float64 `koanf:"test_fraction"`
	SyntheticSamples  int     `koanf:"synthetic_samples"`
}

// TrainingConfig controls when the re-ranker is retrained.
type TrainingConfig struct {
	// Schedule is a cron expression for periodic retraining.
	// Default: @weekly
	Schedule string `koanf:"schedule"`

	// TrainOnStartup trains once when the service starts.
	// Default: true
	TrainOnStartup bool `koanf:"train_on_startup"`

	// Timeout bounds a single training run.
	// Default: 10m
	Timeout time.Duration `koanf:"timeout"`

	// RetrainAfterInteractions triggers retraining after this many new
	// interactions (0 disables).
	// Default: 500
	RetrainAfterInteractions int `koanf:"retrain_after_interactions"`

	// MinRetrainInterval throttles interaction-triggered retraining.
	// Default: 1h
	MinRetrainInterval time.Duration `koanf:"min_retrain_interval"`

	// PerformanceThreshold is the R² below which a trained model is flagged.
	// Default: 0.85
	PerformanceThreshold float64 `koanf:"performance_threshold"`
}

// EvaluationConfig holds held-out validation settings.
type EvaluationConfig struct {
	TestSize float64 `koanf:"test_size"`
	Seed     int64   `koanf:"seed"`
	TopK     int     `koanf:"top_k"`
}

// ReportsConfig locates the report archive.
type ReportsConfig struct {
	// Path is the BadgerDB directory. Empty keeps reports in memory.
	Path string `koanf:"path"`

	// Retention is how long archived reports are kept (0 = forever).
	// Default: 2160h (90 days)
	Retention time.Duration `koanf:"retention"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}
