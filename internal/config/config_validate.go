// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package config

import (
	"fmt"
	"math"
	"strings"
)

// weightTolerance is the allowed deviation of the scoring weight sum from 1.
const weightTolerance = 1e-9

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validatePrivacy(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateReranker(); err != nil {
		return err
	}
	if err := c.validateTraining(); err != nil {
		return err
	}
	if err := c.validateEvaluation(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "duckdb", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be duckdb or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validatePrivacy() error {
	if c.Privacy.Salt == "" {
		return fmt.Errorf("USER_HASH_SALT must not be empty")
	}
	switch c.Privacy.HashAlgorithm {
	case "sha256":
	case "blake2b":
		// blake2b keys the hash with the salt, which is limited to 64 bytes.
		if len(c.Privacy.Salt) > 64 {
			return fmt.Errorf("USER_HASH_SALT must be at most 64 bytes for blake2b, got %d", len(c.Privacy.Salt))
		}
	default:
		return fmt.Errorf("USER_HASH_ALGORITHM must be sha256 or blake2b, got %q", c.Privacy.HashAlgorithm)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	w := r.Weights
	for name, v := range map[string]float64{
		"direct_connection":  w.DirectConnection,
		"context_similarity": w.ContextSimilarity,
		"pathway_alignment":  w.PathwayAlignment,
		"economic_relevance": w.EconomicRelevance,
	} {
		if v < 0 {
			return fmt.Errorf("recommend.weights.%s must be non-negative, got %f", name, v)
		}
	}
	sum := w.DirectConnection + w.ContextSimilarity + w.PathwayAlignment + w.EconomicRelevance
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("recommend.weights must sum to 1.0, got %f", sum)
	}
	for id, v := range r.EconomicRelevance {
		if v < 0 || v > 1 {
			return fmt.Errorf("recommend.economic_relevance[%s] must be in [0, 1], got %f", id, v)
		}
	}
	if r.DefaultEconomicRelevance < 0 || r.DefaultEconomicRelevance > 1 {
		return fmt.Errorf("recommend.default_economic_relevance must be in [0, 1], got %f", r.DefaultEconomicRelevance)
	}
	if r.DefaultLimit < 1 {
		return fmt.Errorf("recommend.default_limit must be at least 1, got %d", r.DefaultLimit)
	}
	if r.MaxLimit < r.DefaultLimit {
		return fmt.Errorf("recommend.max_limit (%d) must be >= default_limit (%d)", r.MaxLimit, r.DefaultLimit)
	}
	if r.RuleWeight < 0 || r.RuleWeight > 1 {
		return fmt.Errorf("recommend.rule_weight must be in [0, 1], got %f", r.RuleWeight)
	}
	if r.CacheSize < 0 {
		return fmt.Errorf("recommend.cache_size must be non-negative, got %d", r.CacheSize)
	}
	if r.ModelDir == "" {
		return fmt.Errorf("MODEL_DIR is required")
	}
	return nil
}

func (c *Config) validateReranker() error {
	r := c.Reranker
	if len(r.HiddenLayers) == 0 {
		return fmt.Errorf("reranker.hidden_layers must not be empty")
	}
	for _, n := range r.HiddenLayers {
		if n < 1 {
			return fmt.Errorf("reranker.hidden_layers entries must be positive, got %d", n)
		}
	}
	if r.LearningRate <= 0 {
		return fmt.Errorf("reranker.learning_rate must be positive, got %f", r.LearningRate)
	}
	if r.LearningRateDecay <= 0 || r.LearningRateDecay > 1 {
		return fmt.Errorf("reranker.learning_rate_decay must be in (0, 1], got %f", r.LearningRateDecay)
	}
	if r.BatchSize < 1 || r.MaxIterations < 1 || r.Patience < 1 {
		return fmt.Errorf("reranker batch_size, max_iterations and patience must be positive")
	}
	if r.TestFraction <= 0 || r.TestFraction >= 1 {
		return fmt.Errorf("reranker.test_fraction must be in (0, 1), got %f", r.TestFraction)
	}
	return nil
}

func (c *Config) validateTraining() error {
	t := c.Training
	if strings.TrimSpace(t.Schedule) == "" {
		return fmt.Errorf("RETRAIN_SCHEDULE must not be empty")
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("TRAIN_TIMEOUT must be positive, got %v", t.Timeout)
	}
	if t.RetrainAfterInteractions < 0 {
		return fmt.Errorf("RETRAIN_AFTER_INTERACTIONS must be non-negative, got %d", t.RetrainAfterInteractions)
	}
	return nil
}

func (c *Config) validateEvaluation() error {
	e := c.Evaluation
	if e.TestSize <= 0 || e.TestSize >= 1 {
		return fmt.Errorf("VALIDATION_TEST_SIZE must be in (0, 1), got %f", e.TestSize)
	}
	if e.TopK < 1 {
		return fmt.Errorf("VALIDATION_TOP_K must be at least 1, got %d", e.TopK)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
