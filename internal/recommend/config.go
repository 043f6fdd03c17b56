// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"math"
	"slices"
	"time"

	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend/algorithms"
)

// weightTolerance bounds the deviation of the weight sum from 1.
const weightTolerance = 1e-9

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights of the four rule-based sub-scores. Must sum to 1.
	Weights Weights `json:"weights"`

	// EconomicRelevance maps resource ids to a relevance in [0, 1].
	EconomicRelevance map[string]float64 `json:"economic_relevance"`

	// DefaultEconomicRelevance applies to resources not in the table.
	DefaultEconomicRelevance float64 `json:"default_economic_relevance"`

	// DefaultLimit is used when a request asks for limit <= 0.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps a single request.
	MaxLimit int `json:"max_limit"`

	// RuleWeight is the share of the rule score in hybrid mode; the learned
	// score gets 1 - RuleWeight.
	RuleWeight float64 `json:"rule_weight"`

	// Reranker configures the learned re-ranker.
	Reranker RerankerConfig `json:"reranker"`

	// Training contains training parameters.
	Training TrainingConfig `json:"training"`

	// Cache contains caching parameters.
	Cache CacheConfig `json:"cache"`

	// Seed is the random seed for splitting, synthetic data and weight
	// initialization.
	Seed int64 `json:"seed"`
}

// Weights are the rule-based sub-score weights.
type Weights struct {
	DirectConnection  float64 `json:"direct_connection"`
	ContextSimilarity float64 `json:"context_similarity"`
	PathwayAlignment  float64 `json:"pathway_alignment"`
	EconomicRelevance float64 `json:"economic_relevance"`
}

// Sum returns the total weight.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w Weights) Sum() float64 {
	return w.DirectConnection + w.ContextSimilarity + w.PathwayAlignment + w.EconomicRelevance
}

// Validate checks that no weight is negative and the weights sum to 1.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"direct_connection":  w.DirectConnection,
		"context_similarity": w.ContextSimilarity,
		"pathway_alignment":  w.PathwayAlignment,
		"economic_relevance": w.EconomicRelevance,
	} {
		if v < 0 || math.IsNaN(v) {
			return models.ConfigError("scoring weights", "%s must be non-negative, got %v", name, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return models.ConfigError("scoring weights", "weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// RerankerConfig contains parameters for the learned re-ranker.
type RerankerConfig struct {
	// HiddenLayers lists hidden layer widths.
	HiddenLayers []int `json:"hidden_layers"`

	// LearningRate is the initial Adam step size.
	LearningRate float64 `json:"learning_rate"`

	// LearningRateDecay is applied every DecaySteps optimizer steps.
	LearningRateDecay float64 `json:"learning_rate_decay"`
	DecaySteps        int     `json:"decay_steps"`

	// BatchSize is the mini-batch size.
	BatchSize int `json:"batch_size"`

	// MaxIterations bounds training epochs.
	MaxIterations int `json:"max_iterations"`

	// Patience is the number of epochs without improvement before stopping.
	Patience int `json:"patience"`

	// TestFraction is the held-out share of the data.
	TestFraction float64 `json:"test_fraction"`

	// SyntheticSamples is the number of synthetic interactions generated
	// when the store is empty.
	SyntheticSamples int `json:"synthetic_samples"`
}

// TrainingConfig contains training parameters.
type TrainingConfig struct {
	// Timeout bounds a single training run.
	Timeout time.Duration `json:"timeout"`

	// PerformanceThreshold flags models whose R² falls below it.
	PerformanceThreshold float64 `json:"performance_threshold"`

	// ModelDir stores checkpoints. Empty disables persistence.
	ModelDir string `json:"model_dir"`

	// RetainVersions is the number of checkpoints kept after pruning.
	RetainVersions int `json:"retain_versions"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Size is the maximum number of cached responses (0 disables caching).
	Size int `json:"size"`

	// TTL is how long a cached response stays valid.
	TTL time.Duration `json:"ttl"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
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
			Timeout:              10 * time.Minute,
			PerformanceThreshold: 0.85,
			RetainVersions:       5,
		},
		Cache: CacheConfig{
			Size: 1000,
			TTL:  5 * time.Minute,
		},
		Seed: 42,
	}
}

// Validate checks the configuration and returns a ConfigError describing
// the first problem found.
func (c *Config) Validate() error {
	const op = "recommend config"

	if err := c.Weights.Validate(); err != nil {
		return err
	}
	for id, v := range c.EconomicRelevance {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return models.ConfigError(op, "economic relevance for %q must be in [0, 1], got %v", id, v)
		}
	}
	if c.DefaultEconomicRelevance < 0 || c.DefaultEconomicRelevance > 1 {
		return models.ConfigError(op, "default economic relevance must be in [0, 1]")
	}
	if c.DefaultLimit <= 0 {
		return models.ConfigError(op, "default limit must be positive")
	}
	if c.MaxLimit < c.DefaultLimit {
		return models.ConfigError(op, "max limit %d is below default limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.RuleWeight < 0 || c.RuleWeight > 1 {
		return models.ConfigError(op, "rule weight must be in [0, 1], got %v", c.RuleWeight)
	}
	if f := c.Reranker.TestFraction; f <= 0 || f >= 1 {
		return models.ConfigError(op, "reranker test fraction must be in (0, 1), got %v", f)
	}
	if c.Reranker.SyntheticSamples < 0 {
		return models.ConfigError(op, "synthetic samples must be non-negative")
	}
	if c.Training.RetainVersions < 0 {
		return models.ConfigError(op, "retain versions must be non-negative")
	}
	if c.Cache.Size < 0 {
		return models.ConfigError(op, "cache size must be non-negative")
	}
	mlp := c.mlpConfig()
	return mlp.Validate()
}

// mlpConfig maps the re-ranker settings onto the regressor hyperparameters.
func (c *Config) mlpConfig() algorithms.MLPConfig {
	cfg := algorithms.DefaultMLPConfig()
	cfg.HiddenLayers = slices.Clone(c.Reranker.HiddenLayers)
	cfg.LearningRate = c.Reranker.LearningRate
	cfg.LearningRateDecay = c.Reranker.LearningRateDecay
	cfg.DecaySteps = c.Reranker.DecaySteps
	cfg.BatchSize = c.Reranker.BatchSize
	cfg.MaxIterations = c.Reranker.MaxIterations
	cfg.Patience = c.Reranker.Patience
	cfg.Seed = c.Seed
	return cfg
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.EconomicRelevance = make(map[string]float64, len(c.EconomicRelevance))
	for k, v := range c.EconomicRelevance {
		clone.EconomicRelevance[k] = v
	}
	clone.Reranker.HiddenLayers = slices.Clone(c.Reranker.HiddenLayers)
	return &clone
}

// clampLimit applies the default and maximum limits.
func (c *Config) clampLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultLimit
	}
	if c.MaxLimit > 0 && limit > c.MaxLimit {
		return c.MaxLimit
	}
	return limit
}
