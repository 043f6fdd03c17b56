// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package main

import (
	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/evaluate"
	"github.com/tomtom215/wayfinder/internal/navigator"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/reports"
	"github.com/tomtom215/wayfinder/internal/supervisor/services"
)

// buildEngineConfig maps the koanf configuration onto the engine's. Values
// the file leaves zero fall back to recommend.DefaultConfig.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	ec := recommend.DefaultConfig()

	w := cfg.Recommend.Weights
	if w != (config.ScoringWeights{}) {
		ec.Weights = recommend.Weights{
			DirectConnection:  w.DirectConnection,
			ContextSimilarity: w.ContextSimilarity,
			PathwayAlignment:  w.PathwayAlignment,
			EconomicRelevance: w.EconomicRelevance,
		}
	}
	if len(cfg.Recommend.EconomicRelevance) > 0 {
		ec.EconomicRelevance = cfg.Recommend.EconomicRelevance
	}
	ec.DefaultEconomicRelevance = cfg.Recommend.DefaultEconomicRelevance
	setIfPositive(&ec.DefaultLimit, cfg.Recommend.DefaultLimit)
	setIfPositive(&ec.MaxLimit, cfg.Recommend.MaxLimit)
	ec.RuleWeight = cfg.Recommend.RuleWeight
	ec.Seed = cfg.Recommend.Seed

	ec.Cache.Size = cfg.Recommend.CacheSize
	if cfg.Recommend.CacheTTL > 0 {
		ec.Cache.TTL = cfg.Recommend.CacheTTL
	}

	r := cfg.Reranker
	if len(r.HiddenLayers) > 0 {
		ec.Reranker.HiddenLayers = append([]int(nil), r.HiddenLayers...)
	}
	setIfPositiveFloat(&ec.Reranker.LearningRate, r.LearningRate)
	setIfPositiveFloat(&ec.Reranker.LearningRateDecay, r.LearningRateDecay)
	setIfPositive(&ec.Reranker.DecaySteps, r.DecaySteps)
	setIfPositive(&ec.Reranker.BatchSize, r.BatchSize)
	setIfPositive(&ec.Reranker.MaxIterations, r.MaxIterations)
	setIfPositive(&ec.Reranker.Patience, r.Patience)
	setIfPositiveFloat(&ec.Reranker.TestFraction, r.TestFraction)
	setIfPositive(&ec.Reranker.SyntheticSamples, r.SyntheticSamples)

	if cfg.Training.Timeout > 0 {
		ec.Training.Timeout = cfg.Training.Timeout
	}
	setIfPositiveFloat(&ec.Training.PerformanceThreshold, cfg.Training.PerformanceThreshold)
	ec.Training.ModelDir = cfg.Recommend.ModelDir
	setIfPositive(&ec.Training.RetainVersions, cfg.Recommend.RetainVersions)

	return ec
}

func navigatorOptions(cfg *config.Config) navigator.Options {
	opts := navigator.Options{
		RequireConsent: cfg.Privacy.RequireConsent,
		ConsentVersion: cfg.Privacy.ConsentVersion,
		Evaluation:     evaluate.DefaultOptions(),
	}
	setIfPositiveFloat(&opts.Evaluation.TestSize, cfg.Evaluation.TestSize)
	setIfPositive(&opts.Evaluation.TopK, cfg.Evaluation.TopK)
	if cfg.Evaluation.Seed != 0 {
		opts.Evaluation.Seed = cfg.Evaluation.Seed
	}
	return opts
}

func reportsConfig(cfg *config.Config) reports.Config {
	return reports.Config{Path: cfg.Reports.Path, Retention: cfg.Reports.Retention}
}

func retrainServiceConfig(cfg *config.Config) services.RetrainServiceConfig {
	return services.RetrainServiceConfig{
		Schedule:                 cfg.Training.Schedule,
		TrainOnStartup:           cfg.Training.TrainOnStartup,
		Timeout:                  cfg.Training.Timeout,
		RetrainAfterInteractions: cfg.Training.RetrainAfterInteractions,
		MinRetrainInterval:       cfg.Training.MinRetrainInterval,
	}
}

func setIfPositive(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setIfPositiveFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}
