// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package evaluate measures how well the recommender predicts recorded
// navigation. A held-out split of the interaction log is replayed: for each
// test interaction the predictor ranks the directories reachable from the
// recorded current directory, and a hit is counted when the recorded target
// is among the top K.
package evaluate

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/stage"
)

// Options configures a validation run.
type Options struct {
	// TestSize is the held-out share, in (0, 1).
	TestSize float64 `json:"test_size"`

	// Seed fixes the split.
	Seed int64 `json:"random_state"`

	// TopK is how many ranked candidates count as a prediction. Values
	// below 1 mean 1.
	TopK int `json:"top_k"`
}

// DefaultOptions returns a 20% hold-out with seed 42 and top-1 matching.
func DefaultOptions() Options {
	return Options{TestSize: 0.2, Seed: 42, TopK: 1}
}

// Metrics are micro-averaged over the test interactions.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// Configuration records how a report was produced.
type Configuration struct {
	TestSize     float64 `json:"test_size"`
	RandomState  int64   `json:"random_state"`
	TotalSamples int     `json:"total_samples"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
	TopK         int     `json:"top_k"`
}

// Report is the result of one validation run.
type Report struct {
	Timestamp           time.Time          `json:"timestamp"`
	Mode                string             `json:"mode"`
	Overall             Metrics            `json:"overall_metrics"`
	StagePerformance    map[string]float64 `json:"professional_stage_performance"`
	ClassifierAgreement float64            `json:"classifier_agreement"`
	Hits                int                `json:"hits"`
	Predictions         int                `json:"predictions"`
	Configuration       Configuration      `json:"validation_configuration"`
}

// Evaluator replays held-out interactions against a freshly fitted
// predictor. It does not touch the serving engine's model.
type Evaluator struct {
	cfg        *recommend.Config
	scorer     *recommend.Scorer
	graphs     recommend.GraphSource
	classifier *stage.Classifier
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates an evaluator. cfg supplies the scorer weights and the
// re-ranker hyperparameters.
func New(cfg *recommend.Config, graphs recommend.GraphSource, classifier *stage.Classifier, logger zerolog.Logger) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if graphs == nil || classifier == nil {
		return nil, models.ConfigError("new evaluator", "graph source and classifier are required")
	}
	scorer, err := recommend.NewScorer(cfg)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		cfg:        cfg.Clone(),
		scorer:     scorer,
		graphs:     graphs,
		classifier: classifier,
		logger:     logger.With().Str("component", "evaluate").Logger(),
		now:        time.Now,
	}, nil
}

// Validate splits interactions, fits a predictor on the training part and
// scores it on the test part. The predictor is hybrid when the re-ranker
// can be trained on the training split, rule-based otherwise.
func (e *Evaluator) Validate(ctx context.Context, interactions []models.Interaction, opts Options) (*Report, error) {
	const op = "validate recommendations"

	if opts.TestSize <= 0 || opts.TestSize >= 1 || math.IsNaN(opts.TestSize) {
		return nil, models.ConfigError(op, "test size must be in (0, 1), got %v", opts.TestSize)
	}
	if len(interactions) == 0 {
		return nil, models.InsufficientDataError(op, "no interactions to validate")
	}
	opts.TopK = max(opts.TopK, 1)

	train, test, err := recommend.Split(interactions, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}

	predictor := recommend.Predictor{Scorer: e.scorer, RuleWeight: e.cfg.RuleWeight}
	trained, _, err := recommend.NewReranker(e.cfg).Train(ctx, train, false)
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		e.logger.Info().Err(err).Msg("re-ranker cannot train on the split, validating rule-based ranking")
	case err != nil:
		return nil, err
	default:
		predictor.Reranker = trained
	}

	g := e.graphs.Current()
	mode := models.ModeRuleBased
	hits, predictions, agree := 0, 0, 0
	stageHits := make(map[string]int)
	stagePredictions := make(map[string]int)
	stages := make(map[string]struct{})

	for i := range test {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		it := &test[i]
		stages[it.Stage] = struct{}{}

		if e.classifier.Classify(it) == it.Stage {
			agree++
		}

		ranked, m, rankErr := predictor.Rank(g, it.CurrentDirectory, it.Stage, opts.TopK)
		if rankErr != nil {
			e.logger.Debug().Err(rankErr).Msg("learned scoring failed for test interaction")
		}
		if m == models.ModeHybrid {
			mode = m
		}
		if len(ranked) == 0 {
			continue
		}
		predictions++
		stagePredictions[it.Stage]++
		if slices.ContainsFunc(ranked, func(r models.ScoredResource) bool { return r.ResourceID == it.TargetDirectory }) {
			hits++
			stageHits[it.Stage]++
		}
	}

	report := &Report{
		Timestamp:           e.now().UTC(),
		Mode:                mode,
		Overall:             computeMetrics(hits, predictions, len(test)),
		StagePerformance:    make(map[string]float64, len(stages)),
		ClassifierAgreement: ratio(agree, len(test)),
		Hits:                hits,
		Predictions:         predictions,
		Configuration: Configuration{
			TestSize:     opts.TestSize,
			RandomState:  opts.Seed,
			TotalSamples: len(interactions),
			TrainSamples: len(train),
			TestSamples:  len(test),
			TopK:         opts.TopK,
		},
	}
	for s := range stages {
		report.StagePerformance[s] = ratio(stageHits[s], stagePredictions[s])
	}

	metrics.RecordValidation(report.Overall.Precision, report.Overall.Recall, report.Overall.F1, report.ClassifierAgreement)
	e.logger.Info().
		Str("mode", mode).
		Float64("precision", report.Overall.Precision).
		Float64("recall", report.Overall.Recall).
		Float64("f1", report.Overall.F1).
		Float64("classifier_agreement", report.ClassifierAgreement).
		Int("test_samples", len(test)).
		Msg("validation complete")
	return report, nil
}

func computeMetrics(hits, predictions, total int) Metrics {
	m := Metrics{
		Precision: ratio(hits, predictions),
		Recall:    ratio(hits, total),
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
