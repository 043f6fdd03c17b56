// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/cache"
	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend/storage"
	"github.com/tomtom215/wayfinder/internal/resilience"
)

// ModelName is the checkpoint name of the re-ranker.
const ModelName = "reranker"

// ErrTrainingInProgress is returned by Train while another run is active.
var ErrTrainingInProgress = &models.Error{
	Kind: models.ErrConflict,
	Op:   "train reranker",
	Err:  errors.New("training already in progress"),
}

// Training outcomes reported in metrics and TrainingStatus.
const (
	OutcomeSuccess          = "success"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeError            = "error"
	OutcomeBusy             = "busy"
)

// GraphSource provides the current resource graph and its version.
// *graph.Holder implements it.
type GraphSource interface {
	Current() *graph.Graph
	Version() int64
}

// DataProvider supplies the interactions a training run learns from.
type DataProvider interface {
	TrainingInteractions(ctx context.Context) ([]models.Interaction, error)
}

// DataProviderFunc adapts a function to DataProvider.
type DataProviderFunc func(ctx context.Context) ([]models.Interaction, error)

// TrainingInteractions implements DataProvider.
func (f DataProviderFunc) TrainingInteractions(ctx context.Context) ([]models.Interaction, error) {
	return f(ctx)
}

// TrainingStatus is a snapshot of the engine's training state.
type TrainingStatus struct {
	IsTraining             bool            `json:"is_training"`
	ModelVersion           int             `json:"model_version"`
	HasModel               bool            `json:"has_model"`
	LastOutcome            string          `json:"last_outcome,omitempty"`
	LastError              string          `json:"last_error,omitempty"`
	LastStartedAt          time.Time       `json:"last_started_at"`
	LastTrainedAt          time.Time       `json:"last_trained_at"`
	LastTrainingDurationMS int64           `json:"last_training_duration_ms"`
	InteractionCount       int             `json:"interaction_count"`
	LastReport             *TrainingReport `json:"last_report,omitempty"`
}

// Engine serves recommendations and owns the learned re-ranker. It is safe
// for concurrent use; Recommend never blocks on training.
type Engine struct {
	cfg    *Config
	logger zerolog.Logger
	scorer *Scorer
	graphs GraphSource
	data   DataProvider

	breaker *resilience.Breaker[[]models.Interaction]
	store   *storage.Store
	cache   *cache.LRU[*models.RecommendationResult]

	reranker     atomic.Pointer[Reranker]
	modelVersion atomic.Int64

	// trainMu serializes training runs. statusMu guards status only, so
	// Status does not wait for a run to finish.
	trainMu  sync.Mutex
	statusMu sync.RWMutex
	status   TrainingStatus

	now func() time.Time
}

// NewEngine validates cfg and creates an engine over graphs. A non-empty
// Training.ModelDir enables checkpoint persistence.
func NewEngine(cfg *Config, graphs GraphSource, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}
	if graphs == nil {
		return nil, models.ConfigError("new engine", "graph source is required")
	}
	cfg = cfg.Clone()

	scorer, err := NewScorer(cfg)
	if err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "recommend").Logger()
	e := &Engine{
		cfg:     cfg,
		logger:  logger,
		scorer:  scorer,
		graphs:  graphs,
		breaker: resilience.NewBreaker[[]models.Interaction]("training_data", resilience.DefaultBreakerConfig(), logger),
		now:     time.Now,
	}

	if cfg.Cache.Size > 0 {
		e.cache = cache.NewLRU[*models.RecommendationResult](cfg.Cache.Size, cfg.Cache.TTL)
	}
	if cfg.Training.ModelDir != "" {
		store, err := storage.NewStore(cfg.Training.ModelDir)
		if err != nil {
			return nil, err
		}
		e.store = store
	}
	e.reranker.Store(NewReranker(cfg))
	return e, nil
}

// SetDataProvider sets the source of training data.
func (e *Engine) SetDataProvider(dp DataProvider) {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()
	e.data = dp
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg.Clone()
}

// Scorer returns the rule-based scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Reranker returns the current re-ranker, which may be untrained.
func (e *Engine) Reranker() *Reranker {
	return e.reranker.Load()
}

// ModelVersion returns the version of the current re-ranker, 0 if none.
func (e *Engine) ModelVersion() int {
	return int(e.modelVersion.Load())
}

// Recommend ranks the directories reachable from current for stage. Unknown
// directories and stages are not errors. limit <= 0 uses the default and
// limits above the maximum are capped. The result must not be modified.
func (e *Engine) Recommend(ctx context.Context, current, stage string, limit int) (*models.RecommendationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	limit = e.cfg.clampLimit(limit)

	g := e.graphs.Current()
	rr := e.reranker.Load()
	version := e.ModelVersion()
	key := fmt.Sprintf("%s|%s|%d|%d|%d", current, stage, limit, version, e.graphs.Version())

	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			metrics.RecordRecommendation(cached.Mode, time.Since(start), true)
			return cached, nil
		}
	}

	p := Predictor{Scorer: e.scorer, Reranker: rr, RuleWeight: e.cfg.RuleWeight}
	ranked, mode, err := p.Rank(g, current, stage, limit)
	if err != nil {
		e.logger.Warn().Err(err).
			Str("current", current).
			Str("stage", stage).
			Msg("learned scoring failed, serving rule-based ranking")
	}

	result := &models.RecommendationResult{
		CurrentDirectory: current,
		Stage:            stage,
		Mode:             mode,
		Recommendations:  slices.Clip(ranked),
		GeneratedAt:      e.now().UTC(),
	}
	if mode == models.ModeHybrid {
		result.ModelVersion = version
	}

	if e.cache != nil && err == nil {
		e.cache.Add(key, result)
	}
	metrics.RecordRecommendation(mode, time.Since(start), false)
	return result, nil
}

// InvalidateCache drops every cached recommendation.
func (e *Engine) InvalidateCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// Train fits a new re-ranker on the data provider's interactions, or on
// synthetic data when there are none. On success the new model replaces the
// current one, is checkpointed and the recommendation cache is cleared. On
// failure the current model stays in place. Concurrent calls return
// ErrTrainingInProgress.
func (e *Engine) Train(ctx context.Context) (*TrainingReport, error) {
	if !e.trainMu.TryLock() {
		metrics.RecordTraining(OutcomeBusy, 0)
		return nil, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := time.Now()
	e.updateStatus(func(s *TrainingStatus) {
		s.IsTraining = true
		s.LastStartedAt = e.now().UTC()
		s.LastError = ""
	})

	report, count, err := e.train(ctx)
	duration := time.Since(start)

	outcome := OutcomeSuccess
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		outcome = OutcomeInsufficientData
	case err != nil:
		outcome = OutcomeError
	}
	metrics.RecordTraining(outcome, duration)

	e.updateStatus(func(s *TrainingStatus) {
		s.IsTraining = false
		s.LastOutcome = outcome
		s.LastTrainingDurationMS = duration.Milliseconds()
		s.InteractionCount = count
		if err != nil {
			s.LastError = err.Error()
			return
		}
		s.ModelVersion = report.Version
		s.HasModel = true
		s.LastTrainedAt = report.TrainedAt
		s.LastReport = report
	})

	if err != nil {
		e.logger.Warn().Err(err).Str("outcome", outcome).Msg("reranker training did not produce a model")
		return nil, err
	}
	e.logger.Info().
		Int("version", report.Version).
		Float64("mse", report.MSE).
		Float64("r2", report.R2).
		Int("epochs", report.Epochs).
		Bool("synthetic", report.Synthetic).
		Bool("below_threshold", report.BelowThreshold).
		Dur("duration", duration).
		Msg("reranker training complete")
	return report, nil
}

func (e *Engine) train(ctx context.Context) (*TrainingReport, int, error) {
	if e.cfg.Training.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Training.Timeout)
		defer cancel()
	}

	interactions, err := e.loadTrainingData(ctx)
	if err != nil {
		return nil, 0, err
	}

	synthetic := false
	if len(interactions) == 0 {
		interactions = SyntheticInteractions(e.graphs.Current(), e.cfg.Reranker.SyntheticSamples, e.cfg.Seed, e.now())
		synthetic = true
		e.logger.Info().Int("samples", len(interactions)).Msg("no stored interactions, training on synthetic data")
	}

	trained, report, err := e.reranker.Load().Train(ctx, interactions, synthetic)
	if err != nil {
		return nil, len(interactions), err
	}

	version := e.ModelVersion() + 1
	if e.store != nil {
		version = max(version, e.store.NextVersion(ModelName))
	}
	report.Version = version
	report.TrainedAt = e.now().UTC()

	if err := e.persist(ctx, trained, report); err != nil {
		return nil, len(interactions), err
	}

	e.reranker.Store(trained)
	e.modelVersion.Store(int64(version))
	e.InvalidateCache()
	metrics.SetModel(version, report.MSE, report.R2)
	return report, len(interactions), nil
}

// loadTrainingData fetches interactions through the circuit breaker.
func (e *Engine) loadTrainingData(ctx context.Context) ([]models.Interaction, error) {
	if e.data == nil {
		return nil, nil
	}
	interactions, err := e.breaker.Execute(func() ([]models.Interaction, error) {
		return e.data.TrainingInteractions(ctx)
	})
	if err != nil {
		if resilience.IsOpen(err) || models.KindOf(err) == nil {
			return nil, models.StorageError("load training data", err)
		}
		return nil, err
	}
	return interactions, nil
}

func (e *Engine) persist(ctx context.Context, rr *Reranker, report *TrainingReport) error {
	if e.store == nil {
		return nil
	}
	state, err := rr.State()
	if err != nil {
		return err
	}
	meta := storage.ModelMetadata{
		TrainedAt:          report.TrainedAt,
		TrainSamples:       report.TrainSamples,
		TestSamples:        report.TestSamples,
		Synthetic:          report.Synthetic,
		MSE:                report.MSE,
		R2:                 report.R2,
		TrainingDurationMS: report.DurationMS,
	}
	if _, err := e.store.Save(ctx, ModelName, report.Version, state, meta); err != nil {
		return err
	}
	removed, err := e.store.Prune(ctx, ModelName, e.cfg.Training.RetainVersions)
	if err != nil {
		e.logger.Warn().Err(err).Msg("pruning old model checkpoints failed")
	} else if removed > 0 {
		e.logger.Debug().Int("removed", removed).Msg("pruned old model checkpoints")
	}
	return nil
}

// WarmStart restores the newest checkpoint, if any. It returns the restored
// version, or 0 when persistence is disabled or no checkpoint exists.
func (e *Engine) WarmStart(ctx context.Context) (int, error) {
	if e.store == nil {
		return 0, nil
	}
	var state storage.RerankerState
	meta, err := e.store.Load(ctx, ModelName, 0, &state)
	if errors.Is(err, models.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	rr, err := RestoreReranker(e.cfg, &state)
	if err != nil {
		return 0, err
	}

	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	e.reranker.Store(rr)
	e.modelVersion.Store(int64(meta.Version))
	e.InvalidateCache()
	metrics.SetModel(meta.Version, meta.MSE, meta.R2)
	e.updateStatus(func(s *TrainingStatus) {
		s.ModelVersion = meta.Version
		s.HasModel = true
		s.LastTrainedAt = meta.TrainedAt
	})
	e.logger.Info().Int("version", meta.Version).Time("trained_at", meta.TrainedAt).Msg("restored reranker checkpoint")
	return meta.Version, nil
}

// Checkpoints lists the stored re-ranker versions, oldest first.
func (e *Engine) Checkpoints(ctx context.Context) ([]storage.ModelMetadata, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.List(ctx, ModelName)
}

// Status returns the current training status.
func (e *Engine) Status() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

func (e *Engine) updateStatus(fn func(*TrainingStatus)) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	fn(&e.status)
}
