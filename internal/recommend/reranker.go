// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"context"
	"slices"
	"time"

	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend/algorithms"
	"github.com/tomtom215/wayfinder/internal/recommend/storage"
)

// TrainingReport describes one re-ranker training run.
type TrainingReport struct {
	Version           int       `json:"model_version"`
	TrainedAt         time.Time `json:"timestamp"`
	MSE               float64   `json:"mse"`
	R2                float64   `json:"r2_score"`
	Epochs            int       `json:"epochs"`
	BestEpoch         int       `json:"best_epoch"`
	FinalLearningRate float64   `json:"final_learning_rate"`
	TrainSamples      int       `json:"training_samples"`
	TestSamples       int       `json:"test_samples"`
	Synthetic         bool      `json:"synthetic_data"`
	Threshold         float64   `json:"performance_threshold"`
	BelowThreshold    bool      `json:"below_threshold"`
	DurationMS        int64     `json:"training_duration_ms"`
}

// Reranker is the learned scorer. A Reranker is immutable once trained or
// restored; the zero value and NewReranker results are untrained.
type Reranker struct {
	cfg     *Config
	encoder *Encoder
	scaler  *Scaler
	net     *algorithms.MLP
}

// NewReranker returns an untrained re-ranker.
func NewReranker(cfg *Config) *Reranker {
	return &Reranker{cfg: cfg}
}

// IsTrained reports whether the re-ranker can predict.
func (r *Reranker) IsTrained() bool {
	return r != nil && r.encoder != nil && r.scaler.IsFit() && r.net != nil && r.net.IsTrained()
}

// checkTrainable rejects data that cannot support a meaningful model.
func checkTrainable(interactions []models.Interaction) error {
	const op = "train reranker"
	if len(interactions) < 2 {
		return models.InsufficientDataError(op, "need at least 2 interactions, got %d", len(interactions))
	}
	dirs := make(map[string]struct{})
	stages := make(map[string]struct{})
	for i := range interactions {
		dirs[interactions[i].CurrentDirectory] = struct{}{}
		dirs[interactions[i].TargetDirectory] = struct{}{}
		stages[interactions[i].Stage] = struct{}{}
	}
	if len(dirs) < 2 {
		return models.InsufficientDataError(op, "need at least 2 distinct directories, got %d", len(dirs))
	}
	if len(stages) < 2 {
		return models.InsufficientDataError(op, "need at least 2 distinct stages, got %d", len(stages))
	}
	return nil
}

// Train fits a new re-ranker on interactions and reports its held-out
// performance. The receiver is not modified.
func (r *Reranker) Train(ctx context.Context, interactions []models.Interaction, synthetic bool) (*Reranker, *TrainingReport, error) {
	start := time.Now()
	if err := checkTrainable(interactions); err != nil {
		return nil, nil, err
	}

	train, test, err := Split(interactions, r.cfg.Reranker.TestFraction, r.cfg.Seed)
	if err != nil {
		return nil, nil, err
	}

	encoder := NewEncoder(train)
	rawTrainX, trainY := encoder.EncodeAll(train)
	rawTestX, testY := encoder.EncodeAll(test)

	scaler, err := FitScaler(rawTrainX)
	if err != nil {
		return nil, nil, err
	}
	trainX, err := scaler.TransformAll(rawTrainX)
	if err != nil {
		return nil, nil, err
	}
	testX, err := scaler.TransformAll(rawTestX)
	if err != nil {
		return nil, nil, err
	}

	net, err := algorithms.NewMLP(r.cfg.mlpConfig())
	if err != nil {
		return nil, nil, err
	}
	fit, err := net.Fit(ctx, trainX, trainY, testX, testY)
	if err != nil {
		return nil, nil, err
	}

	trained := &Reranker{cfg: r.cfg, encoder: encoder, scaler: scaler, net: net}

	preds := make([]float64, len(testX))
	for i, x := range testX {
		p, err := net.Predict(x)
		if err != nil {
			return nil, nil, err
		}
		preds[i] = p
	}
	mse, r2 := regressionMetrics(testY, preds)

	report := &TrainingReport{
		TrainedAt:         time.Now().UTC(),
		MSE:               mse,
		R2:                r2,
		Epochs:            fit.Epochs,
		BestEpoch:         fit.BestEpoch,
		FinalLearningRate: fit.FinalLearningRate,
		TrainSamples:      len(train),
		TestSamples:       len(test),
		Synthetic:         synthetic,
		Threshold:         r.cfg.Training.PerformanceThreshold,
		BelowThreshold:    r2 < r.cfg.Training.PerformanceThreshold,
		DurationMS:        time.Since(start).Milliseconds(),
	}
	return trained, report, nil
}

// regressionMetrics returns MSE and the coefficient of determination. R² is
// 0 when the targets have no variance.
func regressionMetrics(y, pred []float64) (mse, r2 float64) {
	if len(y) == 0 {
		return 0, 0
	}
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, v := range y {
		d := v - pred[i]
		ssRes += d * d
		m := v - mean
		ssTot += m * m
	}
	mse = ssRes / float64(len(y))
	if ssTot == 0 {
		return mse, 0
	}
	return mse, 1 - ssRes/ssTot
}

// Predict scores the move from current to target for stage in [0, 1].
func (r *Reranker) Predict(current, target, stage string) (float64, error) {
	if !r.IsTrained() {
		return 0, models.StateError("reranker predict", "model is not trained")
	}
	x, err := r.scaler.Transform(r.encoder.Encode(current, target, stage))
	if err != nil {
		return 0, err
	}
	p, err := r.net.Predict(x)
	if err != nil {
		return 0, err
	}
	return models.Clamp01(p), nil
}

// Optimize orders candidates by learned score, highest first. Ties keep
// candidate order.
func (r *Reranker) Optimize(current, stage string, candidates []string) ([]models.ScoredResource, error) {
	out := make([]models.ScoredResource, len(candidates))
	for i, id := range candidates {
		p, err := r.Predict(current, id, stage)
		if err != nil {
			return nil, err
		}
		out[i] = models.ScoredResource{ResourceID: id, Score: p, LearnedScore: &p}
	}
	sortByScore(out)
	return out, nil
}

// State returns the serializable form of a trained re-ranker.
func (r *Reranker) State() (storage.RerankerState, error) {
	if !r.IsTrained() {
		return storage.RerankerState{}, models.StateError("reranker state", "model is not trained")
	}
	return storage.RerankerState{
		CurrentVocabulary: slices.Clone(r.encoder.Current.Values),
		TargetVocabulary:  slices.Clone(r.encoder.Target.Values),
		StageVocabulary:   slices.Clone(r.encoder.Stage.Values),
		Mean:              slices.Clone(r.scaler.Mean),
		Std:               slices.Clone(r.scaler.Std),
		Network:           r.net.State(),
	}, nil
}

// RestoreReranker rebuilds a trained re-ranker from a checkpoint.
func RestoreReranker(cfg *Config, st *storage.RerankerState) (*Reranker, error) {
	if len(st.Mean) != featureCount || len(st.Std) != featureCount {
		return nil, models.StateError("restore reranker", "scaler has %d/%d columns, want %d", len(st.Mean), len(st.Std), featureCount)
	}
	if st.Network.Inputs != featureCount {
		return nil, models.StateError("restore reranker", "network takes %d inputs, want %d", st.Network.Inputs, featureCount)
	}
	net, err := algorithms.RestoreMLP(st.Network)
	if err != nil {
		return nil, err
	}
	return &Reranker{
		cfg: cfg,
		encoder: &Encoder{
			Current: restoreVocabulary(slices.Clone(st.CurrentVocabulary)),
			Target:  restoreVocabulary(slices.Clone(st.TargetVocabulary)),
			Stage:   restoreVocabulary(slices.Clone(st.StageVocabulary)),
		},
		scaler: &Scaler{Mean: slices.Clone(st.Mean), Std: slices.Clone(st.Std)},
		net:    net,
	}, nil
}
