// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/models"
)

func newTestEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = fastConfig()
	}
	e, err := NewEngine(cfg, graph.NewHolder(loadGraph(t), "", zerolog.Nop()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.Weights.DirectConnection = 0.9
	if _, err := NewEngine(cfg, graph.NewHolder(loadGraph(t), "", zerolog.Nop()), zerolog.Nop()); !errors.Is(err, models.ErrConfig) {
		t.Errorf("NewEngine() error = %v, want ErrConfig", err)
	}
	if _, err := NewEngine(fastConfig(), nil, zerolog.Nop()); !errors.Is(err, models.ErrConfig) {
		t.Errorf("NewEngine(nil graph) error = %v, want ErrConfig", err)
	}
}

func TestEngine_RecommendRuleBased(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	res, err := e.Recommend(context.Background(), "A", "S1", 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.Mode != models.ModeRuleBased || res.ModelVersion != 0 {
		t.Errorf("mode = %s version = %d", res.Mode, res.ModelVersion)
	}
	if len(res.Recommendations) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(res.Recommendations))
	}
	top := res.Recommendations[0]
	if top.ResourceID != "B" || math.Abs(top.Score-0.75) > 1e-12 {
		t.Errorf("top = %+v, want B at 0.75", top)
	}

	if res, _ := e.Recommend(context.Background(), "A", "S1", 1); len(res.Recommendations) != 1 {
		t.Errorf("limit 1 returned %d", len(res.Recommendations))
	}

	// Unknown directories and stages degrade to neutral scores.
	res, err = e.Recommend(context.Background(), "not-a-directory", "No Such Stage", 2)
	if err != nil {
		t.Fatalf("Recommend(unknown) error = %v", err)
	}
	if len(res.Recommendations) != 2 {
		t.Errorf("unknown current returned %d", len(res.Recommendations))
	}
}

func TestEngine_RecommendCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestEngine(t, nil).Recommend(ctx, "A", "S1", 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Recommend(canceled) error = %v", err)
	}
}

func TestEngine_Cache(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	ctx := context.Background()
	first, _ := e.Recommend(ctx, "A", "S1", 3)
	second, _ := e.Recommend(ctx, "A", "S1", 3)
	if first != second {
		t.Error("identical request should be served from cache")
	}
	if other, _ := e.Recommend(ctx, "A", "S2", 3); other == first {
		t.Error("different stage must not share a cache entry")
	}

	if _, err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	after, _ := e.Recommend(ctx, "A", "S1", 3)
	if after == first || after.Mode != models.ModeHybrid {
		t.Errorf("training must invalidate cached rule-based results, mode = %s", after.Mode)
	}
}

func TestEngine_TrainSynthetic(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	report, err := e.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if !report.Synthetic || report.Version != 1 {
		t.Errorf("report = %+v, want synthetic v1", report)
	}
	if report.TrainSamples+report.TestSamples != 200 {
		t.Errorf("samples = %d", report.TrainSamples+report.TestSamples)
	}

	res, err := e.Recommend(context.Background(), "A", "S1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != models.ModeHybrid || res.ModelVersion != 1 {
		t.Errorf("mode = %s version = %d, want hybrid v1", res.Mode, res.ModelVersion)
	}
	for i, r := range res.Recommendations {
		if r.LearnedScore == nil {
			t.Fatalf("recommendation %d missing learned score", i)
		}
		want := models.Clamp01(0.5*r.RuleScore + 0.5*(*r.LearnedScore))
		if math.Abs(r.Score-want) > 1e-12 {
			t.Errorf("%s score = %v, want %v", r.ResourceID, r.Score, want)
		}
		if i > 0 && r.Score > res.Recommendations[i-1].Score {
			t.Errorf("hybrid ranking not sorted at %d", i)
		}
	}

	st := e.Status()
	if st.IsTraining || !st.HasModel || st.LastOutcome != OutcomeSuccess || st.ModelVersion != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestEngine_InsufficientDataKeepsModel(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	one := []models.Interaction{
		{CurrentDirectory: "A", TargetDirectory: "B", Stage: "S1", Score: 0.5},
		{CurrentDirectory: "B", TargetDirectory: "A", Stage: "S1", Score: 0.5},
	}
	e.SetDataProvider(DataProviderFunc(func(context.Context) ([]models.Interaction, error) {
		return one, nil
	}))

	_, err := e.Train(context.Background())
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("Train() error = %v, want ErrInsufficientData", err)
	}
	if e.ModelVersion() != 0 || e.Reranker().IsTrained() {
		t.Error("failed training must not install a model")
	}
	res, err := e.Recommend(context.Background(), "A", "S1", 0)
	if err != nil || res.Mode != models.ModeRuleBased {
		t.Errorf("fallback = %v, %v", res, err)
	}
	if st := e.Status(); st.LastOutcome != OutcomeInsufficientData || st.LastError == "" {
		t.Errorf("status = %+v", st)
	}
}

func TestEngine_TrainStorageError(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	e.SetDataProvider(DataProviderFunc(func(context.Context) ([]models.Interaction, error) {
		return nil, errors.New("disk on fire")
	}))
	if _, err := e.Train(context.Background()); !errors.Is(err, models.ErrStorage) {
		t.Errorf("Train() error = %v, want ErrStorage", err)
	}
}

func TestEngine_TrainInProgress(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	e.SetDataProvider(DataProviderFunc(func(context.Context) ([]models.Interaction, error) {
		close(started)
		<-release
		return learnableInteractions(40), nil
	}))

	done := make(chan error, 1)
	go func() {
		_, err := e.Train(context.Background())
		done <- err
	}()
	<-started

	if _, err := e.Train(context.Background()); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("concurrent Train() error = %v, want ErrTrainingInProgress", err)
	}
	if !errors.Is(ErrTrainingInProgress, models.ErrConflict) {
		t.Error("ErrTrainingInProgress should be a conflict")
	}
	if !e.Status().IsTraining {
		t.Error("Status() should report a running training")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Train() error = %v", err)
	}
}

func TestEngine_PersistAndWarmStart(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.Training.ModelDir = t.TempDir()
	cfg.Training.RetainVersions = 2

	e := newTestEngine(t, cfg)
	ctx := context.Background()
	for range 3 {
		if _, err := e.Train(ctx); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
	}
	if e.ModelVersion() != 3 {
		t.Fatalf("ModelVersion() = %d, want 3", e.ModelVersion())
	}
	cps, err := e.Checkpoints(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cps) != 2 || cps[1].Version != 3 {
		t.Errorf("checkpoints = %+v, want v2 and v3", cps)
	}

	want, _ := e.Recommend(ctx, "A", "S1", 0)

	restarted := newTestEngine(t, cfg)
	v, err := restarted.WarmStart(ctx)
	if err != nil {
		t.Fatalf("WarmStart() error = %v", err)
	}
	if v != 3 {
		t.Errorf("WarmStart() version = %d, want 3", v)
	}
	got, _ := restarted.Recommend(ctx, "A", "S1", 0)
	if got.Mode != models.ModeHybrid {
		t.Fatalf("mode after warm start = %s", got.Mode)
	}
	for i := range want.Recommendations {
		if got.Recommendations[i].ResourceID != want.Recommendations[i].ResourceID ||
			got.Recommendations[i].Score != want.Recommendations[i].Score {
			t.Errorf("warm-started ranking differs at %d: %+v vs %+v", i, got.Recommendations[i], want.Recommendations[i])
		}
	}

	if _, err := restarted.Train(ctx); err != nil {
		t.Fatal(err)
	}
	if restarted.ModelVersion() != 4 {
		t.Errorf("version after warm start and train = %d, want 4", restarted.ModelVersion())
	}
}

func TestEngine_WarmStartEmpty(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.Training.ModelDir = t.TempDir()
	v, err := newTestEngine(t, cfg).WarmStart(context.Background())
	if err != nil || v != 0 {
		t.Errorf("WarmStart(empty) = %d, %v", v, err)
	}
}
