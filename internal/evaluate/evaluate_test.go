// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package evaluate

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/stage"
)

const testGraph = `{
  "directory_relationships": {
    "A": {"context_tags": ["x", "y"], "primary_connections": ["B", "C"]},
    "B": {"context_tags": ["y", "z"], "primary_connections": ["A"]},
    "C": {"context_tags": ["q"], "primary_connections": []},
    "D": {"context_tags": ["x"], "primary_connections": ["C"]}
  },
  "professional_growth_pathways": {
    "S1": {"recommended_resources": ["B"], "skill_focus": ["learning"]},
    "S2": {"recommended_resources": ["C"], "skill_focus": ["leading"]}
  }
}`

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	g, err := graph.Load(strings.NewReader(testGraph))
	if err != nil {
		t.Fatal(err)
	}
	cfg := recommend.DefaultConfig()
	cfg.Reranker.LearningRate = 0.01
	cfg.Reranker.MaxIterations = 50
	e, err := New(cfg, graph.NewHolder(g, "", zerolog.Nop()), stage.NewDefault(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func repeat(n int, it models.Interaction) []models.Interaction {
	out := make([]models.Interaction, n)
	for i := range out {
		out[i] = it
	}
	return out
}

func TestValidate_RuleBasedFallback(t *testing.T) {
	t.Parallel()

	e := newEvaluator(t)
	classified := stage.NewDefault().Classify(&models.Interaction{})

	tests := []struct {
		name      string
		target    string
		precision float64
	}{
		{"top candidate recorded", "B", 1},
		{"other candidate recorded", "C", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data := repeat(10, models.Interaction{CurrentDirectory: "A", TargetDirectory: tt.target, Stage: classified})
			r, err := e.Validate(context.Background(), data, DefaultOptions())
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if r.Mode != models.ModeRuleBased {
				t.Errorf("mode = %s, want rule_based with a single stage", r.Mode)
			}
			if r.Overall.Precision != tt.precision || r.Overall.Recall != tt.precision || r.Overall.F1 != tt.precision {
				t.Errorf("metrics = %+v, want all %v", r.Overall, tt.precision)
			}
			if r.StagePerformance[classified] != tt.precision {
				t.Errorf("stage performance = %v", r.StagePerformance)
			}
			if r.ClassifierAgreement != 1 {
				t.Errorf("classifier agreement = %v, want 1", r.ClassifierAgreement)
			}
			c := r.Configuration
			if c.TotalSamples != 10 || c.TrainSamples != 8 || c.TestSamples != 2 || c.TopK != 1 || c.RandomState != 42 {
				t.Errorf("configuration = %+v", c)
			}
		})
	}
}

func TestValidate_Hybrid(t *testing.T) {
	t.Parallel()

	e := newEvaluator(t)
	var data []models.Interaction
	for i := range 40 {
		it := models.Interaction{CurrentDirectory: "A", TargetDirectory: "B", Stage: "S1", Score: 0.9}
		if i%2 == 1 {
			it = models.Interaction{CurrentDirectory: "D", TargetDirectory: "C", Stage: "S2", Score: 0.8}
		}
		data = append(data, it)
	}

	r, err := e.Validate(context.Background(), data, Options{TestSize: 0.25, Seed: 7, TopK: 2})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if r.Mode != models.ModeHybrid {
		t.Errorf("mode = %s, want hybrid", r.Mode)
	}
	if r.Configuration.TestSamples != 10 || r.Predictions != 10 {
		t.Errorf("test samples = %d predictions = %d", r.Configuration.TestSamples, r.Predictions)
	}
	m := r.Overall
	for _, v := range []float64{m.Precision, m.Recall, m.F1, r.ClassifierAgreement} {
		if v < 0 || v > 1 {
			t.Errorf("metric %v outside [0, 1]", v)
		}
	}
	if m.Precision+m.Recall > 0 {
		want := 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		if math.Abs(m.F1-want) > 1e-12 {
			t.Errorf("F1 = %v, want harmonic mean %v", m.F1, want)
		}
	}

	again, err := e.Validate(context.Background(), data, Options{TestSize: 0.25, Seed: 7, TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	if again.Overall != r.Overall || again.Hits != r.Hits {
		t.Errorf("validation is not deterministic: %+v vs %+v", again.Overall, r.Overall)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	e := newEvaluator(t)
	data := repeat(5, models.Interaction{CurrentDirectory: "A", TargetDirectory: "B", Stage: "S1"})

	if _, err := e.Validate(context.Background(), nil, DefaultOptions()); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("Validate(empty) error = %v, want ErrInsufficientData", err)
	}
	for _, size := range []float64{0, 1, -0.5, 2} {
		if _, err := e.Validate(context.Background(), data, Options{TestSize: size, Seed: 42}); !errors.Is(err, models.ErrConfig) {
			t.Errorf("Validate(test size %v) error = %v, want ErrConfig", size, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Validate(ctx, data, DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("Validate(canceled) error = %v", err)
	}
}

func TestComputeMetrics(t *testing.T) {
	t.Parallel()

	m := computeMetrics(2, 4, 5)
	if m.Precision != 0.5 || m.Recall != 0.4 {
		t.Errorf("metrics = %+v", m)
	}
	if want := 2 * 0.5 * 0.4 / 0.9; math.Abs(m.F1-want) > 1e-12 {
		t.Errorf("F1 = %v, want %v", m.F1, want)
	}
	if z := computeMetrics(0, 0, 0); z != (Metrics{}) {
		t.Errorf("zero metrics = %+v", z)
	}
}
