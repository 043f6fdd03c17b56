// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package algorithms

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/tomtom215/wayfinder/internal/models"
)

// linearData returns rows whose target is a smooth function of the inputs.
func linearData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	Y := make([]float64, n)
	for i := range X {
		a, b := rng.Float64()*2-1, rng.Float64()*2-1
		X[i] = []float64{a, b}
		Y[i] = 0.2 + 0.3*(a+1)/2 + 0.4*(b+1)/2
	}
	return X, Y
}

func testConfig() MLPConfig {
	cfg := DefaultMLPConfig()
	cfg.LearningRate = 0.01
	cfg.MaxIterations = 200
	return cfg
}

func TestMLPFitReducesLoss(t *testing.T) {
	t.Parallel()

	X, Y := linearData(200, 1)
	vX, vY := linearData(50, 2)

	m, err := NewMLP(testConfig())
	if err != nil {
		t.Fatalf("NewMLP: %v", err)
	}

	var baseline float64
	for _, y := range vY {
		baseline += (y - 0.5) * (y - 0.5)
	}
	baseline /= float64(len(vY))

	res, err := m.Fit(context.Background(), X, Y, vX, vY)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Epochs == 0 || res.BestEpoch == 0 || res.BestEpoch > res.Epochs {
		t.Errorf("epochs = %d, best = %d", res.Epochs, res.BestEpoch)
	}
	if res.BestLoss >= baseline {
		t.Errorf("best loss %v not below constant-prediction baseline %v", res.BestLoss, baseline)
	}
	if res.FinalLearningRate > 0.01 {
		t.Errorf("learning rate should only decay, got %v", res.FinalLearningRate)
	}

	for _, x := range vX {
		p, err := m.Predict(x)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if p <= 0 || p >= 1 || math.IsNaN(p) {
			t.Fatalf("prediction %v outside (0, 1)", p)
		}
	}
}

func TestMLPDeterministic(t *testing.T) {
	t.Parallel()

	X, Y := linearData(64, 3)
	cfg := testConfig()
	cfg.MaxIterations = 20

	a, _ := NewMLP(cfg)
	b, _ := NewMLP(cfg)
	if _, err := a.Fit(context.Background(), X, Y, nil, nil); err != nil {
		t.Fatalf("Fit a: %v", err)
	}
	if _, err := b.Fit(context.Background(), X, Y, nil, nil); err != nil {
		t.Fatalf("Fit b: %v", err)
	}
	pa, _ := a.Predict([]float64{0.1, -0.2})
	pb, _ := b.Predict([]float64{0.1, -0.2})
	if pa != pb {
		t.Errorf("same seed and data gave %v and %v", pa, pb)
	}
}

func TestMLPEarlyStopping(t *testing.T) {
	t.Parallel()

	// A constant target is learned quickly, after which the loss plateaus.
	X := make([][]float64, 40)
	Y := make([]float64, 40)
	for i := range X {
		X[i] = []float64{float64(i) / 40}
		Y[i] = 0.5
	}
	cfg := testConfig()
	cfg.MaxIterations = 1000
	cfg.Patience = 3
	cfg.MinDelta = 1e-3

	m, _ := NewMLP(cfg)
	res, err := m.Fit(context.Background(), X, Y, nil, nil)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Epochs >= cfg.MaxIterations {
		t.Errorf("expected early stop, ran %d epochs", res.Epochs)
	}
	if res.Epochs-res.BestEpoch != cfg.Patience {
		t.Errorf("stopped %d epochs after best, want %d", res.Epochs-res.BestEpoch, cfg.Patience)
	}
}

func TestMLPStateRoundTrip(t *testing.T) {
	t.Parallel()

	X, Y := linearData(32, 4)
	cfg := testConfig()
	cfg.MaxIterations = 5
	m, _ := NewMLP(cfg)
	if _, err := m.Fit(context.Background(), X, Y, nil, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	restored, err := RestoreMLP(m.State())
	if err != nil {
		t.Fatalf("RestoreMLP: %v", err)
	}
	for _, x := range X[:5] {
		want, _ := m.Predict(x)
		got, _ := restored.Predict(x)
		if got != want {
			t.Errorf("restored prediction %v, want %v", got, want)
		}
	}
}

func TestMLPErrors(t *testing.T) {
	t.Parallel()

	m, _ := NewMLP(testConfig())
	if _, err := m.Predict([]float64{1, 2}); !errors.Is(err, models.ErrState) {
		t.Errorf("untrained Predict err = %v, want ErrState", err)
	}
	if _, err := m.Fit(context.Background(), nil, nil, nil, nil); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("empty Fit err = %v, want ErrInsufficientData", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	X, Y := linearData(8, 5)
	if _, err := m.Fit(ctx, X, Y, nil, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled Fit err = %v", err)
	}
	if m.IsTrained() {
		t.Error("canceled Fit must not install weights")
	}

	if _, err := RestoreMLP(MLPState{}); !errors.Is(err, models.ErrState) {
		t.Errorf("RestoreMLP(empty) err = %v", err)
	}

	bad := testConfig()
	bad.HiddenLayers = []int{0}
	if _, err := NewMLP(bad); !errors.Is(err, models.ErrConfig) {
		t.Errorf("NewMLP(bad) err = %v, want ErrConfig", err)
	}
}
