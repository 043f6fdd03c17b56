// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package algorithms holds the numeric models behind the learned re-ranker.
//
// MLP is a small fully connected regressor: ReLU hidden layers, a sigmoid
// output unit and the Adam optimizer over mini-batches. Training stops at
// MaxIterations epochs or when the validation loss has not improved by at
// least MinDelta for Patience consecutive epochs, and the best weights seen
// are restored.
//
// Models are deterministic for a given seed and input order.
package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/tomtom215/wayfinder/internal/models"
)

// MLPConfig contains hyperparameters for the regressor.
type MLPConfig struct {
	// HiddenLayers lists the width of each hidden layer.
	HiddenLayers []int

	// LearningRate is the initial Adam step size.
	LearningRate float64

	// LearningRateDecay multiplies the step size every DecaySteps optimizer steps.
	LearningRateDecay float64
	DecaySteps        int

	// BatchSize is the mini-batch size.
	BatchSize int

	// MaxIterations bounds the number of epochs.
	MaxIterations int

	// Patience is the number of epochs without improvement before stopping.
	Patience int

	// MinDelta is the smallest loss decrease counted as an improvement.
	MinDelta float64

	// Adam moment decay rates and numerical epsilon.
	Beta1   float64
	Beta2   float64
	Epsilon float64

	// Seed drives weight initialization and batch shuffling.
	Seed int64
}

// DefaultMLPConfig returns the re-ranker defaults.
func DefaultMLPConfig() MLPConfig {
	return MLPConfig{
		HiddenLayers:      []int{10, 5},
		LearningRate:      0.001,
		LearningRateDecay: 0.95,
		DecaySteps:        100,
		BatchSize:         32,
		MaxIterations:     1000,
		Patience:          10,
		MinDelta:          1e-4,
		Beta1:             0.9,
		Beta2:             0.999,
		Epsilon:           1e-8,
		Seed:              42,
	}
}

// Validate checks the hyperparameters.
func (c *MLPConfig) Validate() error {
	const op = "mlp config"
	for i, w := range c.HiddenLayers {
		if w <= 0 {
			return models.ConfigError(op, "hidden layer %d width must be positive, got %d", i, w)
		}
	}
	switch {
	case c.LearningRate <= 0:
		return models.ConfigError(op, "learning rate must be positive")
	case c.LearningRateDecay <= 0 || c.LearningRateDecay > 1:
		return models.ConfigError(op, "learning rate decay must be in (0, 1]")
	case c.DecaySteps <= 0:
		return models.ConfigError(op, "decay steps must be positive")
	case c.BatchSize <= 0:
		return models.ConfigError(op, "batch size must be positive")
	case c.MaxIterations <= 0:
		return models.ConfigError(op, "max iterations must be positive")
	case c.Patience <= 0:
		return models.ConfigError(op, "patience must be positive")
	case c.MinDelta < 0:
		return models.ConfigError(op, "min delta must be non-negative")
	}
	return nil
}

// Layer is one dense layer. W is indexed [output][input].
type Layer struct {
	W [][]float64
	B []float64
}

func (l Layer) clone() Layer {
	w := make([][]float64, len(l.W))
	for i := range l.W {
		w[i] = slices.Clone(l.W[i])
	}
	return Layer{W: w, B: slices.Clone(l.B)}
}

// MLPState is the serializable form of a trained MLP.
type MLPState struct {
	Inputs int
	Layers []Layer
}

// FitResult summarizes a training run.
type FitResult struct {
	Epochs            int
	BestEpoch         int
	BestLoss          float64
	FinalTrainLoss    float64
	FinalLearningRate float64
	Steps             int
}

// MLP is a multi-layer perceptron regressor with outputs in (0, 1).
// Predict is safe for concurrent use; Fit takes an exclusive lock.
type MLP struct {
	cfg    MLPConfig
	inputs int
	layers []Layer

	mu sync.RWMutex
}

// NewMLP creates an untrained regressor.
func NewMLP(cfg MLPConfig) (*MLP, error) {
	def := DefaultMLPConfig()
	if cfg.Beta1 == 0 {
		cfg.Beta1 = def.Beta1
	}
	if cfg.Beta2 == 0 {
		cfg.Beta2 = def.Beta2
	}
	if cfg.Epsilon == 0 {
		cfg.Epsilon = def.Epsilon
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.HiddenLayers = slices.Clone(cfg.HiddenLayers)
	return &MLP{cfg: cfg}, nil
}

// RestoreMLP rebuilds a trained regressor from its state.
func RestoreMLP(state MLPState) (*MLP, error) {
	if state.Inputs <= 0 || len(state.Layers) == 0 {
		return nil, models.StateError("restore mlp", "state has no layers")
	}
	in := state.Inputs
	layers := make([]Layer, len(state.Layers))
	for i, l := range state.Layers {
		if len(l.W) == 0 || len(l.W) != len(l.B) {
			return nil, models.StateError("restore mlp", "layer %d is malformed", i)
		}
		for _, row := range l.W {
			if len(row) != in {
				return nil, models.StateError("restore mlp", "layer %d expects %d inputs", i, in)
			}
		}
		in = len(l.W)
		layers[i] = l.clone()
	}
	if in != 1 {
		return nil, models.StateError("restore mlp", "output layer must have one unit, got %d", in)
	}
	return &MLP{cfg: DefaultMLPConfig(), inputs: state.Inputs, layers: layers}, nil
}

// State returns a deep copy of the trained weights.
func (m *MLP) State() MLPState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MLPState{Inputs: m.inputs, Layers: cloneLayers(m.layers)}
}

// IsTrained reports whether Fit has completed or the model was restored.
func (m *MLP) IsTrained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers) > 0
}

// Predict returns the regressor output for x.
func (m *MLP) Predict(x []float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.layers) == 0 {
		return 0, models.StateError("mlp predict", "model is not trained")
	}
	if len(x) != m.inputs {
		return 0, models.ValidationError("mlp predict", "expected %d features, got %d", m.inputs, len(x))
	}
	acts, _ := forward(m.layers, x)
	return acts[len(acts)-1][0], nil
}

// Fit trains on (trainX, trainY) and stops early on the loss over
// (valX, valY). With no validation rows the training loss is monitored.
// Context cancellation is checked at epoch boundaries.
func (m *MLP) Fit(ctx context.Context, trainX [][]float64, trainY []float64, valX [][]float64, valY []float64) (FitResult, error) {
	const op = "mlp fit"

	if len(trainX) == 0 || len(trainX) != len(trainY) {
		return FitResult{}, models.InsufficientDataError(op, "need matching non-empty training rows, got %d/%d", len(trainX), len(trainY))
	}
	if len(valX) != len(valY) {
		return FitResult{}, models.ValidationError(op, "validation rows %d and targets %d differ", len(valX), len(valY))
	}
	inputs := len(trainX[0])
	if inputs == 0 {
		return FitResult{}, models.ValidationError(op, "rows have no features")
	}
	for _, rows := range [][][]float64{trainX, valX} {
		for i, row := range rows {
			if len(row) != inputs {
				return FitResult{}, models.ValidationError(op, "row %d has %d features, want %d", i, len(row), inputs)
			}
		}
	}
	if len(valX) == 0 {
		valX, valY = trainX, trainY
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	//nolint:gosec // G404: math/rand is acceptable for ML initialization (not security)
	rng := rand.New(rand.NewSource(m.cfg.Seed))
	layers := initLayers(rng, inputs, m.cfg.HiddenLayers)
	opt := newAdam(layers, m.cfg)

	best := cloneLayers(layers)
	result := FitResult{BestLoss: math.Inf(1), FinalLearningRate: m.cfg.LearningRate}
	stale := 0
	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= m.cfg.MaxIterations; epoch++ {
		if err := ctx.Err(); err != nil {
			return FitResult{}, err
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for start := 0; start < len(order); start += m.cfg.BatchSize {
			end := min(start+m.cfg.BatchSize, len(order))
			grads := batchGradients(layers, trainX, trainY, order[start:end])
			opt.step(layers, grads)
		}

		result.Epochs = epoch
		loss := meanSquaredError(layers, valX, valY)
		if loss < result.BestLoss-m.cfg.MinDelta {
			result.BestLoss = loss
			result.BestEpoch = epoch
			best = cloneLayers(layers)
			stale = 0
		} else {
			stale++
			if stale >= m.cfg.Patience {
				break
			}
		}
	}

	m.layers = best
	m.inputs = inputs
	result.FinalTrainLoss = meanSquaredError(best, trainX, trainY)
	result.FinalLearningRate = opt.learningRate()
	result.Steps = opt.t
	return result, nil
}

func initLayers(rng *rand.Rand, inputs int, hidden []int) []Layer {
	widths := append(slices.Clone(hidden), 1)
	layers := make([]Layer, len(widths))
	in := inputs
	for li, out := range widths {
		// He initialization for ReLU layers.
		scale := math.Sqrt(2.0 / float64(in))
		w := make([][]float64, out)
		for o := range w {
			w[o] = make([]float64, in)
			for i := range w[o] {
				w[o][i] = rng.NormFloat64() * scale
			}
		}
		layers[li] = Layer{W: w, B: make([]float64, out)}
		in = out
	}
	return layers
}

func cloneLayers(layers []Layer) []Layer {
	out := make([]Layer, len(layers))
	for i, l := range layers {
		out[i] = l.clone()
	}
	return out
}

// forward returns the activations of every layer (acts[0] is the input) and
// the pre-activations of every layer.
func forward(layers []Layer, x []float64) (acts, zs [][]float64) {
	acts = make([][]float64, len(layers)+1)
	zs = make([][]float64, len(layers))
	acts[0] = x
	last := len(layers) - 1
	for li, l := range layers {
		z := make([]float64, len(l.W))
		a := make([]float64, len(l.W))
		for o, row := range l.W {
			sum := l.B[o]
			for i, w := range row {
				sum += w * acts[li][i]
			}
			z[o] = sum
			if li == last {
				a[o] = sigmoid(sum)
			} else {
				a[o] = max(sum, 0)
			}
		}
		zs[li] = z
		acts[li+1] = a
	}
	return acts, zs
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// batchGradients averages the squared-error gradients over the rows in idx.
func batchGradients(layers []Layer, X [][]float64, Y []float64, idx []int) []Layer {
	grads := zeroLike(layers)
	last := len(layers) - 1
	n := float64(len(idx))

	for _, r := range idx {
		acts, zs := forward(layers, X[r])
		yhat := acts[len(acts)-1][0]

		// d(0.5*(yhat-y)^2)/dz through the sigmoid.
		delta := []float64{(yhat - Y[r]) * yhat * (1 - yhat)}

		for li := last; li >= 0; li-- {
			in := acts[li]
			for o := range delta {
				grads[li].B[o] += delta[o] / n
				for i := range in {
					grads[li].W[o][i] += delta[o] * in[i] / n
				}
			}
			if li == 0 {
				break
			}
			prev := make([]float64, len(in))
			for i := range prev {
				if zs[li-1][i] <= 0 {
					continue
				}
				var sum float64
				for o := range delta {
					sum += layers[li].W[o][i] * delta[o]
				}
				prev[i] = sum
			}
			delta = prev
		}
	}
	return grads
}

func zeroLike(layers []Layer) []Layer {
	out := make([]Layer, len(layers))
	for i, l := range layers {
		w := make([][]float64, len(l.W))
		for o := range w {
			w[o] = make([]float64, len(l.W[o]))
		}
		out[i] = Layer{W: w, B: make([]float64, len(l.B))}
	}
	return out
}

func meanSquaredError(layers []Layer, X [][]float64, Y []float64) float64 {
	if len(X) == 0 {
		return 0
	}
	var sum float64
	for i, x := range X {
		acts, _ := forward(layers, x)
		d := acts[len(acts)-1][0] - Y[i]
		sum += d * d
	}
	return sum / float64(len(X))
}

// adam holds first and second moment estimates per parameter.
type adam struct {
	cfg MLPConfig
	m   []Layer
	v   []Layer
	t   int
}

func newAdam(layers []Layer, cfg MLPConfig) *adam {
	return &adam{cfg: cfg, m: zeroLike(layers), v: zeroLike(layers)}
}

// learningRate returns the decayed step size for the current step count.
func (a *adam) learningRate() float64 {
	return a.cfg.LearningRate * math.Pow(a.cfg.LearningRateDecay, float64(a.t/a.cfg.DecaySteps))
}

func (a *adam) step(layers, grads []Layer) {
	lr := a.learningRate()
	a.t++
	b1, b2 := a.cfg.Beta1, a.cfg.Beta2
	c1 := 1 - math.Pow(b1, float64(a.t))
	c2 := 1 - math.Pow(b2, float64(a.t))

	update := func(p, g, m, v *float64) {
		grad := *g
		*m = b1*(*m) + (1-b1)*grad
		*v = b2*(*v) + (1-b2)*grad*grad
		mHat := *m / c1
		vHat := *v / c2
		*p -= lr * mHat / (math.Sqrt(vHat) + a.cfg.Epsilon)
	}

	for li := range layers {
		for o := range layers[li].W {
			for i := range layers[li].W[o] {
				update(&layers[li].W[o][i], &grads[li].W[o][i], &a.m[li].W[o][i], &a.v[li].W[o][i])
			}
			update(&layers[li].B[o], &grads[li].B[o], &a.m[li].B[o], &a.v[li].B[o])
		}
	}
}

// String describes the architecture.
func (m *MLP) String() string {
	return fmt.Sprintf("MLP(hidden=%v, relu, sigmoid, adam)", m.cfg.HiddenLayers)
}
