// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"math"
	"slices"

	"github.com/tomtom215/wayfinder/internal/models"
)

// unknownEncoding is the feature value of a value outside the vocabulary.
const unknownEncoding = 0.5

// featureCount is the width of an encoded sample.
const featureCount = 3

// Vocabulary maps the distinct values of one categorical feature to
// index/count in [0, 1).
type Vocabulary struct {
	Values []string
	index  map[string]int
}

// NewVocabulary builds a sorted vocabulary of the distinct values.
func NewVocabulary(values []string) Vocabulary {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return restoreVocabulary(sorted)
}

func restoreVocabulary(sorted []string) Vocabulary {
	v := Vocabulary{Values: sorted, index: make(map[string]int, len(sorted))}
	for i, s := range sorted {
		v.index[s] = i
	}
	return v
}

// Encode returns the normalized index of s, or 0.5 when s is unknown.
func (v Vocabulary) Encode(s string) float64 {
	i, ok := v.index[s]
	if !ok || len(v.Values) == 0 {
		return unknownEncoding
	}
	return float64(i) / float64(len(v.Values))
}

// Len returns the number of known values.
func (v Vocabulary) Len() int {
	return len(v.Values)
}

// Encoder turns (current, target, stage) triples into feature vectors.
type Encoder struct {
	Current Vocabulary
	Target  Vocabulary
	Stage   Vocabulary
}

// NewEncoder fits the vocabularies on the training interactions.
func NewEncoder(training []models.Interaction) *Encoder {
	current := make([]string, len(training))
	target := make([]string, len(training))
	stage := make([]string, len(training))
	for i := range training {
		current[i] = training[i].CurrentDirectory
		target[i] = training[i].TargetDirectory
		stage[i] = training[i].Stage
	}
	return &Encoder{
		Current: NewVocabulary(current),
		Target:  NewVocabulary(target),
		Stage:   NewVocabulary(stage),
	}
}

// Encode returns the raw feature vector of a triple.
func (e *Encoder) Encode(current, target, stage string) []float64 {
	return []float64{
		e.Current.Encode(current),
		e.Target.Encode(target),
		e.Stage.Encode(stage),
	}
}

// EncodeAll encodes interactions and returns features and targets.
func (e *Encoder) EncodeAll(interactions []models.Interaction) (x [][]float64, y []float64) {
	x = make([][]float64, len(interactions))
	y = make([]float64, len(interactions))
	for i := range interactions {
		it := &interactions[i]
		x[i] = e.Encode(it.CurrentDirectory, it.TargetDirectory, it.Stage)
		y[i] = models.Clamp01(it.Score)
	}
	return x, y
}

// Scaler standardizes features to zero mean and unit variance.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler computes per-column mean and population standard deviation.
// A constant column gets std 1 so it maps to 0.
func FitScaler(x [][]float64) (*Scaler, error) {
	if len(x) == 0 {
		return nil, models.InsufficientDataError("fit scaler", "no samples")
	}
	width := len(x[0])
	s := &Scaler{Mean: make([]float64, width), Std: make([]float64, width)}
	for _, row := range x {
		if len(row) != width {
			return nil, models.ValidationError("fit scaler", "ragged input: width %d, want %d", len(row), width)
		}
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	n := float64(len(x))
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range x {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s, nil
}

// IsFit reports whether the scaler has statistics.
func (s *Scaler) IsFit() bool {
	return s != nil && len(s.Mean) > 0 && len(s.Mean) == len(s.Std)
}

// Transform returns a standardized copy of row.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if !s.IsFit() {
		return nil, models.StateError("scale features", "scaler is not fit")
	}
	if len(row) != len(s.Mean) {
		return nil, models.ValidationError("scale features", "width %d, want %d", len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

// TransformAll standardizes every row.
func (s *Scaler) TransformAll(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		t, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
