// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend/algorithms"
)

func testState() RerankerState {
	return RerankerState{
		CurrentVocabulary: []string{"A", "B"},
		TargetVocabulary:  []string{"B", "C"},
		StageVocabulary:   []string{"S1"},
		Mean:              []float64{0.25, 0.25, 0},
		Std:               []float64{0.25, 0.25, 1},
		Network: algorithms.MLPState{
			Inputs: 3,
			Layers: []algorithms.Layer{{W: [][]float64{{0.1, 0.2, 0.3}}, B: []float64{0.05}}},
		},
	}
}

func TestParseModelFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file    string
		name    string
		version int
		ok      bool
	}{
		{"reranker_v3.gob.gz", "reranker", 3, true},
		{"my_model_v12.gob.gz", "my_model", 12, true},
		{"reranker_v0.gob.gz", "", 0, false},
		{"reranker_vx.gob.gz", "", 0, false},
		{"reranker_v1.gob", "", 0, false},
		{"_v1.gob.gz", "", 0, false},
		{"notes.txt", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			t.Parallel()
			name, v, ok := parseModelFilename(tt.file)
			if name != tt.name || v != tt.version || ok != tt.ok {
				t.Errorf("parseModelFilename(%q) = %q, %d, %v", tt.file, name, v, ok)
			}
		})
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "models"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if v := store.NextVersion("reranker"); v != 1 {
		t.Errorf("NextVersion on empty store = %d, want 1", v)
	}

	meta, err := store.Save(ctx, "reranker", 1, testState(), ModelMetadata{TrainSamples: 8, TestSamples: 2, MSE: 0.02})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if meta.Checksum == "" || meta.SizeBytes == 0 || meta.SavedAt.IsZero() {
		t.Errorf("Save() metadata not filled in: %+v", meta)
	}

	var loaded RerankerState
	got, err := store.Load(ctx, "reranker", 0, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Version != 1 || got.TrainSamples != 8 || got.MSE != 0.02 {
		t.Errorf("loaded metadata = %+v", got)
	}
	if loaded.Network.Inputs != 3 || loaded.Network.Layers[0].W[0][2] != 0.3 {
		t.Errorf("loaded state = %+v", loaded)
	}
	if len(loaded.StageVocabulary) != 1 || loaded.StageVocabulary[0] != "S1" {
		t.Errorf("stage vocabulary = %v", loaded.StageVocabulary)
	}
}

func TestStore_ScanOnOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	for v := 1; v <= 3; v++ {
		if _, err := store.Save(ctx, "reranker", v, testState(), ModelMetadata{}); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := reopened.LatestVersion("reranker"); !ok || v != 3 {
		t.Errorf("LatestVersion() = %d, %v, want 3", v, ok)
	}
	if v := reopened.NextVersion("reranker"); v != 4 {
		t.Errorf("NextVersion() = %d, want 4", v)
	}
}

func TestStore_Prune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for v := 1; v <= 5; v++ {
		if _, err := store.Save(ctx, "reranker", v, testState(), ModelMetadata{TrainedAt: time.Unix(int64(v), 0)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.Save(ctx, "other", 1, testState(), ModelMetadata{}); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Prune(ctx, "reranker", 2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune() removed %d, want 3", removed)
	}

	list, err := store.List(ctx, "reranker")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Version != 4 || list[1].Version != 5 {
		t.Errorf("List() after prune = %+v", list)
	}
	if others, _ := store.List(ctx, "other"); len(others) != 1 {
		t.Error("Prune must not touch other models")
	}
}

func TestStore_LoadErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	var st RerankerState
	if _, err := store.Load(ctx, "reranker", 0, &st); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}

	if _, err := store.Save(ctx, "reranker", 1, testState(), ModelMetadata{}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "reranker_v1.gob.gz"), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, "reranker", 1, &st); !errors.Is(err, models.ErrStorage) {
		t.Errorf("Load(corrupt) error = %v, want ErrStorage", err)
	}

	if _, err := store.Save(ctx, "reranker", 0, testState(), ModelMetadata{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Save(v0) error = %v, want ErrValidation", err)
	}
}
