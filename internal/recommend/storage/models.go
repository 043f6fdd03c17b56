// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package storage persists trained re-ranker checkpoints.
//
// Each checkpoint is one file named {name}_v{version}.gob.gz holding the
// metadata and a gzip-compressed gob of the model state. A SHA-256 checksum
// of the uncompressed state is verified on load. Versions increase
// monotonically per name; Prune keeps the newest N.
//
// All Store methods are safe for concurrent use.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend/algorithms"
)

const fileSuffix = ".gob.gz"

// ModelMetadata describes a stored checkpoint.
type ModelMetadata struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	// TrainSamples and TestSamples are the split sizes used in training.
	TrainSamples int  `json:"train_samples"`
	TestSamples  int  `json:"test_samples"`
	Synthetic    bool `json:"synthetic"`

	MSE float64 `json:"mse"`
	R2  float64 `json:"r2"`

	// Checksum is the SHA-256 of the uncompressed model state.
	Checksum  string `json:"checksum"`
	SizeBytes int64  `json:"size_bytes"`

	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// RerankerState is the serializable state of a trained re-ranker.
type RerankerState struct {
	CurrentVocabulary []string
	TargetVocabulary  []string
	StageVocabulary   []string
	Mean              []float64
	Std               []float64
	Network           algorithms.MLPState
}

// storedFile is the on-disk format of a checkpoint.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// Store manages checkpoints under one directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex
	now     func() time.Time

	// versions tracks the latest version per model name.
	versions map[string]int
}

// NewStore opens a store at baseDir, creating it when missing.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, models.StorageError("open model store", err)
	}
	s := &Store{
		baseDir:  baseDir,
		now:      time.Now,
		versions: make(map[string]int),
	}
	all, err := s.scan()
	if err != nil {
		return nil, models.StorageError("scan model store", err)
	}
	for name, vs := range all {
		s.versions[name] = slices.Max(vs)
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.baseDir
}

// scan lists every version on disk, grouped by model name.
func (s *Store) scan() (map[string][]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := parseModelFilename(entry.Name())
		if !ok {
			continue
		}
		out[name] = append(out[name], version)
	}
	return out, nil
}

// parseModelFilename splits "reranker_v3.gob.gz" into ("reranker", 3).
func parseModelFilename(file string) (name string, version int, ok bool) {
	base, found := strings.CutSuffix(file, fileSuffix)
	if !found {
		return "", 0, false
	}
	i := strings.LastIndex(base, "_v")
	if i <= 0 {
		return "", 0, false
	}
	v, err := strconv.Atoi(base[i+2:])
	if err != nil || v <= 0 {
		return "", 0, false
	}
	return base[:i], v, true
}

// NextVersion returns the version a new checkpoint of name should use.
func (s *Store) NextVersion(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[name] + 1
}

// Save writes state as version of name. The file is written to a
// temporary name and renamed into place.
//
//nolint:gocritic // meta passed by value is filled in and stored
func (s *Store) Save(ctx context.Context, name string, version int, state any, meta ModelMetadata) (ModelMetadata, error) {
	const op = "save model"
	if err := ctx.Err(); err != nil {
		return meta, models.StorageError(op, err)
	}
	if version <= 0 {
		return meta, models.ValidationError(op, "version must be positive, got %d", version)
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(state); err != nil {
		return meta, models.StorageError(op, fmt.Errorf("encode model: %w", err))
	}
	sum := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return meta, models.StorageError(op, fmt.Errorf("compress model: %w", err))
	}
	if err := gzw.Close(); err != nil {
		return meta, models.StorageError(op, fmt.Errorf("finalize compression: %w", err))
	}

	meta.Name = name
	meta.Version = version
	meta.Checksum = hex.EncodeToString(sum[:])
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.modelPath(name, version)
	tmp, err := os.CreateTemp(s.baseDir, ".tmp-"+name+"-*")
	if err != nil {
		return meta, models.StorageError(op, fmt.Errorf("create model file: %w", err))
	}
	tmpName := tmp.Name()
	encErr := gob.NewEncoder(tmp).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()})
	closeErr := tmp.Close()
	if encErr != nil || closeErr != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		if encErr == nil {
			encErr = closeErr
		}
		return meta, models.StorageError(op, fmt.Errorf("write model file: %w", encErr))
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return meta, models.StorageError(op, fmt.Errorf("install model file: %w", err))
	}

	if version > s.versions[name] {
		s.versions[name] = version
	}
	return meta, nil
}

// Load decodes version of name into target. Version 0 loads the latest.
// A missing model is a NotFoundError; a corrupt file is a StorageError.
func (s *Store) Load(ctx context.Context, name string, version int, target any) (*ModelMetadata, error) {
	const op = "load model"
	if err := ctx.Err(); err != nil {
		return nil, models.StorageError(op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		v, ok := s.versions[name]
		if !ok {
			return nil, models.NotFoundError(op, "no model stored for %s", name)
		}
		version = v
	}

	sf, err := readStoredFile(s.modelPath(name, version))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NotFoundError(op, "%s v%d does not exist", name, version)
		}
		return nil, models.StorageError(op, err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, models.StorageError(op, fmt.Errorf("decompress model: %w", err))
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // read-only

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, models.StorageError(op, fmt.Errorf("read decompressed data: %w", err))
	}
	sum := sha256.Sum256(raw)
	if got := hex.EncodeToString(sum[:]); got != sf.Metadata.Checksum {
		return nil, models.StorageError(op, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, got))
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, models.StorageError(op, fmt.Errorf("decode model: %w", err))
	}
	return &sf.Metadata, nil
}

func readStoredFile(path string) (*storedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the store directory
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return &sf, nil
}

// LatestVersion returns the newest version of name.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[name]
	return v, ok
}

// List returns the metadata of every stored version of name, oldest first.
// Unreadable files are skipped.
func (s *Store) List(ctx context.Context, name string) ([]ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.StorageError("list models", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.scan()
	if err != nil {
		return nil, models.StorageError("list models", err)
	}
	versions := all[name]
	slices.Sort(versions)

	out := make([]ModelMetadata, 0, len(versions))
	for _, v := range versions {
		sf, err := readStoredFile(s.modelPath(name, v))
		if err != nil {
			continue
		}
		out = append(out, sf.Metadata)
	}
	return out, nil
}

// Prune deletes all but the newest keep versions of name and returns how
// many files it removed. keep < 1 is treated as 1.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, models.StorageError("prune models", err)
	}
	keep = max(keep, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.scan()
	if err != nil {
		return 0, models.StorageError("prune models", err)
	}
	versions := all[name]
	slices.Sort(versions)
	slices.Reverse(versions)

	removed := 0
	for _, v := range versions[min(keep, len(versions)):] {
		if err := os.Remove(s.modelPath(name, v)); err != nil && !os.IsNotExist(err) {
			return removed, models.StorageError("prune models", err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) modelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, fileSuffix))
}
