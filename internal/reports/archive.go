// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package reports archives validation, training and stage detection reports
// in BadgerDB.
//
// Keys sort chronologically within a kind:
//
//	report:{kind}:{unix_nano, zero padded}:{id}
//
// so the newest report of a kind is the last key under its prefix. Reports
// expire after the configured retention via Badger's native TTL.
package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/models"
)

// Report kinds.
const (
	KindValidation = "validation"
	KindTraining   = "training"
	KindStages     = "stages"
)

const keyPrefix = "report:"

// ErrClosed is returned after Close.
var ErrClosed = errors.New("report archive is closed")

// Kinds returns the known report kinds.
func Kinds() []string {
	return []string{KindValidation, KindTraining, KindStages}
}

// ValidKind reports whether kind is a known report kind.
func ValidKind(kind string) bool {
	switch kind {
	case KindValidation, KindTraining, KindStages:
		return true
	}
	return false
}

// Entry is one archived report.
type Entry struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
	Report    json.RawMessage `json:"report"`
}

// Config configures the archive.
type Config struct {
	// Path is the Badger directory. Empty keeps the archive in memory.
	Path string

	// Retention expires reports after this long (0 keeps them forever).
	Retention time.Duration
}

// Archive stores reports. It is safe for concurrent use.
type Archive struct {
	db        *badger.DB
	retention time.Duration
	inMemory  bool
	logger    zerolog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the archive.
func Open(cfg Config, logger zerolog.Logger) (*Archive, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	// Badger's own logger is too chatty for a side store.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, models.StorageError("open report archive", err)
	}

	logger = logger.With().Str("component", "reports").Logger()
	logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.Path == "").
		Dur("retention", cfg.Retention).
		Msg("report archive opened")

	return &Archive{
		db:        db,
		retention: cfg.Retention,
		inMemory:  cfg.Path == "",
		logger:    logger,
		now:       time.Now,
	}, nil
}

func kindPrefix(kind string) []byte {
	return []byte(keyPrefix + kind + ":")
}

func entryKey(kind string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", keyPrefix, kind, at.UnixNano(), id))
}

func (a *Archive) checkOpen() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	return nil
}

// Put archives report under kind and returns the stored entry.
func (a *Archive) Put(ctx context.Context, kind string, report any) (Entry, error) {
	const op = "archive report"
	if !ValidKind(kind) {
		return Entry{}, models.ValidationError(op, "unknown report kind %q", kind)
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	if err := a.checkOpen(); err != nil {
		return Entry{}, models.StorageError(op, err)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return Entry{}, models.ValidationError(op, "encode report: %v", err)
	}
	entry := Entry{
		ID:        uuid.New().String(),
		Kind:      kind,
		CreatedAt: a.now().UTC(),
		Report:    payload,
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return Entry{}, models.StorageError(op, err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(entryKey(kind, entry.CreatedAt, entry.ID), data)
		if a.retention > 0 {
			e = e.WithTTL(a.retention)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return Entry{}, models.StorageError(op, err)
	}

	a.logger.Debug().Str("kind", kind).Str("id", entry.ID).Msg("report archived")
	return entry, nil
}

// Latest returns the newest report of kind, or a NotFoundError.
func (a *Archive) Latest(ctx context.Context, kind string) (Entry, error) {
	entries, err := a.List(ctx, kind, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, models.NotFoundError("latest report", "no %s report archived", kind)
	}
	return entries[0], nil
}

// List returns up to limit reports of kind, newest first. limit <= 0
// returns all of them.
func (a *Archive) List(ctx context.Context, kind string, limit int) ([]Entry, error) {
	const op = "list reports"
	if !ValidKind(kind) {
		return nil, models.ValidationError(op, "unknown report kind %q", kind)
	}
	if err := a.checkOpen(); err != nil {
		return nil, models.StorageError(op, err)
	}

	var out []Entry
	err := a.db.View(func(txn *badger.Txn) error {
		prefix := kindPrefix(kind)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the greatest key not above the seek key.
		seek := append(append([]byte(nil), prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				a.logger.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("skipping unreadable report")
				continue
			}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, models.StorageError(op, err)
	}
	return out, nil
}

// RunGC reclaims value log space. It is a no-op for in-memory archives.
func (a *Archive) RunGC() {
	if a.inMemory || a.checkOpen() != nil {
		return
	}
	for {
		if err := a.db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				a.logger.Debug().Err(err).Msg("report archive GC stopped")
			}
			return
		}
	}
}

// Close closes the archive. Further calls fail with ErrClosed.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.db.Close()
}
