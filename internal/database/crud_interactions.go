// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package database

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"math"
	"reflect"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/wayfinder/internal/database/query"
	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/validation"
)

// RecordInput is one interaction as submitted by a client.
type RecordInput struct {
	UserIdentifier   string         `json:"user_identifier" validate:"required,max=512"`
	CurrentDirectory string         `json:"current_directory" validate:"required,resourceid"`
	TargetDirectory  string         `json:"target_directory" validate:"required,resourceid"`
	Stage            string         `json:"professional_stage" validate:"required,max=128"`
	Type             string         `json:"interaction_type,omitempty" validate:"omitempty,max=64"`
	Duration         float64        `json:"interaction_duration" validate:"gte=0"`
	Quality          *float64       `json:"interaction_score,omitempty"`
	Context          map[string]any `json:"context_metadata,omitempty"`
}

// InteractionQuery filters QueryInteractions. Zero values leave a filter off;
// set filters are conjunctive.
type InteractionQuery struct {
	From     time.Time // inclusive
	To       time.Time // inclusive
	Stages   []string
	UserHash string
	Limit    int
}

const selectInteractionColumns = `SELECT interaction_id, user_hash, timestamp_ns, current_directory,
	target_directory, professional_stage, interaction_type, interaction_duration,
	interaction_score, context_metadata FROM user_interactions`

const insertInteractionSQL = `INSERT INTO user_interactions (
	interaction_id, user_hash, timestamp_ns, current_directory, target_directory,
	professional_stage, interaction_type, interaction_duration, interaction_score,
	context_metadata
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// RecordInteraction validates, normalizes and appends one interaction and
// returns its generated id. Nothing is written when validation fails.
func (db *DB) RecordInteraction(ctx context.Context, in RecordInput) (string, error) {
	const op = "record interaction"

	interaction, err := db.normalize(in)
	if err != nil {
		metrics.InteractionsRejected.WithLabelValues("validation").Inc()
		return "", err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err = insertInteraction(ctx, db.conn, &interaction)
	metrics.RecordStoreQuery("insert_interaction", time.Since(start), err)
	if err != nil {
		return "", models.StorageError(op, err)
	}

	metrics.InteractionsRecorded.Inc()
	return interaction.ID, nil
}

// normalize turns a RecordInput into the stored interaction, applying defaults.
func (db *DB) normalize(in RecordInput) (models.Interaction, error) {
	const op = "record interaction"

	if verr := validation.ValidateStruct(&in); verr != nil {
		return models.Interaction{}, models.Wrap(models.ErrValidation, op, verr)
	}
	if math.IsNaN(in.Duration) || math.IsInf(in.Duration, 0) {
		return models.Interaction{}, models.ValidationError(op, "interaction_duration must be finite")
	}

	quality := models.DefaultQualityScore
	if in.Quality != nil {
		if math.IsNaN(*in.Quality) {
			return models.Interaction{}, models.ValidationError(op, "interaction_score must be a number")
		}
		quality = models.Clamp01(*in.Quality)
	}

	ctxFeatures, err := normalizeContext(in.Context)
	if err != nil {
		return models.Interaction{}, models.Wrap(models.ErrValidation, op, err)
	}

	kind := in.Type
	if kind == "" {
		kind = models.DefaultInteractionType
	}

	return models.Interaction{
		ID:               uuid.NewString(),
		UserHash:         db.hasher.Hash(in.UserIdentifier),
		Timestamp:        db.now().UTC(),
		CurrentDirectory: in.CurrentDirectory,
		TargetDirectory:  in.TargetDirectory,
		Stage:            in.Stage,
		Type:             kind,
		Duration:         in.Duration,
		Score:            quality,
		Context:          ctxFeatures,
	}, nil
}

// floater matches json.Number and similar decoded numeric types.
type floater interface {
	Float64() (float64, error)
}

// normalizeContext converts every context value to a finite float64. Any
// non-numeric value rejects the whole map.
func normalizeContext(raw map[string]any) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for name, v := range raw {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("context_metadata.%s must be a number, got %T", name, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("context_metadata.%s must be finite", name)
		}
		out[name] = f
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	if f, ok := v.(floater); ok {
		n, err := f.Float64()
		return n, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertInteraction(ctx context.Context, ex execer, it *models.Interaction) error {
	ctxJSON, err := json.Marshal(it.Context)
	if err != nil {
		return fmt.Errorf("encode context metadata: %w", err)
	}
	_, err = ex.ExecContext(ctx, insertInteractionSQL,
		it.ID, it.UserHash, it.Timestamp.UnixNano(), it.CurrentDirectory, it.TargetDirectory,
		it.Stage, it.Type, it.Duration, it.Score, string(ctxJSON),
	)
	return err
}

// QueryInteractions returns matching interactions ordered by timestamp, then
// id. The sequence is lazy and restartable: each range re-runs the query.
// Iteration stops after the first error.
func (db *DB) QueryInteractions(ctx context.Context, q InteractionQuery) iter.Seq2[models.Interaction, error] {
	const op = "query interactions"

	wb := query.NewWhereBuilder()
	wb.AddTimeRange(q.From, q.To)
	wb.AddIn("professional_stage", q.Stages)
	wb.AddEquals("user_hash", q.UserHash)
	whereClause, args := wb.Build()

	sqlText := fmt.Sprintf("%s WHERE %s ORDER BY timestamp_ns, interaction_id", selectInteractionColumns, whereClause)
	if q.Limit > 0 {
		sqlText += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	return func(yield func(models.Interaction, error) bool) {
		start := time.Now()
		rows, err := db.conn.QueryContext(ctx, sqlText, args...)
		metrics.RecordStoreQuery("query_interactions", time.Since(start), err)
		if err != nil {
			yield(models.Interaction{}, models.StorageError(op, err))
			return
		}
		defer closeWithLog(rows, db.logger, "rows")

		for rows.Next() {
			it, err := scanInteraction(rows)
			if err != nil {
				yield(models.Interaction{}, models.StorageError(op, err))
				return
			}
			if !yield(it, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Interaction{}, models.StorageError(op, err))
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[models.Interaction, error]) ([]models.Interaction, error) {
	var out []models.Interaction
	for it, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// LoadInteractions runs q and collects the result.
func (db *DB) LoadInteractions(ctx context.Context, q InteractionQuery) ([]models.Interaction, error) {
	return Collect(db.QueryInteractions(ctx, q))
}

// CountInteractions returns the number of stored interactions.
func (db *DB) CountInteractions(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_interactions").Scan(&n); err != nil {
		return 0, models.StorageError("count interactions", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(rows rowScanner) (models.Interaction, error) {
	var (
		it      models.Interaction
		tsNanos int64
		ctxJSON string
	)
	if err := rows.Scan(
		&it.ID, &it.UserHash, &tsNanos, &it.CurrentDirectory, &it.TargetDirectory,
		&it.Stage, &it.Type, &it.Duration, &it.Score, &ctxJSON,
	); err != nil {
		return models.Interaction{}, fmt.Errorf("scan interaction: %w", err)
	}
	it.Timestamp = time.Unix(0, tsNanos).UTC()
	it.Context = map[string]float64{}
	if ctxJSON != "" {
		if err := json.Unmarshal([]byte(ctxJSON), &it.Context); err != nil {
			return models.Interaction{}, fmt.Errorf("decode context metadata for %s: %w", it.ID, err)
		}
	}
	return it, nil
}
