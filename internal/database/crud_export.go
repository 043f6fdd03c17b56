// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/validation"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// CSVHeader is the fixed column order of CSV exports.
var CSVHeader = []string{
	"interaction_id", "user_hash", "timestamp", "current_directory", "target_directory",
	"professional_stage", "interaction_type", "interaction_duration", "interaction_score",
	"context_metadata",
}

// Export writes the interactions matching q to w in format and returns the
// number of records written.
func (db *DB) Export(ctx context.Context, w io.Writer, format string, q InteractionQuery) (int, error) {
	switch format {
	case "", FormatJSON:
		return db.ExportJSON(ctx, w, q)
	case FormatCSV:
		return db.ExportCSV(ctx, w, q)
	default:
		return 0, models.ValidationError("export interactions", "unsupported format %q", format)
	}
}

// ExportJSON writes a JSON array of interactions. Every record carries its
// context map.
func (db *DB) ExportJSON(ctx context.Context, w io.Writer, q InteractionQuery) (int, error) {
	records, err := db.LoadInteractions(ctx, q)
	if err != nil {
		return 0, err
	}
	if records == nil {
		records = []models.Interaction{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode export: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return 0, models.StorageError("export interactions", err)
	}
	return len(records), nil
}

// ExportCSV writes interactions with CSVHeader as the first row. The context
// map is a JSON-encoded column.
func (db *DB) ExportCSV(ctx context.Context, w io.Writer, q InteractionQuery) (int, error) {
	const op = "export interactions"

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, models.StorageError(op, err)
	}

	n := 0
	for it, err := range db.QueryInteractions(ctx, q) {
		if err != nil {
			return n, err
		}
		ctxJSON, err := json.Marshal(it.Context)
		if err != nil {
			return n, fmt.Errorf("encode context metadata: %w", err)
		}
		row := []string{
			it.ID,
			it.UserHash,
			it.Timestamp.Format(time.RFC3339Nano),
			it.CurrentDirectory,
			it.TargetDirectory,
			it.Stage,
			it.Type,
			strconv.FormatFloat(it.Duration, 'g', -1, 64),
			strconv.FormatFloat(it.Score, 'g', -1, 64),
			string(ctxJSON),
		}
		if err := cw.Write(row); err != nil {
			return n, models.StorageError(op, err)
		}
		n++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, models.StorageError(op, err)
	}
	return n, nil
}

// ReadExportJSON decodes a JSON export.
func ReadExportJSON(r io.Reader) ([]models.Interaction, error) {
	var records []models.Interaction
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, models.ValidationError("read export", "malformed export: %v", err)
	}
	return records, nil
}

// ImportInteractions reinserts exported records verbatim in one transaction.
// A record whose id already exists, or repeats within the batch, rejects the
// whole import.
func (db *DB) ImportInteractions(ctx context.Context, records []models.Interaction) (int, error) {
	const op = "import interactions"

	seen := make(map[string]struct{}, len(records))
	for i := range records {
		if err := validateImported(&records[i]); err != nil {
			return 0, models.Wrap(models.ErrValidation, op, fmt.Errorf("record %d: %w", i, err))
		}
		if _, dup := seen[records[i].ID]; dup {
			return 0, models.ValidationError(op, "duplicate interaction_id %s", records[i].ID)
		}
		seen[records[i].ID] = struct{}{}
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, models.StorageError(op, err)
	}
	defer func() {
		// No-op after Commit.
		_ = tx.Rollback()
	}()

	for i := range records {
		it := records[i]
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_interactions WHERE interaction_id = ?`, it.ID).Scan(&n); err != nil {
			return 0, models.StorageError(op, err)
		}
		if n > 0 {
			return 0, models.ValidationError(op, "interaction_id %s already exists", it.ID)
		}
		it.Timestamp = it.Timestamp.UTC()
		if it.Context == nil {
			it.Context = map[string]float64{}
		}
		if err := insertInteraction(ctx, tx, &it); err != nil {
			return 0, models.StorageError(op, err)
		}
	}

	err = tx.Commit()
	metrics.RecordStoreQuery("import_interactions", time.Since(start), err)
	if err != nil {
		return 0, models.StorageError(op, err)
	}
	metrics.InteractionsRecorded.Add(float64(len(records)))
	db.logger.Info().Int("records", len(records)).Msg("Imported interactions")
	return len(records), nil
}

func validateImported(it *models.Interaction) error {
	switch {
	case it.ID == "":
		return fmt.Errorf("interaction_id is required")
	case it.UserHash == "":
		return fmt.Errorf("user_hash is required")
	case !validation.IsResourceID(it.CurrentDirectory):
		return fmt.Errorf("current_directory %q is not a valid resource id", it.CurrentDirectory)
	case !validation.IsResourceID(it.TargetDirectory):
		return fmt.Errorf("target_directory %q is not a valid resource id", it.TargetDirectory)
	case it.Stage == "":
		return fmt.Errorf("professional_stage is required")
	case it.Duration < 0:
		return fmt.Errorf("interaction_duration must be >= 0")
	case it.Score < 0 || it.Score > 1:
		return fmt.Errorf("interaction_score must be in [0, 1]")
	}
	return nil
}
