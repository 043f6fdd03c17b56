// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/models"
)

// Summary aggregates the interaction log: totals, interactions per stage and
// average quality per target directory.
func (db *DB) Summary(ctx context.Context) (*models.InteractionSummary, error) {
	const op = "interaction summary"

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordStoreQuery("summary", time.Since(start), nil) }()

	summary := &models.InteractionSummary{
		ByStage:        map[string]int{},
		AverageQuality: map[string]float64{},
	}

	var first, last sql.NullInt64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT user_hash), MIN(timestamp_ns), MAX(timestamp_ns)
		FROM user_interactions`,
	).Scan(&summary.TotalInteractions, &summary.UniqueUsers, &first, &last)
	if err != nil {
		return nil, models.StorageError(op, err)
	}
	if first.Valid {
		t := time.Unix(0, first.Int64).UTC()
		summary.FirstInteraction = &t
	}
	if last.Valid {
		t := time.Unix(0, last.Int64).UTC()
		summary.LastInteraction = &t
	}

	if err := db.scanGroups(ctx, `
		SELECT professional_stage, COUNT(*) FROM user_interactions
		GROUP BY professional_stage ORDER BY professional_stage`,
		func(rows *sql.Rows) error {
			var (
				stage string
				n     int
			)
			if err := rows.Scan(&stage, &n); err != nil {
				return err
			}
			summary.ByStage[stage] = n
			return nil
		}); err != nil {
		return nil, models.StorageError(op, err)
	}

	if err := db.scanGroups(ctx, `
		SELECT target_directory, AVG(interaction_score) FROM user_interactions
		GROUP BY target_directory ORDER BY target_directory`,
		func(rows *sql.Rows) error {
			var (
				target string
				avg    float64
			)
			if err := rows.Scan(&target, &avg); err != nil {
				return err
			}
			summary.AverageQuality[target] = avg
			return nil
		}); err != nil {
		return nil, models.StorageError(op, err)
	}

	return summary, nil
}

func (db *DB) scanGroups(ctx context.Context, sqlText string, scan func(*sql.Rows) error) error {
	rows, err := db.conn.QueryContext(ctx, sqlText)
	if err != nil {
		return err
	}
	defer closeWithLog(rows, db.logger, "rows")

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
