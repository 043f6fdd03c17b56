// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the interaction and consent tables and their indexes.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries uses only types both engines accept.
// Timestamps are Unix nanoseconds so ordering and range filters are exact.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS user_interactions (
			interaction_id VARCHAR PRIMARY KEY,
			user_hash VARCHAR NOT NULL,
			timestamp_ns BIGINT NOT NULL,
			current_directory VARCHAR NOT NULL,
			target_directory VARCHAR NOT NULL,
			professional_stage VARCHAR NOT NULL,
			interaction_type VARCHAR NOT NULL,
			interaction_duration DOUBLE NOT NULL,
			interaction_score DOUBLE NOT NULL,
			context_metadata VARCHAR NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_timestamp ON user_interactions(timestamp_ns, interaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_stage ON user_interactions(professional_stage)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON user_interactions(user_hash)`,
		`CREATE TABLE IF NOT EXISTS user_consent (
			user_hash VARCHAR PRIMARY KEY,
			consent_timestamp_ns BIGINT NOT NULL,
			consent_version VARCHAR NOT NULL,
			anonymization_level VARCHAR NOT NULL
		)`,
	}
}
