// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/validation"
)

// DefaultAnonymizationLevel is recorded when a consent request names none.
const DefaultAnonymizationLevel = "hashed"

// ConsentInput is a consent submission for a raw user identifier.
type ConsentInput struct {
	UserIdentifier     string `json:"user_identifier" validate:"required,max=512"`
	ConsentVersion     string `json:"consent_version,omitempty" validate:"omitempty,max=32"`
	AnonymizationLevel string `json:"anonymization_level,omitempty" validate:"omitempty,max=32"`
}

// RecordConsent stores the consent record for a user. Consent is write-once:
// a second call for the same user returns ErrConsentAlreadyRecorded.
// defaultVersion is used when the input carries no version.
func (db *DB) RecordConsent(ctx context.Context, in ConsentInput, defaultVersion string) (models.ConsentRecord, error) {
	const op = "record consent"

	if verr := validation.ValidateStruct(&in); verr != nil {
		return models.ConsentRecord{}, models.Wrap(models.ErrValidation, op, verr)
	}

	rec := models.ConsentRecord{
		UserHash:           db.hasher.Hash(in.UserIdentifier),
		ConsentTimestamp:   db.now().UTC(),
		ConsentVersion:     in.ConsentVersion,
		AnonymizationLevel: in.AnonymizationLevel,
	}
	if rec.ConsentVersion == "" {
		rec.ConsentVersion = defaultVersion
	}
	if rec.AnonymizationLevel == "" {
		rec.AnonymizationLevel = DefaultAnonymizationLevel
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	exists, err := db.hasConsent(ctx, rec.UserHash)
	if err != nil {
		return models.ConsentRecord{}, models.StorageError(op, err)
	}
	if exists {
		return models.ConsentRecord{}, ErrConsentAlreadyRecorded
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO user_consent (user_hash, consent_timestamp_ns, consent_version, anonymization_level) VALUES (?, ?, ?, ?)`,
		rec.UserHash, rec.ConsentTimestamp.UnixNano(), rec.ConsentVersion, rec.AnonymizationLevel,
	)
	metrics.RecordStoreQuery("insert_consent", time.Since(start), err)
	if err != nil {
		// A concurrent writer won the primary key.
		if again, checkErr := db.hasConsent(ctx, rec.UserHash); checkErr == nil && again {
			return models.ConsentRecord{}, ErrConsentAlreadyRecorded
		}
		return models.ConsentRecord{}, models.StorageError(op, err)
	}
	return rec, nil
}

// GetConsent returns the consent record for a raw user identifier.
func (db *DB) GetConsent(ctx context.Context, userIdentifier string) (models.ConsentRecord, error) {
	return db.GetConsentByHash(ctx, db.hasher.Hash(userIdentifier))
}

// GetConsentByHash returns the consent record for a hashed user.
func (db *DB) GetConsentByHash(ctx context.Context, userHash string) (models.ConsentRecord, error) {
	const op = "get consent"

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		rec     models.ConsentRecord
		tsNanos int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_hash, consent_timestamp_ns, consent_version, anonymization_level FROM user_consent WHERE user_hash = ?`,
		userHash,
	).Scan(&rec.UserHash, &tsNanos, &rec.ConsentVersion, &rec.AnonymizationLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConsentRecord{}, models.NotFoundError(op, "no consent recorded")
	}
	if err != nil {
		return models.ConsentRecord{}, models.StorageError(op, err)
	}
	rec.ConsentTimestamp = time.Unix(0, tsNanos).UTC()
	return rec, nil
}

// HasConsent reports whether a raw user identifier has a consent record.
func (db *DB) HasConsent(ctx context.Context, userIdentifier string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	ok, err := db.hasConsent(ctx, db.hasher.Hash(userIdentifier))
	if err != nil {
		return false, models.StorageError("check consent", err)
	}
	return ok, nil
}

func (db *DB) hasConsent(ctx context.Context, userHash string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_consent WHERE user_hash = ?`, userHash).Scan(&n)
	return n > 0, err
}
