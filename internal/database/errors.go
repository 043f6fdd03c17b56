// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package database

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/models"
)

// ErrConsentAlreadyRecorded is returned when a user already has a consent record.
var ErrConsentAlreadyRecorded = &models.Error{
	Kind: models.ErrConflict,
	Op:   "record consent",
}

// closeWithLog closes a resource and logs any error.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func closeWithLog(closer io.Closer, logger zerolog.Logger, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
