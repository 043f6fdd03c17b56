// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package models defines the data shared across Wayfinder packages.

  - Interaction: one recorded navigation step, keyed by a hashed user id
  - ConsentRecord and InteractionSummary: consent state and store totals
  - ScoredResource and RecommendationResult: ranked next directories with
    their component scores
  - APIResponse, Metadata and APIError: the HTTP envelope
  - Error kinds (ErrValidation, ErrNotFound, ErrStorage, ...) and helpers
    that tag an error with an operation name and a kind

Every error returned across a package boundary carries one kind, so callers
use errors.Is to branch and the API maps kinds to status codes in one place.
*/
package models
