// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package api provides the HTTP REST API for Wayfinder.

Every endpoint is a thin adapter over navigator.Navigator. Requests are
decoded with goccy/go-json, validated with go-playground/validator through
internal/validation, and answered with the models.APIResponse envelope.

Endpoint groups:

  - Health (/api/v1/health): liveness and readiness probes
  - Recommendations (/api/v1/recommendations): ranked next directories
  - Stages (/api/v1/stages, /api/v1/users/{userID}/stage): classification
    and the stage distribution report
  - Interactions (/api/v1/interactions, /api/v1/consent): logging, consent,
    export, import and the summary
  - Models (/api/v1/validation, /api/v1/training, /api/v1/reports): held-out
    validation, retraining and archived reports
  - Graph (/api/v1/graph): the published resource graph and reload

Error Mapping:

Error kinds from internal/models map to HTTP status codes:

	ErrValidation        400 VALIDATION_ERROR
	ErrNotFound          404 NOT_FOUND
	ErrConflict          409 CONFLICT
	ErrInsufficientData  422 INSUFFICIENT_DATA
	ErrConfig, ErrState  500 INTERNAL_ERROR
	ErrStorage           503 STORAGE_ERROR

Middleware Stack:

Global middleware runs request ID, access logging, real IP extraction,
panic recovery and CORS. API groups add httprate limiting, security headers
and Prometheus instrumentation. Training and validation share a strict
limit because each run is CPU bound.
*/
package api
