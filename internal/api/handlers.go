// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"time"

	"github.com/tomtom215/wayfinder/internal/navigator"
)

// DefaultMaxBodyBytes bounds request bodies, imports included.
const DefaultMaxBodyBytes = 32 << 20

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: liveness and readiness
//   - handlers_recommend.go: recommendations and stage classification
//   - handlers_interactions.go: interaction log, consent, export and import
//   - handlers_models.go: validation, training, reports and the graph
type Handler struct {
	nav          *navigator.Navigator
	startTime    time.Time
	maxBodyBytes int64
}

// NewHandler creates the API handler over nav.
func NewHandler(nav *navigator.Navigator) *Handler {
	return &Handler{
		nav:          nav,
		startTime:    time.Now(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}
