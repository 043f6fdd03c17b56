// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/wayfinder/internal/models"
)

// HealthLive handles liveness probes. It answers 200 while the process runs,
// regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthReady handles readiness probes. It answers 503 until the
// interaction store responds.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	storeReady := h.nav.Ready(r.Context()) == nil
	status := h.nav.TrainingStatus()

	statusCode, label := http.StatusOK, "ready"
	if !storeReady {
		statusCode, label = http.StatusServiceUnavailable, "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: label,
		Data: map[string]interface{}{
			"store_connected": storeReady,
			"graph_version":   h.nav.GraphVersion(),
			"model_loaded":    status.HasModel,
			"model_version":   status.ModelVersion,
			"uptime":          time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
