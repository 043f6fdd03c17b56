// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/recommend/storage"
	"github.com/tomtom215/wayfinder/internal/reports"
)

const (
	defaultReportLimit = 20
	maxReportLimit     = 100
)

// RunValidation handles POST /api/v1/validation/run.
func (h *Handler) RunValidation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	report, err := h.nav.RunValidation(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, report, start)
}

// RunTraining handles POST /api/v1/training/run. A run already in progress
// answers 409.
func (h *Handler) RunTraining(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	report, err := h.nav.Train(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, report, start)
}

// TrainingStatus handles GET /api/v1/training/status.
func (h *Handler) TrainingStatus(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.nav.TrainingStatus(), time.Now())
}

// LatestReport handles GET /api/v1/reports/{kind}/latest.
func (h *Handler) LatestReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	kind := chi.URLParam(r, "kind")
	if !reports.ValidKind(kind) {
		respondErr(w, r, models.ValidationError("latest report", "kind must be one of %v", reports.Kinds()))
		return
	}
	entry, err := h.nav.LatestReport(r.Context(), kind)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, entry, start)
}

// ListReports handles GET /api/v1/reports/{kind}?limit=.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	kind := chi.URLParam(r, "kind")
	if !reports.ValidKind(kind) {
		respondErr(w, r, models.ValidationError("list reports", "kind must be one of %v", reports.Kinds()))
		return
	}
	limit, err := getIntParam(r, "limit", defaultReportLimit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if limit < 1 || limit > maxReportLimit {
		respondErr(w, r, models.ValidationError("list reports", "limit must be between 1 and %d", maxReportLimit))
		return
	}
	entries, err := h.nav.ListReports(r.Context(), kind, limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if entries == nil {
		entries = []reports.Entry{}
	}
	respondSuccess(w, http.StatusOK, entries, start)
}

// TrainingCheckpoints handles GET /api/v1/training/checkpoints.
func (h *Handler) TrainingCheckpoints(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	checkpoints, err := h.nav.Checkpoints(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if checkpoints == nil {
		checkpoints = []storage.ModelMetadata{}
	}
	respondSuccess(w, http.StatusOK, checkpoints, start)
}

// Graph handles GET /api/v1/graph.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, GraphResponse{
		Version: h.nav.GraphVersion(),
		Summary: h.nav.Graph(),
	}, time.Now())
}

// ReloadGraph handles POST /api/v1/graph/reload. A failed reload keeps the
// published graph and answers with the load error.
func (h *Handler) ReloadGraph(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	sum, err := h.nav.ReloadGraph(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, GraphResponse{Version: h.nav.GraphVersion(), Summary: sum}, start)
}
