// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/wayfinder/internal/database"
	"github.com/tomtom215/wayfinder/internal/logging"
	"github.com/tomtom215/wayfinder/internal/models"
)

// LogInteraction handles POST /api/v1/interactions.
func (h *Handler) LogInteraction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in database.RecordInput
	if !h.decodeBody(w, r, &in) {
		return
	}
	id, err := h.nav.LogInteraction(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, InteractionResponse{InteractionID: id}, start)
}

// ExportInteractions handles GET /api/v1/interactions/export?format=json|csv
// with the optional from, to, stage and limit filters.
func (h *Handler) ExportInteractions(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = database.FormatJSON
	}
	contentType, ok := map[string]string{
		database.FormatJSON: "application/json",
		database.FormatCSV:  "text/csv",
	}[format]
	if !ok {
		respondErr(w, r, models.ValidationError("export interactions", "format must be json or csv"))
		return
	}

	q, err := interactionQuery(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	// Buffered so a store failure can still produce an error envelope.
	var buf bytes.Buffer
	n, err := h.nav.Export(r.Context(), &buf, format, q)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="interactions.%s"`, format))
	w.Header().Set("X-Record-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write export")
	}
}

// ImportInteractions handles POST /api/v1/interactions/import with a JSON
// export as the body. The import is all or nothing.
func (h *Handler) ImportInteractions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	n, err := h.nav.Import(r.Context(), http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, ImportResponse{Imported: n}, start)
}

// InteractionSummary handles GET /api/v1/interactions/summary.
func (h *Handler) InteractionSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	sum, err := h.nav.Summary(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, sum, start)
}

// RecordConsent handles POST /api/v1/consent. A second submission for the
// same user answers 409.
func (h *Handler) RecordConsent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in database.ConsentInput
	if !h.decodeBody(w, r, &in) {
		return
	}
	rec, err := h.nav.RecordConsent(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, rec, start)
}

// GetConsent handles GET /api/v1/consent/{userID}.
func (h *Handler) GetConsent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	rec, err := h.nav.GetConsent(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, rec, start)
}
