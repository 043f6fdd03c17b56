// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Recommendations handles GET /api/v1/recommendations?current=&stage=&limit=.
// Unknown directories and stages answer with neutral rankings rather than
// errors.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", 0)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	req := RecommendationsRequest{
		Current: r.URL.Query().Get("current"),
		Stage:   r.URL.Query().Get("stage"),
		Limit:   limit,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	res, err := h.nav.GetRecommendations(r.Context(), req.Current, req.Stage, req.Limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, res, start)
}

// ClassifyStage handles POST /api/v1/stages/classify. An empty interaction
// list classifies as the default stage.
func (h *Handler) ClassifyStage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ClassifyRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	respondSuccess(w, http.StatusOK, ClassifyResponse{
		Stage:        h.nav.ClassifyUser(req.interactions()),
		Interactions: len(req.Interactions),
	}, start)
}

// UserStage handles GET /api/v1/users/{userID}/stage from stored history.
func (h *Handler) UserStage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stage, n, err := h.nav.ClassifyStoredUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, ClassifyResponse{Stage: stage, Interactions: n}, start)
}

// StageDistribution handles GET /api/v1/stages/distribution?from=&to=&stage=.
// The report is archived as a side effect.
func (h *Handler) StageDistribution(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q, err := interactionQuery(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	report, err := h.nav.DetectStages(r.Context(), q)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, report, start)
}
