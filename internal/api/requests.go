// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"github.com/tomtom215/wayfinder/internal/models"
)

// RecommendationsRequest holds the query of GET /api/v1/recommendations.
// Limit 0 selects the configured default.
type RecommendationsRequest struct {
	Current string `json:"current" validate:"required,resourceid"`
	Stage   string `json:"stage" validate:"max=128"`
	Limit   int    `json:"limit" validate:"min=0"`
}

// ClassifyRequest is the body of POST /api/v1/stages/classify.
type ClassifyRequest struct {
	Interactions []ClassifyInteraction `json:"interactions" validate:"max=10000,dive"`
}

// ClassifyInteraction carries the context metadata the classifier reads.
type ClassifyInteraction struct {
	Context map[string]float64 `json:"context_metadata"`
}

func (req *ClassifyRequest) interactions() []models.Interaction {
	out := make([]models.Interaction, len(req.Interactions))
	for i, it := range req.Interactions {
		out[i].Context = it.Context
	}
	return out
}

// ClassifyResponse is the result of a stage classification.
type ClassifyResponse struct {
	Stage        string `json:"professional_stage"`
	Interactions int    `json:"interactions"`
}

// InteractionResponse acknowledges a logged interaction.
type InteractionResponse struct {
	InteractionID string `json:"interaction_id"`
}

// ImportResponse reports how many records an import inserted.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// GraphResponse describes the published graph.
type GraphResponse struct {
	Version int64 `json:"version"`
	Summary any   `json:"summary"`
}
