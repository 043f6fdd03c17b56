// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package models

import "time"

// Recommendation modes reported in RecommendationResult.Mode.
const (
	ModeHybrid    = "hybrid"
	ModeRuleBased = "rule_based"
)

// ScoreBreakdown holds the four rule-based sub-scores behind a ranking.
type ScoreBreakdown struct {
	DirectConnection  float64 `json:"direct_connection"`
	ContextSimilarity float64 `json:"context_similarity"`
	PathwayAlignment  float64 `json:"pathway_alignment"`
	EconomicRelevance float64 `json:"economic_relevance"`
}

// ScoredResource is a candidate directory with its final score in [0, 1].
type ScoredResource struct {
	ResourceID   string          `json:"resource_id"`
	Score        float64         `json:"score"`
	RuleScore    float64         `json:"rule_score"`
	LearnedScore *float64        `json:"learned_score,omitempty"`
	Breakdown    *ScoreBreakdown `json:"breakdown,omitempty"`
}

// RecommendationResult is the ordered output of a recommendation request.
type RecommendationResult struct {
	CurrentDirectory string           `json:"current_directory"`
	Stage            string           `json:"professional_stage"`
	Mode             string           `json:"mode"`
	ModelVersion     int              `json:"model_version,omitempty"`
	Recommendations  []ScoredResource `json:"recommendations"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// IDs returns the recommended resource ids in rank order.
func (r *RecommendationResult) IDs() []string {
	ids := make([]string, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		ids[i] = rec.ResourceID
	}
	return ids
}

// Clamp01 bounds v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case v != v: //nolint:gocritic // NaN check
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
