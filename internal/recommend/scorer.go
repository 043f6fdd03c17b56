// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"maps"
	"slices"

	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/models"
)

// neutralPathwayScore applies when the stage has no known pathway.
const neutralPathwayScore = 0.5

// Scorer is the deterministic rule-based scorer. It holds no graph; each
// call receives the graph snapshot to score against. Safe for concurrent use.
type Scorer struct {
	weights         Weights
	economic        map[string]float64
	defaultEconomic float64
	defaultLimit    int
}

// NewScorer validates cfg and returns a scorer.
func NewScorer(cfg *Config) (*Scorer, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = DefaultConfig().DefaultLimit
	}
	return &Scorer{
		weights:         cfg.Weights,
		economic:        maps.Clone(cfg.EconomicRelevance),
		defaultEconomic: cfg.DefaultEconomicRelevance,
		defaultLimit:    limit,
	}, nil
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when the union is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tag := range small {
		if _, ok := large[tag]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// DirectConnection is 1 when target is a primary connection of current.
func (s *Scorer) DirectConnection(g *graph.Graph, current, target string) float64 {
	if g.IsConnected(current, target) {
		return 1
	}
	return 0
}

// ContextSimilarity is the Jaccard similarity of the two tag sets.
func (s *Scorer) ContextSimilarity(g *graph.Graph, current, target string) float64 {
	return Jaccard(g.Tags(current), g.Tags(target))
}

// PathwayAlignment is 1 or 0 for a stage with a pathway, depending on
// whether the pathway recommends target, and 0.5 for an unknown stage.
func (s *Scorer) PathwayAlignment(g *graph.Graph, stage, target string) float64 {
	p, ok := g.Pathway(stage)
	if !ok {
		return neutralPathwayScore
	}
	if p.Recommends(target) {
		return 1
	}
	return 0
}

// EconomicRelevance looks target up in the relevance table.
func (s *Scorer) EconomicRelevance(target string) float64 {
	if v, ok := s.economic[target]; ok {
		return v
	}
	return s.defaultEconomic
}

// Breakdown returns the four sub-scores for target.
func (s *Scorer) Breakdown(g *graph.Graph, current, target, stage string) models.ScoreBreakdown {
	return models.ScoreBreakdown{
		DirectConnection:  s.DirectConnection(g, current, target),
		ContextSimilarity: s.ContextSimilarity(g, current, target),
		PathwayAlignment:  s.PathwayAlignment(g, stage, target),
		EconomicRelevance: s.EconomicRelevance(target),
	}
}

// Combine weights a breakdown into a score clamped to [0, 1].
//
//nolint:gocritic // value parameter keeps breakdowns immutable
func (s *Scorer) Combine(b models.ScoreBreakdown) float64 {
	w := s.weights
	return models.Clamp01(w.DirectConnection*b.DirectConnection +
		w.ContextSimilarity*b.ContextSimilarity +
		w.PathwayAlignment*b.PathwayAlignment +
		w.EconomicRelevance*b.EconomicRelevance)
}

// Score returns the rule-based score of moving from current to target.
func (s *Scorer) Score(g *graph.Graph, current, target, stage string) float64 {
	return s.Combine(s.Breakdown(g, current, target, stage))
}

// Rank scores candidates and returns the top limit, highest first. Equal
// scores keep candidate order. limit <= 0 uses the default limit.
func (s *Scorer) Rank(g *graph.Graph, current, stage string, candidates []string, limit int) []models.ScoredResource {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	scored := make([]models.ScoredResource, len(candidates))
	for i, id := range candidates {
		b := s.Breakdown(g, current, id, stage)
		score := s.Combine(b)
		scored[i] = models.ScoredResource{ResourceID: id, Score: score, RuleScore: score, Breakdown: &b}
	}
	sortByScore(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Candidates returns every directory except current, in sorted order.
func Candidates(g *graph.Graph, current string) []string {
	ids := g.IDs()
	return slices.DeleteFunc(ids, func(id string) bool { return id == current })
}

// sortByScore sorts descending by Score, keeping input order for ties.
func sortByScore(items []models.ScoredResource) {
	slices.SortStableFunc(items, func(a, b models.ScoredResource) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
}
