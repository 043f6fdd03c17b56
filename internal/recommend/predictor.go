// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/models"
)

// Predictor ranks candidate directories with the rule scorer and, when a
// trained re-ranker is present, blends in its learned score.
type Predictor struct {
	Scorer     *Scorer
	Reranker   *Reranker
	RuleWeight float64
}

// Rank returns the top limit directories reachable from current and the
// mode used. A re-ranker that fails to predict degrades the request to rule
// mode; the error is returned alongside the rule-based ranking.
func (p Predictor) Rank(g *graph.Graph, current, stage string, limit int) ([]models.ScoredResource, string, error) {
	candidates := Candidates(g, current)
	ranked := p.Scorer.Rank(g, current, stage, candidates, max(len(candidates), 1))

	mode := models.ModeRuleBased
	var rerankErr error
	if p.Reranker.IsTrained() && len(ranked) > 0 {
		learned, err := p.Reranker.Optimize(current, stage, candidates)
		if err != nil {
			rerankErr = err
		} else {
			byID := make(map[string]float64, len(learned))
			for _, l := range learned {
				byID[l.ResourceID] = l.Score
			}
			for i := range ranked {
				v := byID[ranked[i].ResourceID]
				ranked[i].LearnedScore = &v
				ranked[i].Score = models.Clamp01(p.RuleWeight*ranked[i].RuleScore + (1-p.RuleWeight)*v)
			}
			sortByScore(ranked)
			mode = models.ModeHybrid
		}
	}

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, mode, rerankErr
}
