// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/stage"
)

// syntheticUsers is the number of distinct pseudo users in synthetic data.
const syntheticUsers = 50

// SyntheticInteractions generates n navigation events over the directories
// of g. Every event moves between two different directories and carries a
// uniform random quality score. Stages come from the graph pathways, or the
// classifier stages when the graph defines none. The result is fully
// determined by seed and at. Fewer than two directories yields nil.
func SyntheticInteractions(g *graph.Graph, n int, seed int64, at time.Time) []models.Interaction {
	dirs := g.IDs()
	if len(dirs) < 2 || n <= 0 {
		return nil
	}
	stages := g.Stages()
	if len(stages) == 0 {
		stages = stage.NewDefault().Stages()
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // G404: synthetic data, not security
	out := make([]models.Interaction, n)
	for i := range out {
		ci := rng.Intn(len(dirs))
		ti := rng.Intn(len(dirs) - 1)
		if ti >= ci {
			ti++
		}
		out[i] = models.Interaction{
			ID:               fmt.Sprintf("synthetic-%d", i),
			UserHash:         fmt.Sprintf("synthetic-user-%d", rng.Intn(syntheticUsers)),
			Timestamp:        at.Add(time.Duration(i) * time.Second).UTC(),
			CurrentDirectory: dirs[ci],
			TargetDirectory:  dirs[ti],
			Stage:            stages[rng.Intn(len(stages))],
			Type:             models.DefaultInteractionType,
			Score:            rng.Float64(),
		}
	}
	return out
}
