// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package stage infers a user's professional-development stage from the
// context features logged with their interactions.
//
// Each interaction yields an indicator vector. A vector matches a stage when
// every indicator the stage declares lies within its interval; stages are
// tried in declaration order and the first match wins.
package stage

import (
	"slices"
	"time"

	"github.com/tomtom215/wayfinder/internal/models"
)

// Classifier resolves indicator vectors to stages. Safe for concurrent use.
type Classifier struct {
	rules  []Rule
	stages []string
}

// New returns a classifier for cfg.
func New(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{rules: slices.Clone(cfg.Rules)}
	for _, r := range cfg.Rules {
		c.stages = append(c.stages, r.Stage)
	}
	return c, nil
}

// NewDefault returns a classifier for DefaultConfig.
func NewDefault() *Classifier {
	c, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}

// Stages returns the stage names in resolution order.
func (c *Classifier) Stages() []string {
	return slices.Clone(c.stages)
}

// ClassifyVector returns the first stage whose intervals all contain v, or
// Default.
func (c *Classifier) ClassifyVector(v Vector) string {
	for _, r := range c.rules {
		if matches(r, v) {
			return r.Stage
		}
	}
	return Default
}

func matches(r Rule, v Vector) bool {
	for _, th := range r.Thresholds {
		if !th.Contains(v[th.Indicator]) {
			return false
		}
	}
	return true
}

// Classify returns the stage for one interaction.
func (c *Classifier) Classify(it *models.Interaction) string {
	return c.ClassifyVector(Derive(it.Context))
}

// ClassifyUser returns the majority stage over a user's interactions. Ties
// resolve to the stage declared first. No interactions yields Default.
func (c *Classifier) ClassifyUser(interactions []models.Interaction) string {
	if len(interactions) == 0 {
		return Default
	}
	counts := make(map[string]int, len(c.stages))
	for i := range interactions {
		counts[c.Classify(&interactions[i])]++
	}

	best, bestCount := Default, 0
	for _, s := range c.order() {
		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}
	return best
}

// order lists the declared stages, with Default appended if a custom
// config omits it.
func (c *Classifier) order() []string {
	if slices.Contains(c.stages, Default) {
		return c.stages
	}
	return append(slices.Clone(c.stages), Default)
}

// Distribution groups users by the stage of each of their interactions.
type Distribution struct {
	// Users maps stage to the sorted, distinct user hashes classified there.
	Users map[string][]string `json:"stage_classifications"`

	// Histogram counts interactions per stage.
	Histogram map[string]int `json:"professional_stage_distribution"`
}

// ClassifyAll classifies every interaction. A user whose interactions land
// in several stages appears under each of them.
func (c *Classifier) ClassifyAll(interactions []models.Interaction) Distribution {
	sets := make(map[string]map[string]struct{})
	hist := make(map[string]int)
	for i := range interactions {
		s := c.Classify(&interactions[i])
		hist[s]++
		if sets[s] == nil {
			sets[s] = make(map[string]struct{})
		}
		sets[s][interactions[i].UserHash] = struct{}{}
	}

	users := make(map[string][]string, len(sets))
	for s, set := range sets {
		list := make([]string, 0, len(set))
		for u := range set {
			list = append(list, u)
		}
		slices.Sort(list)
		users[s] = list
	}
	return Distribution{Users: users, Histogram: hist}
}

// Report is the archived stage detection result.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Distribution
	TotalInteractions int `json:"total_interactions"`
}

// NewReport wraps d with a timestamp.
func NewReport(d Distribution, at time.Time) Report {
	total := 0
	for _, n := range d.Histogram {
		total += n
	}
	return Report{Timestamp: at.UTC(), Distribution: d, TotalInteractions: total}
}
