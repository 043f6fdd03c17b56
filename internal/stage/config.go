// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package stage

import (
	"github.com/tomtom215/wayfinder/internal/models"
)

// Professional stages in resolution order.
const (
	EntryLevel      = "Entry-Level Professional"
	MidCareer       = "Mid-Career Professional"
	Leadership      = "Leadership Track"
	Entrepreneurial = "Entrepreneurial Innovator"
	CommunityImpact = "Community Impact Professional"
)

// Default is assigned when no stage matches.
const Default = EntryLevel

// Threshold is a closed interval an indicator must fall in.
type Threshold struct {
	Indicator string  `json:"indicator"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (t Threshold) Contains(v float64) bool {
	return v >= t.Min && v <= t.Max
}

// Rule declares the indicator intervals of one stage.
type Rule struct {
	Stage      string      `json:"stage"`
	Thresholds []Threshold `json:"thresholds"`
}

// Config is the ordered list of stage rules. The first matching rule wins.
type Config struct {
	Rules []Rule `json:"rules"`
}

// DefaultConfig returns the five-stage threshold table.
func DefaultConfig() Config {
	return Config{Rules: []Rule{
		{Stage: EntryLevel, Thresholds: []Threshold{
			{Indicator: LearningIntensity, Min: 0.0, Max: 0.4},
			{Indicator: SkillAcquisitionRate, Min: 0.0, Max: 0.5},
		}},
		{Stage: MidCareer, Thresholds: []Threshold{
			{Indicator: ProjectComplexity, Min: 0.4, Max: 0.7},
			{Indicator: LeadershipPotential, Min: 0.3, Max: 0.6},
		}},
		{Stage: Leadership, Thresholds: []Threshold{
			{Indicator: StrategicThinking, Min: 0.7, Max: 1.0},
			{Indicator: TeamImpact, Min: 0.6, Max: 1.0},
			{Indicator: OrganizationalInfluence, Min: 0.5, Max: 1.0},
		}},
		{Stage: Entrepreneurial, Thresholds: []Threshold{
			{Indicator: InnovationRate, Min: 0.6, Max: 1.0},
			{Indicator: RiskTolerance, Min: 0.7, Max: 1.0},
			{Indicator: MarketAdaptation, Min: 0.5, Max: 0.9},
		}},
		{Stage: CommunityImpact, Thresholds: []Threshold{
			{Indicator: SocialInitiative, Min: 0.5, Max: 1.0},
			{Indicator: CollaborativeNetworks, Min: 0.6, Max: 1.0},
			{Indicator: CommunityEngagement, Min: 0.7, Max: 1.0},
		}},
	}}
}

// Validate checks that every rule names a stage once, declares at least one
// known indicator and has ordered bounds.
func (c Config) Validate() error {
	const op = "stage config"

	if len(c.Rules) == 0 {
		return models.ConfigError(op, "at least one stage rule is required")
	}
	seen := make(map[string]bool, len(c.Rules))
	for _, r := range c.Rules {
		if r.Stage == "" {
			return models.ConfigError(op, "stage name is required")
		}
		if seen[r.Stage] {
			return models.ConfigError(op, "stage %q declared twice", r.Stage)
		}
		seen[r.Stage] = true
		if len(r.Thresholds) == 0 {
			return models.ConfigError(op, "stage %q declares no indicators", r.Stage)
		}
		for _, th := range r.Thresholds {
			if _, ok := indicatorSource[th.Indicator]; !ok {
				return models.ConfigError(op, "stage %q uses unknown indicator %q", r.Stage, th.Indicator)
			}
			if th.Min > th.Max {
				return models.ConfigError(op, "stage %q indicator %q has min %v > max %v", r.Stage, th.Indicator, th.Min, th.Max)
			}
		}
	}
	return nil
}
