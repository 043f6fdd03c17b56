// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package stage

import (
	"github.com/tomtom215/wayfinder/internal/models"
)

// Indicator names.
const (
	LearningIntensity       = "learning_intensity"
	SkillAcquisitionRate    = "skill_acquisition_rate"
	ProjectComplexity       = "project_complexity"
	LeadershipPotential     = "leadership_potential"
	StrategicThinking       = "strategic_thinking"
	TeamImpact              = "team_impact"
	OrganizationalInfluence = "organizational_influence"
	InnovationRate          = "innovation_rate"
	RiskTolerance           = "risk_tolerance"
	MarketAdaptation        = "market_adaptation"
	SocialInitiative        = "social_initiative"
	CollaborativeNetworks   = "collaborative_networks"
	CommunityEngagement     = "community_engagement"
)

// featureScale maps raw [0, 10] context features to [0, 1].
const featureScale = 10.0

// indicatorSource maps each indicator to the raw context feature it reads.
var indicatorSource = map[string]string{
	LearningIntensity:       models.FeatureLearningDepth,
	SkillAcquisitionRate:    models.FeatureSkillBreadth,
	MarketAdaptation:        models.FeatureSkillBreadth,
	ProjectComplexity:       models.FeatureProjectSophistication,
	StrategicThinking:       models.FeatureProjectSophistication,
	LeadershipPotential:     models.FeatureLeadershipEngagement,
	TeamImpact:              models.FeatureLeadershipEngagement,
	OrganizationalInfluence: models.FeatureLeadershipEngagement,
	InnovationRate:          models.FeatureInnovativeThinking,
	RiskTolerance:           models.FeatureInnovativeThinking,
	SocialInitiative:        models.FeatureCommunityInvolvement,
	CollaborativeNetworks:   models.FeatureCommunityInvolvement,
	CommunityEngagement:     models.FeatureCommunityInvolvement,
}

// Vector holds normalized indicator values in [0, 1].
type Vector map[string]float64

// Derive computes the indicator vector from raw context features. A missing
// feature counts as 0.
func Derive(features map[string]float64) Vector {
	v := make(Vector, len(indicatorSource))
	for indicator, feature := range indicatorSource {
		v[indicator] = models.Clamp01(features[feature] / featureScale)
	}
	return v
}

// Indicators returns every known indicator name.
func Indicators() []string {
	out := make([]string, 0, len(indicatorSource))
	for name := range indicatorSource {
		out = append(out, name)
	}
	return out
}
