// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package models

import "time"

// Context feature names carried in Interaction.Context. Each raw value is
// expected in [0, 10].
const (
	FeatureLearningDepth         = "learning_depth"
	FeatureSkillBreadth          = "skill_breadth"
	FeatureProjectSophistication = "project_sophistication"
	FeatureLeadershipEngagement  = "leadership_engagement"
	FeatureInnovativeThinking    = "innovative_thinking"
	FeatureCommunityInvolvement  = "community_involvement"
)

// Defaults applied when an interaction is recorded without them.
const (
	DefaultInteractionType = "navigation"
	DefaultQualityScore    = 0.5
)

// Interaction is one logged navigation event. Immutable once recorded.
//
// UserHash is a salted one-way hash; the raw user identifier is never
// stored. Timestamp is always UTC.
type Interaction struct {
	ID               string             `json:"interaction_id"`
	UserHash         string             `json:"user_hash"`
	Timestamp        time.Time          `json:"timestamp"`
	CurrentDirectory string             `json:"current_directory"`
	TargetDirectory  string             `json:"target_directory"`
	Stage            string             `json:"professional_stage"`
	Type             string             `json:"interaction_type"`
	Duration         float64            `json:"interaction_duration"`
	Score            float64            `json:"interaction_score"`
	Context          map[string]float64 `json:"context_metadata"`
}

// ConsentRecord is the write-once consent entry for a hashed user.
type ConsentRecord struct {
	UserHash           string    `json:"user_hash"`
	ConsentTimestamp   time.Time `json:"consent_timestamp"`
	ConsentVersion     string    `json:"consent_version"`
	AnonymizationLevel string    `json:"anonymization_level"`
}

// InteractionSummary aggregates the interaction log for dashboards.
type InteractionSummary struct {
	TotalInteractions int                `json:"total_interactions"`
	UniqueUsers       int                `json:"unique_users"`
	ByStage           map[string]int     `json:"interactions_by_stage"`
	AverageQuality    map[string]float64 `json:"average_quality_by_target"`
	FirstInteraction  *time.Time         `json:"first_interaction,omitempty"`
	LastInteraction   *time.Time         `json:"last_interaction,omitempty"`
}
