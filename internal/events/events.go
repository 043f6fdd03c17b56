// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package events is the in-process event bus. It wraps a Watermill
// gochannel Pub/Sub; payloads are JSON and carry their event type in the
// message metadata.
package events

import (
	"time"
)

// Topics.
const (
	TopicInteractionRecorded = "wayfinder.interactions.recorded"
	TopicModelTrained        = "wayfinder.model.trained"
	TopicGraphReloaded       = "wayfinder.graph.reloaded"
)

// MetadataEventType is the message metadata key holding the topic.
const MetadataEventType = "event_type"

// InteractionRecorded is published after an interaction is stored.
type InteractionRecorded struct {
	InteractionID    string    `json:"interaction_id"`
	UserHash         string    `json:"user_hash"`
	CurrentDirectory string    `json:"current_directory"`
	TargetDirectory  string    `json:"target_directory"`
	Stage            string    `json:"professional_stage"`
	Timestamp        time.Time `json:"timestamp"`
}

// ModelTrained is published after a re-ranker is installed.
type ModelTrained struct {
	Version        int       `json:"model_version"`
	MSE            float64   `json:"mse"`
	R2             float64   `json:"r2_score"`
	Synthetic      bool      `json:"synthetic_data"`
	BelowThreshold bool      `json:"below_threshold"`
	Timestamp      time.Time `json:"timestamp"`
}

// GraphReloaded is published after a new resource graph is published.
type GraphReloaded struct {
	Version     int64     `json:"graph_version"`
	Directories int       `json:"total_directories"`
	Timestamp   time.Time `json:"timestamp"`
}
