// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/graph"
)

// GraphWatcher watches the graph source. Satisfied by *graph.Holder.
type GraphWatcher interface {
	Watch(ctx context.Context, onReload func(*graph.Graph)) error
}

// GraphReloadFunc is told about every graph the watcher installs.
type GraphReloadFunc func(ctx context.Context, g *graph.Graph)

// GraphWatchService keeps the resource graph in sync with its file. A bad
// file is rejected by the watcher and the previous graph stays current.
type GraphWatchService struct {
	watcher  GraphWatcher
	onReload GraphReloadFunc
	logger   zerolog.Logger
}

// NewGraphWatchService builds the watcher service. onReload may be nil.
func NewGraphWatchService(watcher GraphWatcher, onReload GraphReloadFunc, logger zerolog.Logger) *GraphWatchService {
	return &GraphWatchService{
		watcher:  watcher,
		onReload: onReload,
		logger:   logger.With().Str("service", "graph-watcher").Logger(),
	}
}

// Serve implements suture.Service.
func (s *GraphWatchService) Serve(ctx context.Context) error {
	s.logger.Info().Msg("Watching resource graph")
	err := s.watcher.Watch(ctx, func(g *graph.Graph) {
		s.logger.Info().Int("directories", g.Len()).Msg("Resource graph reloaded")
		if s.onReload != nil {
			s.onReload(ctx, g)
		}
	})
	if err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Msg("Graph watcher stopped")
	}
	return err
}

// String implements fmt.Stringer.
func (s *GraphWatchService) String() string {
	return "graph-watcher"
}
