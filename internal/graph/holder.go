// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package graph

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/providers/file"
	"github.com/rs/zerolog"
)

// Holder publishes the current graph to concurrent readers. Reload builds a
// complete new Graph before swapping it in, so readers see either the old
// graph or the new one.
type Holder struct {
	current atomic.Pointer[Graph]
	version atomic.Int64
	path    string
	logger  zerolog.Logger

	reloadMu sync.Mutex
}

// NewHolder wraps an already loaded graph. path is used by Reload and Watch
// and may be empty for graphs that never reload.
func NewHolder(g *Graph, path string, logger zerolog.Logger) *Holder {
	h := &Holder{
		path:   path,
		logger: logger.With().Str("component", "graph").Logger(),
	}
	h.current.Store(g)
	h.version.Store(1)
	return h
}

// OpenHolder loads the graph at path and wraps it.
func OpenHolder(path string, logger zerolog.Logger) (*Holder, error) {
	g, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewHolder(g, path, logger), nil
}

// Current returns the published graph.
func (h *Holder) Current() *Graph {
	return h.current.Load()
}

// Version increases by one on every successful reload.
func (h *Holder) Version() int64 {
	return h.version.Load()
}

// Path returns the file the holder reloads from.
func (h *Holder) Path() string {
	return h.path
}

// Replace publishes g directly.
func (h *Holder) Replace(g *Graph) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.current.Store(g)
	h.version.Add(1)
}

// Reload re-reads the graph file. On failure the current graph stays
// published.
func (h *Holder) Reload() (*Graph, error) {
	if h.path == "" {
		return nil, errors.New("graph holder has no source path")
	}

	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	g, err := LoadFile(h.path)
	if err != nil {
		h.logger.Warn().Err(err).Str("path", h.path).Msg("Graph reload failed, keeping current graph")
		return nil, err
	}
	h.current.Store(g)
	v := h.version.Add(1)
	h.logger.Info().Int64("version", v).Int("directories", g.Len()).Msg("Graph reloaded")
	return g, nil
}

// Watch reloads the graph whenever its file changes, until ctx is done.
// onReload, when non-nil, runs after every successful reload.
func (h *Holder) Watch(ctx context.Context, onReload func(*Graph)) error {
	if h.path == "" {
		return errors.New("graph holder has no source path")
	}

	provider := file.Provider(h.path)
	err := provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			h.logger.Warn().Err(err).Msg("Graph watcher error")
			return
		}
		g, err := h.Reload()
		if err == nil && onReload != nil {
			onReload(g)
		}
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	if err := provider.Unwatch(); err != nil {
		h.logger.Debug().Err(err).Msg("Graph unwatch")
	}
	return ctx.Err()
}
