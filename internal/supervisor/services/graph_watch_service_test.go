// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/graph"
)

// fakeWatcher delivers each graph in reloads, then blocks until canceled.
type fakeWatcher struct {
	reloads []*graph.Graph
	err     error
}

func (f *fakeWatcher) Watch(ctx context.Context, onReload func(*graph.Graph)) error {
	if f.err != nil {
		return f.err
	}
	for _, g := range f.reloads {
		onReload(g)
	}
	<-ctx.Done()
	return ctx.Err()
}

func mustGraph(t *testing.T, doc string) *graph.Graph {
	t.Helper()
	g, err := graph.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGraphWatchServiceForwardsReloads(t *testing.T) {
	t.Parallel()

	watcher := &fakeWatcher{reloads: []*graph.Graph{
		mustGraph(t, `{"directory_relationships": {"A": {}}}`),
		mustGraph(t, `{"directory_relationships": {"A": {}, "B": {}}}`),
	}}
	got := make(chan int, 2)
	svc := NewGraphWatchService(watcher, func(_ context.Context, g *graph.Graph) {
		got <- g.Len()
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	for _, want := range []int{1, 2} {
		select {
		case n := <-got:
			if n != want {
				t.Errorf("reloaded graph has %d directories, want %d", n, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("reload not forwarded")
		}
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if svc.String() != "graph-watcher" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestGraphWatchServiceWatcherError(t *testing.T) {
	t.Parallel()

	// A holder without a source path cannot be watched.
	holder := graph.NewHolder(mustGraph(t, `{"directory_relationships": {}}`), "", zerolog.Nop())
	svc := NewGraphWatchService(holder, nil, zerolog.Nop())

	if err := svc.Serve(context.Background()); err == nil {
		t.Error("Serve() with unwatchable holder should fail")
	}
}
