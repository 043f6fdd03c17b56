// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingGC struct{ passes atomic.Int32 }

func (c *countingGC) RunGC() { c.passes.Add(1) }

func TestArchiveGCService(t *testing.T) {
	t.Parallel()

	if got := NewArchiveGCService(&countingGC{}, 0, zerolog.Nop()).interval; got != DefaultArchiveGCInterval {
		t.Errorf("default interval = %v", got)
	}

	gc := &countingGC{}
	svc := NewArchiveGCService(gc, 5*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	eventually(t, "two GC passes", func() bool { return gc.passes.Load() >= 2 })
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}
