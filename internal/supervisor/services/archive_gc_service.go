// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultArchiveGCInterval is used when no positive interval is given.
const DefaultArchiveGCInterval = 10 * time.Minute

// GarbageCollector reclaims storage. Satisfied by *reports.Archive.
type GarbageCollector interface {
	RunGC()
}

// ArchiveGCService runs report archive garbage collection on a ticker.
type ArchiveGCService struct {
	gc       GarbageCollector
	interval time.Duration
	logger   zerolog.Logger
}

// NewArchiveGCService builds the service.
func NewArchiveGCService(gc GarbageCollector, interval time.Duration, logger zerolog.Logger) *ArchiveGCService {
	if interval <= 0 {
		interval = DefaultArchiveGCInterval
	}
	return &ArchiveGCService{
		gc:       gc,
		interval: interval,
		logger:   logger.With().Str("service", "archive-gc").Logger(),
	}
}

// Serve implements suture.Service.
func (s *ArchiveGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			s.gc.RunGC()
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("Report archive GC pass")
		}
	}
}

// String implements fmt.Stringer.
func (s *ArchiveGCService) String() string {
	return "archive-gc"
}
