// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package services adapts Wayfinder components to suture's context-aware
Serve pattern.

  - HTTPServerService wraps an *http.Server with graceful shutdown.
  - RetrainService retrains the reranker on a cron schedule, on startup and
    after a number of recorded interactions, throttled by a minimum interval.
  - GraphWatchService reloads the resource graph when its file changes.
  - ArchiveGCService reclaims report archive space on a ticker.

Every service returns ctx.Err() on cancellation and implements fmt.Stringer
so suture can name it in log events.
*/
package services
