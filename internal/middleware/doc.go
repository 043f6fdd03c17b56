// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package middleware provides the HTTP middleware shared by every Wayfinder
route.

Key Components:

  - RequestID: X-Request-ID propagation with request and correlation IDs in
    the logging context
  - PrometheusMetrics: request count, duration and in-flight gauge, labelled
    by chi route pattern
  - AccessLog: one structured log line per request, escalated to a warning
    for slow requests

All middleware uses the func(http.Handler) http.Handler shape so it can be
passed straight to chi's Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger, time.Second))
	r.Use(middleware.PrometheusMetrics)

Route patterns rather than raw paths label the metrics, so
/api/v1/users/alice/stage and /api/v1/users/bob/stage share one series.
*/
package middleware
