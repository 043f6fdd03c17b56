// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/logging"
)

// DefaultSlowRequestThreshold is the latency above which AccessLog warns.
const DefaultSlowRequestThreshold = time.Second

// AccessLog writes one log line per request carrying the request and
// correlation IDs. Requests slower than slow log at warn, server errors at
// error and everything else at debug. slow <= 0 uses
// DefaultSlowRequestThreshold.
func AccessLog(logger zerolog.Logger, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequestThreshold
	}
	logger = logger.With().Str("component", "http").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			code := status(ww)

			var evt *zerolog.Event
			switch {
			case code >= http.StatusInternalServerError:
				evt = logger.Error()
			case duration > slow:
				evt = logger.Warn()
			default:
				evt = logger.Debug()
			}
			evt.
				Str("request_id", logging.RequestIDFromContext(r.Context())).
				Str("correlation_id", logging.CorrelationIDFromContext(r.Context())).
				Str("method", r.Method).
				Str("route", routePattern(r)).
				Int("status", code).
				Int("bytes", ww.BytesWritten()).
				Int64("duration_ms", duration.Milliseconds()).
				Msg("Request completed")
		})
	}
}
