// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/metrics"
)

func TestPrometheusMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/silent", func(w http.ResponseWriter, r *http.Request) {})

	counter := func(path string, code string) float64 {
		return testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, path, code))
	}
	beforeItems := counter("/items/{id}", "418")
	beforeSilent := counter("/silent", "200")

	for _, path := range []string{"/items/a", "/items/b", "/silent"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if d := counter("/items/{id}", "418") - beforeItems; d != 2 {
		t.Errorf("pattern counter delta = %v, want 2", d)
	}
	if d := counter("/silent", "200") - beforeSilent; d != 1 {
		t.Errorf("implicit 200 counter delta = %v, want 1", d)
	}
	if g := testutil.ToFloat64(metrics.APIActiveRequests); g != 0 {
		t.Errorf("active requests = %v after completion, want 0", g)
	}
}

func TestAccessLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		slow      time.Duration
		wantLevel string
	}{
		{"fast success logs debug", http.StatusOK, time.Minute, `"level":"debug"`},
		{"server error logs error", http.StatusInternalServerError, time.Nanosecond, `"level":"error"`},
		{"slow request logs warn", http.StatusOK, time.Nanosecond, `"level":"warn"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

			r := chi.NewRouter()
			r.Use(RequestID)
			r.Use(AccessLog(logger, tt.slow))
			r.Get("/work", func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(time.Millisecond)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("ok"))
			})

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/work", nil))

			line := buf.String()
			for _, want := range []string{tt.wantLevel, `"route":"/work"`, `"bytes":2`, `"request_id":"`} {
				if !strings.Contains(line, want) {
					t.Errorf("log line %s missing %s", line, want)
				}
			}
		})
	}
}
