// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	logger        zerolog.Logger
	slowRequest   time.Duration
}

// NewRouter creates a router. A nil mw uses the default middleware config.
func NewRouter(handler *Handler, mw *ChiMiddleware, logger zerolog.Logger) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: mw,
		logger:        logger,
		slowRequest:   middleware.DefaultSlowRequestThreshold,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler
	mw := router.chiMiddleware

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(router.logger, router.slowRequest))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS()) // global so OPTIONS preflight is answered
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Use(chimiddleware.Compress(5, "application/json", "text/csv"))

			r.Get("/recommendations", h.Recommendations)
			r.Post("/stages/classify", h.ClassifyStage)
			r.Get("/stages/distribution", h.StageDistribution)
			r.Get("/users/{userID}/stage", h.UserStage)
			r.Get("/interactions/summary", h.InteractionSummary)
			r.Get("/consent/{userID}", h.GetConsent)
			r.Get("/training/status", h.TrainingStatus)
			r.Get("/training/checkpoints", h.TrainingCheckpoints)
			r.Get("/reports/{kind}", h.ListReports)
			r.Get("/reports/{kind}/latest", h.LatestReport)
			r.Get("/graph", h.Graph)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitWrite())
			r.Post("/interactions", h.LogInteraction)
			r.Post("/consent", h.RecordConsent)
			r.Post("/graph/reload", h.ReloadGraph)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitExport())
			r.Use(chimiddleware.Compress(5, "application/json", "text/csv"))
			r.Get("/interactions/export", h.ExportInteractions)
			r.Post("/interactions/import", h.ImportInteractions)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitTraining())
			r.Post("/validation/run", h.RunValidation)
			r.Post("/training/run", h.RunTraining)
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
