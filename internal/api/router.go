// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tophatsecurity/aurorasensa-sub006/internal/config"
	"github.com/tophatsecurity/aurorasensa-sub006/internal/tracker"
	ws "github.com/tophatsecurity/aurorasensa-sub006/internal/websocket"
)

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates the router from configuration and the live services.
func NewRouter(cfg *config.Config, engine *tracker.Engine, hub *ws.Hub) *Router {
	mwConfig := DefaultMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.API.CORSOrigins
	if cfg.API.RateLimitReqs > 0 {
		mwConfig.RateLimitRequests = cfg.API.RateLimitReqs
	}
	if cfg.API.RateLimitWindow > 0 {
		mwConfig.RateLimitWindow = cfg.API.RateLimitWindow
	}

	return &Router{
		handler:    NewHandler(cfg, engine, hub),
		middleware: NewMiddleware(mwConfig),
	}
}

// Setup builds the Chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	// CORS must be global to handle OPTIONS preflight.
	r.Use(router.middleware.CORS())

	// Health endpoints get permissive rate limiting so monitoring tools can
	// probe frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Map data and control endpoints.
	r.Route("/api/v1/map", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Get("/snapshot", router.handler.MapSnapshot)
		r.Get("/deltas", router.handler.MapDeltas)
		r.Get("/stats", router.handler.MapStats)

		r.Get("/trails", router.handler.MapTrails)
		r.Delete("/trails/pins", router.handler.TrailPinsClear)
		r.Get("/trails/{id}", router.handler.MapTrail)
		r.Post("/trails/{id}/pin", router.handler.TrailPin)
		r.Delete("/trails/{id}/pin", router.handler.TrailUnpin)

		r.Get("/settings", router.handler.GetSettings)
		r.Put("/settings", router.handler.UpdateSettings)

		r.Post("/tracking/pause", router.handler.TrackingPause)
		r.Post("/tracking/resume", router.handler.TrackingResume)
	})

	// Live update stream.
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Get("/", router.handler.WebSocket)
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
