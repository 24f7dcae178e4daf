// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/wayfarer/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil config uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, config *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(config),
	}
}

// SetupChi builds the HTTP handler with every route.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/uploads", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		// Multipart bodies are not compressed; responses are small JSON.
		r.With(router.chiMiddleware.RateLimitUpload()).Post("/", router.handler.UploadImage)
		r.With(router.chiMiddleware.RateLimit()).Delete("/", router.handler.DeleteUpload)
		r.With(router.chiMiddleware.RateLimit()).Get("/thumbnail", router.handler.Thumbnail)
	})

	r.Route("/api/v1/settings", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/imaging", router.handler.GetProcessingSettings)
		r.Put("/imaging", router.handler.UpdateProcessingSettings)
	})

	if router.handler.TilesEnabled() {
		router.registerChiTileRoutes(r)
	}

	r.With(middleware.PrometheusMetrics).
		Handle(ContentPrefix+"*", ContentHandler(router.handler.uploader.ContentRoot()))

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// registerChiTileRoutes adds the tile proxy and tile cache control routes.
func (router *Router) registerChiTileRoutes(r chi.Router) {
	r.With(
		router.chiMiddleware.RateLimitTiles(),
		middleware.PrometheusMetrics,
	).Get("/tiles/{layer}/{z}/{x}/{y}", router.handler.Tile)

	r.Route("/api/v1/tiles", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/", router.handler.TileLayers)
		r.Get("/stats", router.handler.TileStats)
		r.Post("/messages", router.handler.PostTileMessage)
	})
}
