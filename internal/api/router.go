// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/meetupsync/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight reaches it
	r.Use(middleware.PrometheusMetrics)

	r.Get("/healthz", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws", router.handler.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Compression)
			r.Get("/status", router.handler.Status)
			r.Get("/meetups", router.handler.Viewport)
			r.Get("/meetups/{id}", router.handler.Detail)
			r.Get("/meetups/{id}/pois", router.handler.POIs)
		})

		r.Put("/focus/{id}", router.handler.Focus)
		r.Delete("/focus", router.handler.ClearFocus)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Post("/meetups/{id}/join", router.handler.Join)
			r.Post("/meetups/{id}/leave", router.handler.Leave)
			r.Post("/meetups/{id}/confirm-poi", router.handler.ConfirmPOI)
			r.Post("/meetups/{id}/finish", router.handler.Finish)
			r.Post("/meetups/{id}/cancel", router.handler.Cancel)
		})
	})

	return r
}
