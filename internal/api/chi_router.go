// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marioparaschiv/social-dashboard/internal/config"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter builds a router from the server config.
func NewRouter(handler *Handler, cfg config.ServerConfig) *Router {
	mw := DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.AllowedOrigins
	if cfg.UpgradeRateLimit > 0 {
		mw.UpgradeRateLimit = cfg.UpgradeRateLimit
	}
	if cfg.UpgradeRateWindow > 0 {
		mw.UpgradeRateWindow = cfg.UpgradeRateWindow
	}
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mw),
	}
}

// SetupChi returns the HTTP handler for every route.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Get("/healthz", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.With(router.chiMiddleware.RateLimitUpgrades()).Get("/ws", router.handler.WebSocket)

	return r
}
