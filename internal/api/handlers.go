// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marioparaschiv/social-dashboard/internal/fanout"
	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/models"
)

// StatusSource reports per-account connection state.
type StatusSource interface {
	Statuses() []models.AccountStatus
}

// CategoryCounter reports how many categories the store holds.
type CategoryCounter interface {
	Categories() []models.Category
}

// Handler serves the websocket and health endpoints.
type Handler struct {
	hub            *fanout.Hub
	store          CategoryCounter
	sources        []StatusSource
	allowedOrigins []string
	startTime      time.Time
}

// NewHandler creates a handler. hub may be nil, in which case /ws answers 503.
func NewHandler(hub *fanout.Hub, st CategoryCounter, allowedOrigins []string, sources ...StatusSource) *Handler {
	return &Handler{
		hub:            hub,
		store:          st,
		sources:        sources,
		allowedOrigins: allowedOrigins,
		startTime:      time.Now(),
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin rejects a missing Origin, admits configured origins, and
// with no configuration admits only the request's own host.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the request and hands the connection to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	fanout.NewSubscriber(h.hub, conn, r.RemoteAddr, r.UserAgent()).Start()
}
