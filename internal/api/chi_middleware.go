// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
)

// ChiMiddlewareConfig holds configuration for the middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	// UpgradeRateLimit caps websocket upgrades per client IP per UpgradeRateWindow.
	UpgradeRateLimit  int
	UpgradeRateWindow time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration. CORS
// origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"GET", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,

		UpgradeRateLimit:  30,
		UpgradeRateWindow: time.Minute,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: config.CORSAllowedMethods,
		AllowedHeaders: config.CORSAllowedHeaders,
		MaxAge:         config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns the go-chi/cors middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitUpgrades limits websocket upgrades per client IP. It runs after
// RealIP, so the key is the forwarded address when behind a proxy.
func (m *ChiMiddleware) RateLimitUpgrades() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		m.config.UpgradeRateLimit,
		m.config.UpgradeRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logging.Warn().Str("ip", sanitizeLogValue(r.RemoteAddr)).Msg("websocket upgrade rate limited")
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many connection attempts", nil)
		}),
	)
}

// RequestIDWithLogging wraps chi's RequestID middleware and attaches a
// correlation id and a request-scoped logger to the context.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := chimiddleware.GetReqID(r.Context())
			w.Header().Set(chimiddleware.RequestIDHeader, requestID)

			ctx := logging.ContextWithNewCorrelationID(r.Context())
			ctx = logging.ContextWithLogger(ctx, logging.With().Str("request_id", requestID).Logger())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
		return chimiddleware.RequestID(inner)
	}
}
