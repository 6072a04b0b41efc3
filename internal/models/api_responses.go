// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package models

import "time"

// APIResponse is the envelope for the plain HTTP endpoints.
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "2026-01-02T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is a machine-readable error code with a human-readable message.
//
// Codes in use:
//   - SERVICE_UNAVAILABLE: the fan-out hub is not running
//   - RATE_LIMIT_EXCEEDED: too many websocket upgrades from one address
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Health status values.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// HealthStatus is the /healthz payload.
//
// Status is degraded when any account has stopped for good or no account is
// connected while some are configured.
type HealthStatus struct {
	Status          string          `json:"status"`
	Uptime          float64         `json:"uptime_seconds"`
	Subscribers     int             `json:"subscribers"`
	StoreCategories int             `json:"store_categories"`
	Accounts        []AccountStatus `json:"accounts"`
}
