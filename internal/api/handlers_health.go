// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package api

import (
	"net/http"
	"time"

	"github.com/marioparaschiv/social-dashboard/internal/models"
)

// Health reports account connection states and hub counters. It always answers
// 200; Status says whether ingestion is degraded.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	accounts := []models.AccountStatus{}
	for _, src := range h.sources {
		accounts = append(accounts, src.Statuses()...)
	}

	health := models.HealthStatus{
		Status:   healthOf(accounts),
		Uptime:   time.Since(h.startTime).Seconds(),
		Accounts: accounts,
	}
	if h.hub != nil {
		health.Subscribers = h.hub.GetSubscriberCount()
	}
	if h.store != nil {
		health.StoreCategories = len(h.store.Categories())
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     health,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// healthOf is degraded when an account stopped for good, or when accounts are
// configured and none is connected.
func healthOf(accounts []models.AccountStatus) string {
	connected := 0
	for _, a := range accounts {
		if a.Stopped {
			return models.HealthDegraded
		}
		if a.State == models.StateConnected {
			connected++
		}
	}
	if len(accounts) > 0 && connected == 0 {
		return models.HealthDegraded
	}
	return models.HealthHealthy
}
