// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package services

import (
	"context"
)

// ContextHub matches the fan-out hub's run loop.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// FanoutHubService supervises the fan-out hub. RunWithContext already has
// the suture.Service shape; the wrapper only names it.
type FanoutHubService struct {
	hub  ContextHub
	name string
}

// NewFanoutHubService creates a new fan-out hub service wrapper.
func NewFanoutHubService(hub ContextHub) *FanoutHubService {
	return &FanoutHubService{
		hub:  hub,
		name: "fanout-hub",
	}
}

// Serve implements suture.Service.
func (f *FanoutHubService) Serve(ctx context.Context) error {
	return f.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logs.
func (f *FanoutHubService) String() string {
	return f.name
}
