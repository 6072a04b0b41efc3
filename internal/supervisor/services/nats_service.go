// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// ErrNATSServerStopped is returned when the embedded server dies on its own.
var ErrNATSServerStopped = errors.New("embedded NATS server stopped")

// healthInterval is how often the server is checked while running.
const healthInterval = 5 * time.Second

// NATSServer matches the embedded server lifecycle.
type NATSServer interface {
	Running() bool
	Shutdown(ctx context.Context) error
}

// EmbeddedNATSService owns an embedded NATS server that was started before
// the tree so bridge sessions could connect during wiring.
//
// The server cannot be restarted in place. If it stops on its own the
// service returns suture.ErrDoNotRestart and the bridge sessions fall back
// to their own reconnect loop.
type EmbeddedNATSService struct {
	server          NATSServer
	shutdownTimeout time.Duration
	interval        time.Duration
	name            string
}

// NewEmbeddedNATSService wraps a started server.
func NewEmbeddedNATSService(server NATSServer, shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		interval:        healthInterval,
		name:            "nats-server",
	}
}

// Serve implements suture.Service.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()

			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("NATS server shutdown failed: %w", err)
			}
			return ctx.Err()

		case <-ticker.C:
			if !s.server.Running() {
				return fmt.Errorf("%w: %w", ErrNATSServerStopped, suture.ErrDoNotRestart)
			}
		}
	}
}

// String implements fmt.Stringer for suture logs.
func (s *EmbeddedNATSService) String() string {
	return s.name
}
