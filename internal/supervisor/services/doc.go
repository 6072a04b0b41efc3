// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

/*
Package services provides suture.Service wrappers for components whose
lifecycle does not already match Serve(ctx) error.

Gateway connections and client-API listeners implement suture.Service
directly and are added to the tree without a wrapper.

# Available Services

HTTP Server (HTTPServerService):
  - Builds a fresh *http.Server per run so restarts can rebind
  - Graceful shutdown with a configurable drain timeout

Fan-out Hub (FanoutHubService):
  - Delegates to the hub's RunWithContext
  - Connected dashboards receive a close frame on shutdown

Embedded NATS (EmbeddedNATSService):
  - Owns the in-process NATS server used by the client-API bridge
  - Shuts the server down when the tree stops
  - Not restartable; a dead server stops the service for good

# Usage

	tree.AddMessagingService(services.NewEmbeddedNATSService(ns, 5*time.Second))
	tree.AddMessagingService(services.NewFanoutHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(newServer, 10*time.Second))
*/
package services
