// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

/*
Package supervisor runs the long-lived services under suture v4.

	RootSupervisor ("social-dashboard")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── EmbeddedNATSService (if telegram.embedded_nats.enabled)
	│   └── FanoutHubService
	├── IngestSupervisor ("ingest-layer")
	│   ├── gateway.Connection per discord token
	│   └── clientapi.Listener per telegram account
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A connection that returns an error is restarted with suture's backoff. A
connection that exhausts its reconnect attempts returns
suture.ErrDoNotRestart and stays stopped; its status is visible on /healthz.

Supervisor events are logged through sutureslog into the zerolog pipeline
(see logging.NewSlogLogger).

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(),
		supervisor.TreeConfigFrom(cfg.Supervisor))
	tree.AddMessagingService(services.NewFanoutHubService(hub))
	for _, c := range discord.Connections() {
		tree.AddIngestService(c)
	}
	tree.AddAPIService(services.NewHTTPServerService(newServer, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
