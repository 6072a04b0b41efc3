// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

/*
Package main is the entry point for the Social Dashboard server.

The server keeps gateway connections to discord accounts and client-API
listeners for telegram accounts, normalizes the messages they see into a
bounded per-chat store, and pushes store changes to authenticated dashboard
subscribers over a websocket.

# Application Architecture

	RootSupervisor ("social-dashboard")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── nats-server (optional embedded NATS for the telegram bridge)
	│   └── fanout-hub
	├── IngestSupervisor ("ingest-layer")
	│   ├── gateway-N (one per discord token)
	│   └── clientapi-N (one per telegram account)
	└── APISupervisor ("api-layer")
	    └── http-server (/ws, /healthz, /metrics)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Content cache and category store
 4. Authenticator and fan-out hub
 5. Discord gateway manager and telegram listener manager
 6. Supervisor tree and HTTP server

# Configuration

Environment variables override the config file. The most common ones:

	DASHBOARD_PASSWORD     shared subscriber password (or DASHBOARD_PASSWORD_HASH)
	DASHBOARD_TOKEN_SECRET HMAC secret for session tokens; random when empty
	DISCORD_TOKENS         comma separated account tokens
	TELEGRAM_ACCOUNTS      comma separated account phone numbers
	TELEGRAM_NATS_URL      bridge NATS server, or TELEGRAM_EMBEDDED_NATS=true
	CACHE_DIR              content cache directory
	SERVER_PORT            HTTP listener port
	LOG_LEVEL, LOG_FORMAT  zerolog settings

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service, subscribers receive a close frame, and the HTTP server drains for
server.shutdown_timeout.
*/
package main
