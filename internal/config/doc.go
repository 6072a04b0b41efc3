// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

/*
Package config loads the server configuration.

Values are layered with koanf v2, lowest precedence first:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, config.yaml or /etc/social-dashboard/config.yaml)
 3. Environment variables from an explicit mapping table

Unmapped environment variables are ignored. Comma-separated values are split for
slice fields such as DISCORD_TOKENS and SERVER_ALLOWED_ORIGINS.

# Environment Variables

Server:
  - SERVER_HOST, SERVER_PORT
  - SERVER_ALLOWED_ORIGINS: comma-separated origins allowed to open /ws
  - SERVER_UPGRADE_RATE_LIMIT, SERVER_UPGRADE_RATE_WINDOW

Subscriber authentication:
  - DASHBOARD_PASSWORD or DASHBOARD_PASSWORD_HASH (bcrypt)
  - DASHBOARD_TOKEN_SECRET, DASHBOARD_TOKEN_TTL

Gateway platform (discord):
  - DISCORD_TOKENS: comma-separated account tokens
  - DISCORD_GATEWAY_URL, DISCORD_API_BASE
  - DISCORD_HELLO_TIMEOUT, DISCORD_BACKOFF_UNIT, DISCORD_MAX_ATTEMPTS, DISCORD_RESUME_THRESHOLD

Client-API platform (telegram):
  - TELEGRAM_ACCOUNTS: comma-separated account names bridged over NATS
  - TELEGRAM_NATS_URL, TELEGRAM_SUBJECT_PREFIX, TELEGRAM_ALWAYS_TRACK
  - TELEGRAM_EMBEDDED_NATS, TELEGRAM_NATS_HOST, TELEGRAM_NATS_PORT: in-process NATS server

Other:
  - STORE_MAX_ITEMS, CACHE_DIR, LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Content replacements and super properties are only read from the YAML file.
*/
package config
