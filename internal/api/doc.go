// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

/*
Package api serves the dashboard's HTTP surface.

Routes:

	GET /ws       websocket upgrade into a fan-out subscriber (rate limited per IP)
	GET /healthz  account connection states and hub counters
	GET /metrics  Prometheus exposition

Every route runs behind request ids, real-IP extraction, panic recovery and
CORS. Websocket origins are checked against server.allowed_origins; an empty
list only admits same-host origins and "*" admits any.
*/
package api
