// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

/*
Package gateway maintains live sessions against the discord streaming gateway,
one Connection per account token.

Each Connection runs a single event loop goroutine that owns the session state
(state, sequence, session id, last heartbeat ack, attempt count) and every timer
(heartbeat ticker, hello timeout, reconnect backoff). Inbound frames are decoded
once by a reader goroutine into typed events and handed to the loop, so session
fields are never shared. Message events are normalized on a separate ingest
goroutine per connection; REST lookups and downloads never delay heartbeats.

# Lifecycle

	DISCONNECTED -> CONNECTING -> (open) CONNECTED -> IDENTIFYING | RESUMING -> CONNECTED (READY/RESUMED)

A close with code 4004 stops the account permanently. A close with any other
code schedules a restart after attempts x BackoffUnit until MaxAttempts is
reached. A server RECONNECT tears the transport down with code 4444 and restarts
immediately, keeping the session so it can be resumed.

Connection implements suture.Service; permanent stops return an error wrapping
suture.ErrDoNotRestart.
*/
package gateway
