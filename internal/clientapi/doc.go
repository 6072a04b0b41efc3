// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

/*
Package clientapi ingests messages from the client-API platform.

Each configured account is served by a Listener that consumes a Session's
update stream, normalizes messages into store items and writes them into the
telegram-<chatId> categories. Session is the seam to the external client
process that owns login and the platform connection; NATSSession bridges to it
over NATS subjects:

	<prefix>.<account>.updates    published updates (JSON Update)
	<prefix>.<account>.photo      request: profile photo of a peer
	<prefix>.<account>.dialogs    request: the account's chats
	<prefix>.<account>.media      request: media bytes of a message
	<prefix>.<account>.send       request: send a reply

The process can host the NATS server itself (EmbeddedServer) so the bridge only
needs the client URL.

Listener implements suture.Service. A closed update stream returns
ErrSessionClosed and the supervisor restarts the listener.
*/
package clientapi
