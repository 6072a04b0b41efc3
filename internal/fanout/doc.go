// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

/*
Package fanout pushes store changes to live dashboard subscribers.

A Subscriber is one websocket connection. It starts unauthenticated with an
empty interest set and must send auth-request before anything else is
answered; requests from unauthenticated subscribers are dropped silently.

# Protocol

Every frame is a flat JSON object tagged by "type":

	-> welcome                    sent on connect
	<- auth-request{password|token}
	-> auth-response{failed, token, expiresAt}
	<- request-data
	-> data-update{data, partial}
	<- subscribe-chats{chats, all}
	<- add-chats{uuid, chats}
	-> add-chats-response{uuid}
	<- fetch-chats
	-> fetch-chats-response{discord, telegram}
	<- request-image{hash, ext}   / request-video
	-> image-response{hash, ext, data} / video-response
	<- request-reply{uuid, messageType, content, parameters}
	-> reply-response{uuid, success}

A data-update with partial=true carries only the categories that changed and
must be merged by the client; otherwise it replaces the client's view.

# Interest

Each subscriber watches either a set of chats or, with subscribe-chats{all},
the whole store. The Hub keeps a reference count per category so Interested
can serve as the ingestion gate for the gateway and client-API listeners.

# Delivery

The Hub consumes the store's change Subscription in RunWithContext. On an
updated category it pushes that category's current slice to subscribers
watching it and the full store to subscribers in all mode. A cleared store
produces an unscoped event and every subscriber receives its full interest
set. A subscriber whose send buffer is full is disconnected instead of
blocking the hub.
*/
package fanout
