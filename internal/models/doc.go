// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

/*
Package models defines the normalized content model shared by every stage of the
ingestion pipeline.

Both platforms normalize their native messages into StoreItem before anything is
cached or stored, so the store, the fan-out hub and the subscriber protocol only
ever see one shape:

	gateway / client-API listener → StoreItem → store (keyed by Category) → fan-out

Key types:

  - Platform: which remote platform produced an item (discord, telegram)
  - Category: "<platform>-<chatId>", the store partition key
  - StoreItem: a normalized message with author, origin, attachments and reply snapshot
  - Parameters: platform addressing needed to reply to an item later
  - ConnectionState: lifecycle state of a gateway session

JSON tags follow the subscriber wire protocol (camelCase), which is consumed by the
dashboard UI as-is.
*/
package models
