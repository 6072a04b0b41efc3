// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

// Package store keeps the most recent messages per chat category in memory and
// notifies subscribers of every change.
//
// Each category is an ordered list, newest first, capped at a configured length.
// Mutations of one category are serialized by a per-category lock; different
// categories never contend. Change events are delivered on buffered channels
// obtained from Subscribe, in commit order per category.
package store
