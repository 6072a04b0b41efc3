// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

// Package metrics exposes Prometheus collectors for the ingestion pipeline.
//
// Collectors are registered on the default registry through promauto and served by
// the /metrics route. Label cardinality is bounded by account count, opcode and event
// names, and tracked categories.
package metrics
