// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the ingestion-to-fanout pipeline:
// - Gateway sessions (state, reconnects, heartbeats, frames)
// - Client-API listeners
// - Content cache writes and dedup hits
// - Category store size, evictions and edits
// - Fan-out subscribers and pushes
// - Circuit breaker around the platform REST API

var (
	// Gateway Metrics
	GatewayState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_connection_state",
			Help: "Current gateway connection state (0=disconnected, 1=connecting, 2=identifying, 3=resuming, 4=connected, 5=discovering)",
		},
		[]string{"account"},
	)

	GatewayReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_reconnects_total",
			Help: "Total number of gateway connection starts by reason",
		},
		[]string{"account", "reason"}, // "backoff", "requested", "initial"
	)

	GatewayHeartbeatsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_heartbeats_sent_total",
			Help: "Total number of heartbeat frames sent",
		},
		[]string{"account"},
	)

	GatewayHeartbeatAcks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_heartbeat_acks_total",
			Help: "Total number of heartbeat acknowledgements received",
		},
		[]string{"account"},
	)

	GatewayFramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_frames_received_total",
			Help: "Total number of gateway frames received by opcode",
		},
		[]string{"op"},
	)

	GatewayDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_dispatches_total",
			Help: "Total number of dispatch events received by event name",
		},
		[]string{"event"},
	)

	GatewayCloses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_closes_total",
			Help: "Total number of gateway transport closes by close code",
		},
		[]string{"account", "code"},
	)

	// Ingestion Metrics
	MessagesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_ingested_total",
			Help: "Total number of messages written to the store",
		},
		[]string{"platform", "kind"}, // kind: "new", "edit"
	)

	MessagesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_skipped_total",
			Help: "Total number of messages skipped before storage",
		},
		[]string{"platform", "reason"},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Total number of degraded normalization steps (field dropped, message kept)",
		},
		[]string{"platform", "stage"}, // "reply", "attachment", "avatar"
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Time from dispatch to store write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"platform"},
	)

	// Content Cache Metrics
	ContentCacheWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_writes_total",
			Help: "Total number of objects written to the content cache",
		},
	)

	ContentCacheDedupHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_dedup_hits_total",
			Help: "Total number of puts satisfied by an existing object",
		},
	)

	ContentCacheBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_bytes_written_total",
			Help: "Total number of bytes written to the content cache",
		},
	)

	ContentCacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cache_errors_total",
			Help: "Total number of content cache I/O errors",
		},
		[]string{"operation"},
	)

	// Store Metrics
	StoreItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_items",
			Help: "Current number of items per category",
		},
		[]string{"category"},
	)

	StoreEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_evictions_total",
			Help: "Total number of items evicted from a full category",
		},
	)

	StoreEdits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_edits_total",
			Help: "Total number of items reconciled as edits",
		},
	)

	StoreEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_events_dropped_total",
			Help: "Total number of change events dropped because a subscription buffer was full",
		},
	)

	// Fan-out Metrics
	SubscribersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanout_subscribers",
			Help: "Current number of connected subscribers",
		},
	)

	FanoutPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_pushes_total",
			Help: "Total number of data-update pushes by scope",
		},
		[]string{"scope"}, // "category", "all"
	)

	FanoutDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_subscribers_dropped_total",
			Help: "Total number of subscribers dropped because their send buffer was full",
		},
	)

	SubscriberMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_messages_received_total",
			Help: "Total number of subscriber protocol messages received by type",
		},
		[]string{"type"},
	)

	SubscriberAuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_auth_failures_total",
			Help: "Total number of failed subscriber authentication attempts",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	RESTRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_rest_requests_total",
			Help: "Total number of platform REST requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)
)

// RecordIngest records a stored message and how long normalization took.
func RecordIngest(platform string, edited bool, duration time.Duration) {
	kind := "new"
	if edited {
		kind = "edit"
	}
	MessagesIngested.WithLabelValues(platform, kind).Inc()
	IngestDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordCacheWrite records a content cache write of n bytes.
func RecordCacheWrite(n int) {
	ContentCacheWrites.Inc()
	ContentCacheBytesWritten.Add(float64(n))
}
