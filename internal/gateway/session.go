// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"time"

	"github.com/marioparaschiv/social-dashboard/internal/models"
)

// Config tunes gateway connections. Zero fields take DefaultConfig values.
type Config struct {
	GatewayURL      string
	APIBase         string
	CDNBase         string
	SuperProperties map[string]interface{}

	HelloTimeout    time.Duration
	BackoffUnit     time.Duration
	MaxAttempts     int
	ResumeThreshold time.Duration

	RequestsPerSecond float64
	RequestTimeout    time.Duration

	Replacements []Replacement
	AlwaysTrack  []string
	IngestQueue  int
	IngestWait   time.Duration
}

// Replacement rewrites From to To in message content.
type Replacement struct {
	From string
	To   string
}

// DefaultConfig returns the gateway defaults.
func DefaultConfig() Config {
	return Config{
		GatewayURL:        "wss://gateway.discord.gg/?v=10&encoding=json",
		APIBase:           "https://discord.com/api/v10",
		CDNBase:           "https://cdn.discordapp.com",
		HelloTimeout:      30 * time.Second,
		BackoffUnit:       time.Second,
		MaxAttempts:       5,
		ResumeThreshold:   60 * time.Second,
		RequestsPerSecond: 2,
		RequestTimeout:    15 * time.Second,
		IngestQueue:       256,
		IngestWait:        2 * time.Second,
		SuperProperties:   defaultSuperProperties(),
	}
}

func defaultSuperProperties() map[string]interface{} {
	return map[string]interface{}{
		"os":              "Windows",
		"browser":         "Chrome",
		"device":          "",
		"system_locale":   "en-US",
		"release_channel": "stable",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GatewayURL == "" {
		c.GatewayURL = d.GatewayURL
	}
	if c.APIBase == "" {
		c.APIBase = d.APIBase
	}
	if c.CDNBase == "" {
		c.CDNBase = d.CDNBase
	}
	if c.HelloTimeout <= 0 {
		c.HelloTimeout = d.HelloTimeout
	}
	if c.BackoffUnit <= 0 {
		c.BackoffUnit = d.BackoffUnit
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.ResumeThreshold <= 0 {
		c.ResumeThreshold = d.ResumeThreshold
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.IngestQueue <= 0 {
		c.IngestQueue = d.IngestQueue
	}
	if c.IngestWait <= 0 {
		c.IngestWait = d.IngestWait
	}
	if len(c.SuperProperties) == 0 {
		c.SuperProperties = d.SuperProperties
	}
	return c
}

// Session is the per-account protocol state. It is owned by the connection's
// event loop and never shared.
type Session struct {
	State             models.ConnectionState
	Sequence          int64
	SessionID         string
	LastAckAt         time.Time
	Attempts          int
	HeartbeatInterval time.Duration
	User              *User
}

// canResume reports whether a RESUME can be attempted: a session id exists and
// the last heartbeat ack, if any, is within threshold.
func (s *Session) canResume(now time.Time, threshold time.Duration) bool {
	if s.SessionID == "" {
		return false
	}
	return s.LastAckAt.IsZero() || now.Sub(s.LastAckAt) <= threshold
}

// shouldAttempt reports whether another connection attempt is allowed.
func (s *Session) shouldAttempt(maxAttempts int) bool {
	if s.State == models.StateConnected || s.State == models.StateConnecting {
		return false
	}
	return s.Attempts < maxAttempts
}

// resetForIdentify clears everything a fresh IDENTIFY invalidates.
func (s *Session) resetForIdentify() {
	s.Sequence = 0
	s.SessionID = ""
	s.State = models.StateIdentifying
}
