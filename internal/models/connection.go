// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package models

import "time"

// ConnectionState is the lifecycle state of a gateway session.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateIdentifying
	StateResuming
	StateConnected
	// StateDiscovering is transient: the transport is being torn down for a
	// server-requested reconnect.
	StateDiscovering
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateIdentifying:
		return "identifying"
	case StateResuming:
		return "resuming"
	case StateConnected:
		return "connected"
	case StateDiscovering:
		return "discovering"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON status payloads.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AccountStatus is a point-in-time view of one ingesting account.
type AccountStatus struct {
	Platform      Platform        `json:"platform"`
	AccountIndex  int             `json:"accountIndex"`
	Account       string          `json:"account"` // masked
	State         ConnectionState `json:"state"`
	Attempts      int             `json:"attempts"`
	Sequence      int64           `json:"sequence,omitempty"`
	Resumable     bool            `json:"resumable"`
	LastAckAt     *time.Time      `json:"lastAckAt,omitempty"`
	User          string          `json:"user,omitempty"`
	Stopped       bool            `json:"stopped"`
	StoppedReason string          `json:"stoppedReason,omitempty"`
}
