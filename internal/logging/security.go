// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent is an authentication outcome for the audit log.
type SecurityEvent struct {
	// Event is the event name, e.g. "auth_success" or "auth_failed".
	Event string
	// SubscriberID identifies the live-feed connection.
	SubscriberID uint64
	// Method is how the subscriber authenticated: "password" or "token".
	Method string
	// TokenID is the jti of an issued or presented session token.
	TokenID string
	IPAddress string
	UserAgent string
	Success   bool
	// Error is sanitized before it is written.
	Error string
	// Details are sanitized per key.
	Details map[string]string
}

// SecurityLogger writes subscriber authentication events. Credentials never reach it
// unmasked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: With().Str("component", "auth").Logger(),
	}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// LogEvent logs a security event with automatic sanitization. Failures are logged at
// warn level.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	if !event.Success {
		e = l.logger.Warn()
	}
	e = e.Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}

	if event.SubscriberID != 0 {
		e = e.Uint64("subscriber_id", event.SubscriberID)
	}
	if event.Method != "" {
		e = e.Str("method", event.Method)
	}
	if event.TokenID != "" {
		e = e.Str("token_id", SanitizeSessionID(event.TokenID))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}
	if event.Error != "" && !event.Success {
		e = e.Str("error", SanitizeError(event.Error))
	}

	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}

	e.Msg("")
}

// LogAuthSuccess logs a subscriber that authenticated and was issued tokenID.
func (l *SecurityLogger) LogAuthSuccess(subscriberID uint64, method, tokenID, ip, userAgent string) {
	l.LogEvent(&SecurityEvent{
		Event:        "auth_success",
		SubscriberID: subscriberID,
		Method:       method,
		TokenID:      tokenID,
		IPAddress:    ip,
		UserAgent:    userAgent,
		Success:      true,
	})
}

// LogAuthFailure logs a rejected authentication attempt.
func (l *SecurityLogger) LogAuthFailure(subscriberID uint64, method, ip, userAgent, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:        "auth_failed",
		SubscriberID: subscriberID,
		Method:       method,
		IPAddress:    ip,
		UserAgent:    userAgent,
		Success:      false,
		Error:        reason,
	})
}

// LogUnauthenticatedRequest logs a request dropped because the subscriber had not
// authenticated yet.
func (l *SecurityLogger) LogUnauthenticatedRequest(subscriberID uint64, ip, requestType string) {
	l.LogEvent(&SecurityEvent{
		Event:        "unauthenticated_request",
		SubscriberID: subscriberID,
		IPAddress:    ip,
		Success:      false,
		Details: map[string]string{
			"request_type": requestType,
		},
	})
}

// SanitizeSessionID masks a session or token id.
// Example: "abc123def456ghi" -> "abc1...6ghi"
func SanitizeSessionID(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	if len(sessionID) <= 12 {
		return "***"
	}
	return sessionID[:4] + "..." + sessionID[len(sessionID)-4:]
}

// SanitizeError replaces error messages that mention credentials with a generic one.
func SanitizeError(err string) string {
	sensitivePatterns := []string{
		"password",
		"secret",
		"bearer",
		"authorization",
		"cookie",
	}

	lowerErr := strings.ToLower(err)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowerErr, pattern) {
			return "authentication error"
		}
	}

	return truncateString(err, 200)
}

// SanitizeValue sanitizes a value based on its key name.
func SanitizeValue(key, value string) string {
	sensitiveKeys := map[string]bool{
		"token":         true,
		"password":      true,
		"secret":        true,
		"authorization": true,
		"cookie":        true,
		"session":       true,
		"session_id":    true,
	}

	if sensitiveKeys[strings.ToLower(key)] {
		return MaskToken(value, 4)
	}
	return value
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
