// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

// Package logging provides the zerolog-based structured logging used by every
// component.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("account", masked).Msg("gateway connected")
//
// Long-lived components derive a child logger with WithComponent and keep it
// on their struct:
//
//	log := logging.WithComponent("gateway").With().Int("account", 0).Logger()
//
// # Configuration
//
//	LOG_LEVEL   trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  json, console (default: json)
//	LOG_CALLER  include caller file:line (default: false)
//
// # Credentials
//
// Account tokens, phone numbers and session tokens never reach the log
// stream unmasked. Use MaskToken and MaskPhone before attaching them as
// fields; SecurityLogger sanitizes its own fields.
//
// # Request Context
//
// The HTTP layer stores a request-scoped logger and correlation id in the
// request context. Ctx returns that logger, or the global one:
//
//	logging.Ctx(r.Context()).Info().Msg("subscriber connected")
//
// # slog Adapter
//
// NewSlogLogger bridges slog to zerolog for suture's sutureslog event hook.
//
// # Security Logging
//
// SecurityLogger records subscriber authentication outcomes and requests
// dropped for lack of authentication under component=auth.
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
package logging
