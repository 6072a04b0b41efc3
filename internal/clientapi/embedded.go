// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package clientapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
)

// maxBridgePayload bounds a single media reply.
const maxBridgePayload = 16 << 20

// EmbeddedServer is an in-process NATS server for the bridge to connect to.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer starts a server on host:port. Port -1 picks a random port.
func NewEmbeddedServer(host string, port int) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName: "social-dashboard",
		Host:       host,
		Port:       port,
		NoSigs:     true,
		MaxPayload: maxBridgePayload,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.SetLoggerV2(natsLogger{log: logging.WithComponent("nats-server")}, false, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("NATS server not ready within timeout")
	}

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL is the URL clients connect to.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Running reports whether the server accepts connections.
func (s *EmbeddedServer) Running() bool {
	return s.server.Running()
}

// Shutdown stops the server and waits for it unless ctx is already done.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.server.WaitForShutdown()
		return nil
	}
}

// natsLogger routes server logs to zerolog.
type natsLogger struct {
	log zerolog.Logger
}

func (l natsLogger) Noticef(format string, v ...interface{}) { l.log.Info().Msgf(format, v...) }
func (l natsLogger) Warnf(format string, v ...interface{})   { l.log.Warn().Msgf(format, v...) }
func (l natsLogger) Fatalf(format string, v ...interface{})  { l.log.Error().Msgf(format, v...) }
func (l natsLogger) Errorf(format string, v ...interface{})  { l.log.Error().Msgf(format, v...) }
func (l natsLogger) Debugf(format string, v ...interface{})  { l.log.Debug().Msgf(format, v...) }
func (l natsLogger) Tracef(format string, v ...interface{})  { l.log.Trace().Msgf(format, v...) }
