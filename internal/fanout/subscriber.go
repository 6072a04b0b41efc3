// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package fanout

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// subscriberIDCounter gives subscribers increasing ids so pushes and shutdown
// visit them in connection order.
var subscriberIDCounter atomic.Uint64

// Subscriber is a middleman between a dashboard websocket and the hub.
type Subscriber struct {
	id         uint64
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	userAgent  string
	log        zerolog.Logger

	// Guarded by hub.mu.
	authenticated bool
	all           bool
	chats         map[models.Category]struct{}
	closed        bool
}

// NewSubscriber wraps an upgraded connection. remoteAddr and userAgent are only
// used for the auth audit log.
func NewSubscriber(hub *Hub, conn *websocket.Conn, remoteAddr, userAgent string) *Subscriber {
	id := subscriberIDCounter.Add(1)
	return &Subscriber{
		id:         id,
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, hub.cfg.SendBuffer),
		remoteAddr: remoteAddr,
		userAgent:  userAgent,
		log:        logging.With().Str("component", "fanout").Uint64("subscriber_id", id).Logger(),
	}
}

// ID returns the subscriber's connection-ordered identifier.
func (s *Subscriber) ID() uint64 {
	return s.id
}

// Start registers the subscriber, greets it and begins reading and writing.
// The subscriber unregisters itself when the connection closes.
func (s *Subscriber) Start() {
	s.hub.Register(s)
	s.hub.send(s, welcomeMessage{Type: TypeWelcome, Subscriber: s.id})
	go s.writePump()
	go s.readPump()
}

// readPump pumps requests from the websocket connection to the handlers.
func (s *Subscriber) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.hub.Unregister(s)
		_ = s.conn.Close() // best-effort cleanup
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		s.dispatch(ctx, data)
	}
}

// writePump pumps queued messages to the websocket connection.
func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case payload, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.log.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the queue.
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Debug().Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.log.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
