// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	closeWait        = time.Second

	// Dispatches such as READY on large accounts are several megabytes.
	maxFrameSize = 64 << 20
)

// Transport is one live gateway socket. ReadMessage is called from a single
// reader goroutine; WriteMessage and Close from the event loop.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close(code int, reason string) error
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, url string) (Transport, error)
}

// WebsocketDialer dials gateway sockets with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

// NewWebsocketDialer returns a dialer with the default handshake timeout.
func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{
		Dialer: &websocket.Dialer{
			Proxy:             http.ProxyFromEnvironment,
			HandshakeTimeout:  handshakeTimeout,
			EnableCompression: true,
		},
	}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Transport, error) {
	conn, resp, err := d.Dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	conn.SetReadLimit(maxFrameSize)
	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) WriteMessage(data []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	writeErr := t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
	closeErr := t.conn.Close()
	if writeErr != nil && !errors.Is(writeErr, websocket.ErrCloseSent) {
		return errors.Join(writeErr, closeErr)
	}
	return closeErr
}

// closeInfo describes why a transport stopped.
type closeInfo struct {
	code   int
	reason string
}

// closeInfoFromError maps a read error to a close code. Errors without a close
// frame count as abnormal closure.
func closeInfoFromError(err error) closeInfo {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return closeInfo{code: ce.Code, reason: ce.Text}
	}
	return closeInfo{code: CloseAbnormal, reason: err.Error()}
}
