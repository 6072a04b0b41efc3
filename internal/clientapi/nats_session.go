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

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
)

// ErrBridge wraps an error reported by the bridge process.
var ErrBridge = errors.New("clientapi: bridge error")

const (
	updateBuffer          = 256
	defaultRequestTimeout = 30 * time.Second
)

// DialNATS connects to the NATS server the bridge uses. The connection retries
// forever; closure is reported to open update streams.
func DialNATS(url, name string) (*nats.Conn, error) {
	log := logging.WithComponent("nats")
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrlRedacted()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NATSSession is a Session served by a bridge process over NATS.
type NATSSession struct {
	nc      *nats.Conn
	prefix  string
	account string
	timeout time.Duration
	log     zerolog.Logger
}

// NewNATSSession returns a session for account under subject prefix.
func NewNATSSession(nc *nats.Conn, prefix, account string, timeout time.Duration) *NATSSession {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &NATSSession{
		nc:      nc,
		prefix:  prefix,
		account: account,
		timeout: timeout,
		log:     logging.WithComponent("clientapi").With().Str("name", logging.MaskPhone(account)).Logger(),
	}
}

func (s *NATSSession) subject(op string) string {
	return s.prefix + "." + s.account + "." + op
}

// Updates subscribes to the account's update subject. Undecodable updates are
// logged and skipped.
func (s *NATSSession) Updates(ctx context.Context) (<-chan Update, error) {
	msgs := make(chan *nats.Msg, updateBuffer)
	sub, err := s.nc.ChanSubscribe(s.subject("updates"), msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe updates: %w", err)
	}
	closed := sub.StatusChanged(nats.SubscriptionClosed)

	out := make(chan Update)
	go func() {
		defer close(out)
		defer func() { _ = sub.Unsubscribe() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-closed:
				return
			case m := <-msgs:
				var u Update
				if err := json.Unmarshal(m.Data, &u); err != nil {
					s.log.Warn().Err(err).Msg("Dropping malformed update")
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

type bridgeReply struct {
	Error string `json:"error,omitempty"`
}

type photoRequest struct {
	PeerID string `json:"peerId"`
}

type photoReply struct {
	bridgeReply
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
}

type dialogsReply struct {
	bridgeReply
	Dialogs []Dialog `json:"dialogs"`
}

type mediaReply struct {
	bridgeReply
	Data []byte `json:"data"`
}

type sendRequest struct {
	OriginID string `json:"originId"`
	Text     string `json:"text"`
	ReplyTo  string `json:"replyTo,omitempty"`
}

func (s *NATSSession) ProfilePhoto(ctx context.Context, peerID string) ([]byte, string, error) {
	var r photoReply
	if err := s.request(ctx, "photo", photoRequest{PeerID: peerID}, &r, &r.bridgeReply); err != nil {
		return nil, "", err
	}
	return r.Data, r.MimeType, nil
}

func (s *NATSSession) Dialogs(ctx context.Context) ([]Dialog, error) {
	var r dialogsReply
	if err := s.request(ctx, "dialogs", struct{}{}, &r, &r.bridgeReply); err != nil {
		return nil, err
	}
	return r.Dialogs, nil
}

func (s *NATSSession) DownloadMedia(ctx context.Context, ref MessageRef) ([]byte, error) {
	var r mediaReply
	if err := s.request(ctx, "media", ref, &r, &r.bridgeReply); err != nil {
		return nil, err
	}
	return r.Data, nil
}

func (s *NATSSession) SendMessage(ctx context.Context, originID, text, replyTo string) error {
	var r bridgeReply
	return s.request(ctx, "send", sendRequest{OriginID: originID, Text: text, ReplyTo: replyTo}, &r, &r)
}

// request performs one request/reply round trip. status is the reply's embedded
// error envelope.
func (s *NATSSession) request(ctx context.Context, op string, req, reply interface{}, status *bridgeReply) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.nc.RequestWithContext(ctx, s.subject(op), data)
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	if err := json.Unmarshal(msg.Data, reply); err != nil {
		return fmt.Errorf("decode %s reply: %w", op, err)
	}
	if status.Error != "" {
		return fmt.Errorf("%w: %s: %s", ErrBridge, op, status.Error)
	}
	return nil
}
