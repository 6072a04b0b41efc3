// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package fanout

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/marioparaschiv/social-dashboard/internal/metrics"
	"github.com/marioparaschiv/social-dashboard/internal/models"
	"github.com/marioparaschiv/social-dashboard/internal/validation"
)

var knownTypes = map[string]struct{}{
	TypeAuthRequest:    {},
	TypeRequestData:    {},
	TypeSubscribeChats: {},
	TypeAddChats:       {},
	TypeFetchChats:     {},
	TypeRequestImage:   {},
	TypeRequestVideo:   {},
	TypeRequestReply:   {},
}

// dispatch routes one inbound frame. Requests other than auth-request are
// dropped until the subscriber has authenticated.
func (s *Subscriber) dispatch(ctx context.Context, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		s.log.Debug().Err(err).Msg("ignoring malformed subscriber message")
		return
	}

	if _, ok := knownTypes[env.Type]; !ok {
		metrics.SubscriberMessages.WithLabelValues("unknown").Inc()
		s.log.Debug().Str("type", env.Type).Msg("ignoring unknown subscriber message")
		return
	}
	metrics.SubscriberMessages.WithLabelValues(env.Type).Inc()

	if env.Type == TypeAuthRequest {
		s.handleAuth(data)
		return
	}
	if !s.hub.isAuthenticated(s) {
		s.hub.security.LogUnauthenticatedRequest(s.id, s.remoteAddr, env.Type)
		return
	}

	switch env.Type {
	case TypeRequestData:
		s.hub.send(s, newDataUpdate(s.hub.snapshotFor(s), false))
	case TypeSubscribeChats:
		s.handleSubscribeChats(data)
	case TypeAddChats:
		s.handleAddChats(data)
	case TypeFetchChats:
		go s.handleFetchChats(ctx)
	case TypeRequestImage:
		s.handleMedia(data, TypeImageResponse)
	case TypeRequestVideo:
		s.handleMedia(data, TypeVideoResponse)
	case TypeRequestReply:
		s.handleReply(ctx, data)
	}
}

// decode unmarshals and validates a request. Failures are logged and reported
// as false.
func (s *Subscriber) decode(data []byte, v interface{}) bool {
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Debug().Err(err).Msg("failed to decode subscriber request")
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		s.log.Debug().Str("errors", verr.Error()).Msg("invalid subscriber request")
		return false
	}
	return true
}

func (s *Subscriber) handleAuth(data []byte) {
	var req authRequest
	if !s.decode(data, &req) {
		s.rejectAuth("", "malformed auth request")
		return
	}

	method := "password"
	if req.Password == "" {
		method = "token"
		if _, err := s.hub.auth.VerifyToken(req.Token); err != nil {
			s.rejectAuth(method, err.Error())
			return
		}
	} else if err := s.hub.auth.CheckPassword(req.Password); err != nil {
		s.rejectAuth(method, err.Error())
		return
	}

	session, err := s.hub.auth.IssueToken()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue session token")
		s.rejectAuth(method, "token issue failed")
		return
	}

	s.hub.authenticate(s)
	s.hub.security.LogAuthSuccess(s.id, method, session.ID, s.remoteAddr, s.userAgent)
	s.hub.send(s, newAuthResponse(&session))
}

func (s *Subscriber) rejectAuth(method, reason string) {
	metrics.SubscriberAuthFailures.Inc()
	s.hub.security.LogAuthFailure(s.id, method, s.remoteAddr, s.userAgent, reason)
	s.hub.send(s, newAuthResponse(nil))
}

func categoriesOf(chats []models.ChatRef) []models.Category {
	out := make([]models.Category, len(chats))
	for i, c := range chats {
		out[i] = c.Category()
	}
	return out
}

func (s *Subscriber) handleSubscribeChats(data []byte) {
	var req subscribeChatsRequest
	if !s.decode(data, &req) {
		return
	}
	s.hub.setInterest(s, categoriesOf(req.Chats), req.All)
	s.log.Debug().Int("chats", len(req.Chats)).Bool("all", req.All).Msg("subscriber interest set")
}

func (s *Subscriber) handleAddChats(data []byte) {
	var req addChatsRequest
	if !s.decode(data, &req) {
		return
	}
	s.hub.addInterest(s, categoriesOf(req.Chats))
	s.hub.send(s, addChatsResponse{Type: TypeAddChatsResponse, UUID: req.UUID})
}

// handleFetchChats lists the chats of every backend. A failing backend
// contributes nothing.
func (s *Subscriber) handleFetchChats(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.hub.cfg.RequestTimeout)
	defer cancel()

	resp := fetchChatsResponse{
		Type:     TypeFetchChatsResponse,
		Discord:  []models.ChatRef{},
		Telegram: []models.ChatRef{},
	}
	for _, b := range s.hub.backendList() {
		chats, err := b.Chats(ctx)
		if err != nil {
			s.log.Warn().Err(err).Str("platform", string(b.Platform())).Msg("failed to fetch chats")
			continue
		}
		switch b.Platform() {
		case models.PlatformDiscord:
			resp.Discord = append(resp.Discord, chats...)
		case models.PlatformTelegram:
			resp.Telegram = append(resp.Telegram, chats...)
		}
	}
	s.hub.send(s, resp)
}

// handleMedia answers with the cached object as a data URL. Unknown objects get
// no response.
func (s *Subscriber) handleMedia(data []byte, responseType string) {
	var req mediaRequest
	if !s.decode(data, &req) || s.hub.media == nil {
		return
	}
	url, err := s.hub.media.DataURL(req.name())
	if err != nil {
		s.log.Debug().Err(err).Str("object", req.name()).Msg("media request not served")
		return
	}
	s.hub.send(s, mediaResponse{Type: responseType, Hash: req.Hash, Ext: req.Ext, Data: url})
}

// handleReply validates synchronously and sends through the backend in the
// background so slow platforms do not stall the read loop.
func (s *Subscriber) handleReply(ctx context.Context, data []byte) {
	var req replyRequest
	if !s.decode(data, &req) {
		s.hub.send(s, replyResponse{Type: TypeReplyResponse, UUID: req.UUID})
		return
	}
	backend, ok := s.hub.backends[req.MessageType]
	if !ok {
		s.log.Warn().Str("platform", string(req.MessageType)).Msg("no backend for reply")
		s.hub.send(s, replyResponse{Type: TypeReplyResponse, UUID: req.UUID})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(ctx, s.hub.cfg.RequestTimeout)
		defer cancel()

		err := backend.Reply(ctx, req.Parameters, req.Content)
		if err != nil {
			s.log.Warn().Err(err).
				Str("platform", string(req.MessageType)).
				Int("account", req.Parameters.Account()).
				Msg("reply failed")
		}
		s.hub.send(s, replyResponse{Type: TypeReplyResponse, UUID: req.UUID, Success: err == nil})
	}()
}
