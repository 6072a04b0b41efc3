// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/marioparaschiv/social-dashboard/internal/models"
)

var (
	// ErrUnknownAccount is returned for an account index with no connection.
	ErrUnknownAccount = errors.New("gateway: unknown account")

	// ErrInvalidParameters is returned when reply parameters lack a channel or message.
	ErrInvalidParameters = errors.New("gateway: invalid reply parameters")
)

// Manager owns one Connection per configured token.
type Manager struct {
	conns []*Connection
}

// NewManager creates a connection for every token. Account indexes follow token order.
func NewManager(tokens []string, cfg Config, deps Dependencies) *Manager {
	m := &Manager{conns: make([]*Connection, 0, len(tokens))}
	for i, token := range tokens {
		m.conns = append(m.conns, NewConnection(i, token, cfg, deps))
	}
	return m
}

// Connections returns the managed connections for supervision.
func (m *Manager) Connections() []*Connection {
	return m.conns
}

// Platform identifies the manager in chat listings and reply routing.
func (m *Manager) Platform() models.Platform {
	return models.PlatformDiscord
}

// Statuses returns every account's latest status.
func (m *Manager) Statuses() []models.AccountStatus {
	out := make([]models.AccountStatus, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c.Status())
	}
	return out
}

// Chats lists the channels visible to any account, deduplicated by id.
func (m *Manager) Chats(_ context.Context) ([]models.ChatRef, error) {
	seen := make(map[string]struct{})
	var out []models.ChatRef
	for _, c := range m.conns {
		for _, ref := range c.Chats() {
			if _, ok := seen[ref.ID]; ok {
				continue
			}
			seen[ref.ID] = struct{}{}
			out = append(out, ref)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Reply answers a stored message through the account that received it.
func (m *Manager) Reply(ctx context.Context, params models.Parameters, content string) error {
	idx := params.Account()
	if idx < 0 || idx >= len(m.conns) {
		return fmt.Errorf("%w: %d", ErrUnknownAccount, idx)
	}
	if params.ChannelID == "" || params.MessageID == "" {
		return ErrInvalidParameters
	}
	return m.conns[idx].rest.SendMessage(ctx, params.ChannelID, params.GuildID, params.MessageID, content)
}
