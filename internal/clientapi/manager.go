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

	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/models"
)

var (
	// ErrUnknownAccount is returned for an account index with no session.
	ErrUnknownAccount = errors.New("clientapi: unknown account")

	// ErrInvalidParameters is returned when reply parameters lack an origin or message.
	ErrInvalidParameters = errors.New("clientapi: invalid reply parameters")
)

// Account is a named session.
type Account struct {
	Name    string
	Session Session
}

// Config holds listener and reply settings shared by all accounts.
type Config struct {
	AlwaysTrack   []string
	ReplyAttempts int
	ReplyDelay    time.Duration
}

// Manager owns one Listener per account and routes replies and chat listings.
type Manager struct {
	accounts  []Account
	listeners []*Listener
	cfg       Config
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewManager creates listeners for accounts. Account indexes follow slice order.
func NewManager(accounts []Account, cfg Config, deps Dependencies) *Manager {
	if cfg.ReplyAttempts <= 0 {
		cfg.ReplyAttempts = 3
	}
	if cfg.ReplyDelay <= 0 {
		cfg.ReplyDelay = time.Second
	}
	m := &Manager{accounts: accounts, cfg: cfg, sleep: sleepContext}
	for i, a := range accounts {
		m.listeners = append(m.listeners, NewListener(i, a.Name, a.Session, cfg.AlwaysTrack, deps))
	}
	return m
}

// Listeners returns the listeners for supervision.
func (m *Manager) Listeners() []*Listener {
	return m.listeners
}

// Statuses returns a status per account in index order.
func (m *Manager) Statuses() []models.AccountStatus {
	out := make([]models.AccountStatus, len(m.listeners))
	for i, l := range m.listeners {
		out[i] = l.Status()
	}
	return out
}

// Platform identifies the manager in chat listings and reply routing.
func (m *Manager) Platform() models.Platform {
	return models.PlatformTelegram
}

// Chats lists every account's dialogs. An account that fails is logged and skipped.
func (m *Manager) Chats(ctx context.Context) ([]models.ChatRef, error) {
	seen := make(map[string]struct{})
	var out []models.ChatRef
	for i, a := range m.accounts {
		dialogs, err := a.Session.Dialogs(ctx)
		if err != nil {
			logging.Error().Err(err).Int("account", i).Msg("Failed to get chats for account")
			continue
		}
		for _, d := range dialogs {
			if _, ok := seen[d.ID]; ok {
				continue
			}
			seen[d.ID] = struct{}{}
			out = append(out, models.ChatRef{Platform: models.PlatformTelegram, ID: d.ID, Name: d.Name})
		}
	}
	return out, nil
}

// Reply sends content as a reply to the message in params, retrying failed sends.
func (m *Manager) Reply(ctx context.Context, params models.Parameters, content string) error {
	idx := params.Account()
	if idx < 0 || idx >= len(m.accounts) {
		return fmt.Errorf("%w: %d", ErrUnknownAccount, idx)
	}
	if params.OriginID == "" || params.MessageID == "" {
		return ErrInvalidParameters
	}

	session := m.accounts[idx].Session
	var err error
	for attempt := 1; attempt <= m.cfg.ReplyAttempts; attempt++ {
		if err = session.SendMessage(ctx, params.OriginID, content, params.MessageID); err == nil {
			return nil
		}
		logging.Warn().Err(err).Int("account", idx).Int("attempt", attempt).Msg("Reply failed")
		if attempt < m.cfg.ReplyAttempts {
			if serr := m.sleep(ctx, m.cfg.ReplyDelay); serr != nil {
				return serr
			}
		}
	}
	return fmt.Errorf("reply after %d attempts: %w", m.cfg.ReplyAttempts, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
