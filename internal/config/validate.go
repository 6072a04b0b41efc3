// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/marioparaschiv/social-dashboard/internal/validation"
)

// Validate checks struct constraints and the cross-field rules that tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateDiscord(); err != nil {
		return err
	}
	return c.validateTelegram()
}

func (c *Config) validateAuth() error {
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return errors.New("DASHBOARD_PASSWORD or DASHBOARD_PASSWORD_HASH is required")
	}
	if c.Auth.PasswordHash != "" && !strings.HasPrefix(c.Auth.PasswordHash, "$2") {
		return errors.New("DASHBOARD_PASSWORD_HASH must be a bcrypt hash")
	}
	return nil
}

func (c *Config) validateDiscord() error {
	u, err := url.Parse(c.Discord.GatewayURL)
	if err != nil {
		return fmt.Errorf("DISCORD_GATEWAY_URL is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("DISCORD_GATEWAY_URL must use ws or wss, got %q", u.Scheme)
	}

	seen := make(map[string]struct{}, len(c.Discord.Tokens))
	for i, token := range c.Discord.Tokens {
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("discord token %d is empty", i)
		}
		if _, dup := seen[token]; dup {
			return fmt.Errorf("discord token %d is configured twice", i)
		}
		seen[token] = struct{}{}
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if len(c.Telegram.Accounts) == 0 {
		return nil
	}
	if c.Telegram.NATSURL == "" && !c.Telegram.EmbeddedNATS.Enabled {
		return errors.New("TELEGRAM_NATS_URL or TELEGRAM_EMBEDDED_NATS is required when TELEGRAM_ACCOUNTS is set")
	}
	seen := make(map[string]struct{}, len(c.Telegram.Accounts))
	for _, account := range c.Telegram.Accounts {
		if strings.ContainsAny(account, ".*> ") {
			return fmt.Errorf("telegram account %q must not contain NATS subject tokens", account)
		}
		if _, dup := seen[account]; dup {
			return fmt.Errorf("telegram account %q is configured twice", account)
		}
		seen[account] = struct{}{}
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
