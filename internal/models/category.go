// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package models

import (
	"errors"
	"fmt"
	"strings"
)

// Platform identifies the remote chat platform a message came from.
type Platform string

const (
	// PlatformDiscord is the persistent-socket gateway platform.
	PlatformDiscord Platform = "discord"

	// PlatformTelegram is the client-API platform.
	PlatformTelegram Platform = "telegram"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformDiscord || p == PlatformTelegram
}

// ErrInvalidCategory is returned when a category string cannot be parsed.
var ErrInvalidCategory = errors.New("invalid category")

// Category is a platform-qualified chat identifier, e.g. "discord-123".
type Category string

// NewCategory builds the category for a chat on a platform.
func NewCategory(platform Platform, chatID string) Category {
	return Category(string(platform) + "-" + chatID)
}

// ParseCategory validates s and returns it as a Category. Chat ids may themselves
// contain dashes (telegram supergroups are negative), so only the first dash splits.
func ParseCategory(s string) (Category, error) {
	platform, chatID, ok := strings.Cut(s, "-")
	if !ok || chatID == "" || !Platform(platform).Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return Category(s), nil
}

// Platform returns the platform part of the category.
func (c Category) Platform() Platform {
	platform, _, _ := strings.Cut(string(c), "-")
	return Platform(platform)
}

// ChatID returns the chat id part of the category.
func (c Category) ChatID() string {
	_, chatID, _ := strings.Cut(string(c), "-")
	return chatID
}

// ChatRef is a chat a subscriber can watch.
type ChatRef struct {
	Platform Platform `json:"platform" validate:"required,oneof=discord telegram"`
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name,omitempty"`
	Icon     string   `json:"icon,omitempty"`
}

// Category returns the store category for the chat.
func (r ChatRef) Category() Category {
	return NewCategory(r.Platform, r.ID)
}
