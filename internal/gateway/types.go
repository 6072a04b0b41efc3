// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"github.com/goccy/go-json"
)

// User is a gateway user object.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Bot        bool   `json:"bot,omitempty"`
}

// DisplayName prefers the global display name over the username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Channel types used for origin descriptors.
const (
	channelTypeDM      = 1
	channelTypeGroupDM = 3
)

type Channel struct {
	ID         string `json:"id"`
	Type       int    `json:"type"`
	Name       string `json:"name,omitempty"`
	GuildID    string `json:"guild_id,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Recipients []User `json:"recipients,omitempty"`
}

// Private reports whether the channel is a direct or group message.
func (c Channel) Private() bool {
	return c.Type == channelTypeDM || c.Type == channelTypeGroupDM
}

type Guild struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon,omitempty"`
	Channels []Channel `json:"channels,omitempty"`
}

type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}

type MessageReference struct {
	MessageID string `json:"message_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	GuildID   string `json:"guild_id,omitempty"`
}

// Message is a MESSAGE_CREATE or MESSAGE_UPDATE payload. Updates may be partial.
type Message struct {
	ID               string            `json:"id"`
	ChannelID        string            `json:"channel_id"`
	GuildID          string            `json:"guild_id,omitempty"`
	Author           *User             `json:"author,omitempty"`
	Content          string            `json:"content"`
	Embeds           []json.RawMessage `json:"embeds,omitempty"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
	MessageReference *MessageReference `json:"message_reference,omitempty"`
}

// Empty reports whether the message carries nothing worth storing.
func (m *Message) Empty() bool {
	return m.Content == "" && len(m.Embeds) == 0 && len(m.Attachments) == 0
}

type messageDelete struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

type ready struct {
	SessionID       string    `json:"session_id"`
	User            User      `json:"user"`
	PrivateChannels []Channel `json:"private_channels"`
	Guilds          []*Guild  `json:"guilds"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}
