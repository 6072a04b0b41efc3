// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package models

import "github.com/goccy/go-json"

// Author is the sender of a message. Avatar is a content cache path, empty when the
// avatar could not be fetched.
type Author struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Avatar string `json:"avatar,omitempty"`
}

// Origin describes the chat a message was posted in.
type Origin struct {
	Platform    Platform `json:"platform"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        string   `json:"kind,omitempty"` // dm, group, guild, user, chat, channel, supergroup
	Avatar      string   `json:"avatar,omitempty"`
	GuildID     string   `json:"guildId,omitempty"`
	GuildName   string   `json:"guildName,omitempty"`
	ChannelName string   `json:"channelName,omitempty"`
}

// Attachment references a cached binary. Path is "<digest>[.<ext>]" inside the cache.
type Attachment struct {
	Name     string `json:"name"`
	Digest   string `json:"digest"`
	Path     string `json:"path"`
	MimeType string `json:"type"`
}

// Reply is a denormalized snapshot of the message being replied to.
type Reply struct {
	Author          string `json:"author"`
	Content         string `json:"content"`
	AttachmentCount int    `json:"attachmentCount"`
}

// Parameters holds what is needed to reply to the message through its platform.
// Discord uses MessageID, ChannelID and GuildID; Telegram uses MessageID and OriginID.
type Parameters struct {
	MessageID    string `json:"messageId" validate:"required"`
	ChannelID    string `json:"channelId,omitempty"`
	GuildID      string `json:"guildId,omitempty"`
	OriginID     string `json:"originId,omitempty"`
	AccountIndex *int   `json:"accountIndex" validate:"required"`
}

// Account returns the account index, or -1 when unset.
func (p Parameters) Account() int {
	if p.AccountIndex == nil {
		return -1
	}
	return *p.AccountIndex
}

// AccountIndex is a convenience for building Parameters literals.
func AccountIndex(i int) *int {
	return &i
}

// StoreItem is a normalized message as held by the category store.
type StoreItem struct {
	// SavedAt is set at first insertion (epoch ms) and preserved across edits.
	SavedAt     int64           `json:"savedAt"`
	Type        Platform        `json:"type"`
	Groups      []string        `json:"groups,omitempty"`
	Listeners   []string        `json:"listeners,omitempty"`
	ID          string          `json:"id"`
	Author      Author          `json:"author"`
	Origin      Origin          `json:"origin"`
	Content     string          `json:"content"`
	Attachments []Attachment    `json:"attachments"`
	Embeds      json.RawMessage `json:"embeds,omitempty"`
	Reply       *Reply          `json:"reply"`
	Edited      bool            `json:"edited"`
	Parameters  Parameters      `json:"parameters"`
}

// Clone returns a copy that shares no slices with item.
func (item StoreItem) Clone() StoreItem {
	out := item
	if item.Groups != nil {
		out.Groups = append([]string(nil), item.Groups...)
	}
	if item.Listeners != nil {
		out.Listeners = append([]string(nil), item.Listeners...)
	}
	if item.Attachments != nil {
		out.Attachments = append([]Attachment(nil), item.Attachments...)
	}
	if item.Embeds != nil {
		out.Embeds = append(json.RawMessage(nil), item.Embeds...)
	}
	if item.Reply != nil {
		r := *item.Reply
		out.Reply = &r
	}
	if item.Parameters.AccountIndex != nil {
		out.Parameters.AccountIndex = AccountIndex(*item.Parameters.AccountIndex)
	}
	return out
}
