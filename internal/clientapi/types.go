// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package clientapi

// UpdateKind distinguishes new messages from edits.
type UpdateKind string

const (
	UpdateNew    UpdateKind = "new"
	UpdateEdited UpdateKind = "edited"
)

// PeerKind is the kind of a sender or chat.
type PeerKind string

const (
	PeerUser       PeerKind = "user"
	PeerChat       PeerKind = "chat"
	PeerChannel    PeerKind = "channel"
	PeerSupergroup PeerKind = "supergroup"
)

// Peer is a user, group or channel.
type Peer struct {
	ID       string   `json:"id"`
	Kind     PeerKind `json:"kind"`
	Name     string   `json:"name"`
	Username string   `json:"username,omitempty"`
	HasPhoto bool     `json:"hasPhoto,omitempty"`
}

// canAuthor reports whether messages from this peer are ingested. Only users
// and channels post under their own identity.
func (p *Peer) canAuthor() bool {
	return p != nil && (p.Kind == PeerUser || p.Kind == PeerChannel)
}

// Entity is a formatting entity. Offset and Length count UTF-16 code units.
type Entity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
}

// EntityTextURL is a span of text linking to URL.
const EntityTextURL = "text_url"

// Media describes a message's attachment.
type Media struct {
	MimeType string `json:"mimeType,omitempty"`
	FileName string `json:"fileName,omitempty"`
	WebPage  bool   `json:"webPage,omitempty"`
}

// Message is a platform message as delivered by a Session.
type Message struct {
	ID       string   `json:"id"`
	ChatID   string   `json:"chatId"`
	OriginID string   `json:"originId"`
	Chat     *Peer    `json:"chat,omitempty"`
	Sender   *Peer    `json:"sender,omitempty"`
	Text     string   `json:"text"`
	Entities []Entity `json:"entities,omitempty"`
	EditDate int64    `json:"editDate,omitempty"`
	EditHide bool     `json:"editHide,omitempty"`
	Media    *Media   `json:"media,omitempty"`
	ReplyTo  *Message `json:"replyTo,omitempty"`
}

// Edited reports a visible edit.
func (m *Message) Edited() bool {
	return m.EditDate != 0 && !m.EditHide
}

// Ref addresses the message for media downloads.
func (m *Message) Ref() MessageRef {
	return MessageRef{ChatID: m.ChatID, OriginID: m.OriginID, MessageID: m.ID}
}

// Update is one event on a Session's stream.
type Update struct {
	Kind    UpdateKind `json:"kind"`
	Message Message    `json:"message"`
}

// MessageRef identifies a message within a chat.
type MessageRef struct {
	ChatID    string `json:"chatId"`
	OriginID  string `json:"originId"`
	MessageID string `json:"messageId"`
}

// Dialog is a chat the account can see.
type Dialog struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
