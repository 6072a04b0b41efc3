// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package fanout

import "github.com/marioparaschiv/social-dashboard/internal/models"

// Message types exchanged with subscribers.
const (
	TypeWelcome            = "welcome"
	TypeAuthRequest        = "auth-request"
	TypeAuthResponse       = "auth-response"
	TypeRequestData        = "request-data"
	TypeDataUpdate         = "data-update"
	TypeSubscribeChats     = "subscribe-chats"
	TypeAddChats           = "add-chats"
	TypeAddChatsResponse   = "add-chats-response"
	TypeFetchChats         = "fetch-chats"
	TypeFetchChatsResponse = "fetch-chats-response"
	TypeRequestImage       = "request-image"
	TypeImageResponse      = "image-response"
	TypeRequestVideo       = "request-video"
	TypeVideoResponse      = "video-response"
	TypeRequestReply       = "request-reply"
	TypeReplyResponse      = "reply-response"
)

type envelope struct {
	Type string `json:"type"`
}

type authRequest struct {
	Password string `json:"password" validate:"required_without=Token"`
	Token    string `json:"token" validate:"required_without=Password"`
}

type subscribeChatsRequest struct {
	Chats []models.ChatRef `json:"chats" validate:"dive"`
	All   bool             `json:"all"`
}

type addChatsRequest struct {
	UUID  string           `json:"uuid" validate:"required"`
	Chats []models.ChatRef `json:"chats" validate:"dive"`
}

type mediaRequest struct {
	Hash string `json:"hash" validate:"required,digest"`
	Ext  string `json:"ext" validate:"omitempty,extension"`
}

// name is the content cache object name.
func (r mediaRequest) name() string {
	if r.Ext == "" {
		return r.Hash
	}
	return r.Hash + "." + r.Ext
}

type replyRequest struct {
	UUID        string            `json:"uuid" validate:"required"`
	MessageType models.Platform   `json:"messageType" validate:"required,platform"`
	Content     string            `json:"content" validate:"required"`
	Parameters  models.Parameters `json:"parameters"`
}

type welcomeMessage struct {
	Type       string `json:"type"`
	Subscriber uint64 `json:"subscriber"`
}

// authResponse carries both flags; older clients read failed, newer ones success.
type authResponse struct {
	Type      string `json:"type"`
	Failed    bool   `json:"failed"`
	Success   bool   `json:"success"`
	Token     string `json:"token,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

type dataUpdate struct {
	Type    string                                  `json:"type"`
	Data    map[models.Category][]models.StoreItem `json:"data"`
	Partial bool                                    `json:"partial"`
}

type addChatsResponse struct {
	Type string `json:"type"`
	UUID string `json:"uuid"`
}

type fetchChatsResponse struct {
	Type     string           `json:"type"`
	Discord  []models.ChatRef `json:"discord"`
	Telegram []models.ChatRef `json:"telegram"`
}

type mediaResponse struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
	Ext  string `json:"ext,omitempty"`
	Data string `json:"data"`
}

type replyResponse struct {
	Type    string `json:"type"`
	UUID    string `json:"uuid"`
	Success bool   `json:"success"`
}

func newAuthResponse(session *Session) authResponse {
	if session == nil {
		return authResponse{Type: TypeAuthResponse, Failed: true}
	}
	return authResponse{
		Type:      TypeAuthResponse,
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	}
}

func newDataUpdate(data map[models.Category][]models.StoreItem, partial bool) dataUpdate {
	if data == nil {
		data = map[models.Category][]models.StoreItem{}
	}
	return dataUpdate{Type: TypeDataUpdate, Data: data, Partial: partial}
}
