// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package clientapi

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/marioparaschiv/social-dashboard/internal/contentcache"
	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/metrics"
	"github.com/marioparaschiv/social-dashboard/internal/models"
)

// ErrSessionClosed is returned by Serve when the update stream ends.
var ErrSessionClosed = errors.New("clientapi: session closed")

const platform = string(models.PlatformTelegram)

// Session is the connection to one client-API account.
type Session interface {
	// Updates streams new and edited messages until ctx is done or the
	// session ends, when the channel is closed.
	Updates(ctx context.Context) (<-chan Update, error)
	// ProfilePhoto returns a peer's profile photo and its MIME type.
	ProfilePhoto(ctx context.Context, peerID string) ([]byte, string, error)
	Dialogs(ctx context.Context) ([]Dialog, error)
	DownloadMedia(ctx context.Context, ref MessageRef) ([]byte, error)
	SendMessage(ctx context.Context, originID, text, replyTo string) error
}

// Store is the part of the category store listeners write to.
type Store interface {
	ReconcileOrAdd(category models.Category, item models.StoreItem) bool
}

// InterestGate reports whether any subscriber watches a category.
type InterestGate interface {
	Interested(category models.Category) bool
}

// Cache stores downloaded media.
type Cache interface {
	Put(data []byte, mimeType string) (contentcache.Entry, error)
}

// Matcher applies listener rules to a normalized item and reports whether it
// should be stored.
type Matcher interface {
	Match(item *models.StoreItem) bool
}

// Dependencies wires listeners into the pipeline. Store is required.
type Dependencies struct {
	Store   Store
	Gate    InterestGate
	Cache   Cache
	Matcher Matcher
}

// Listener ingests one account's updates.
type Listener struct {
	account     int
	name        string
	session     Session
	deps        Dependencies
	alwaysTrack map[string]struct{}
	log         zerolog.Logger

	// avatars memoizes cached profile photos by peer id. Only the Serve
	// goroutine touches it.
	avatars map[string]string

	state atomic.Int32
}

// NewListener creates a listener for account index account. name labels logs.
func NewListener(account int, name string, session Session, alwaysTrack []string, deps Dependencies) *Listener {
	l := &Listener{
		account:     account,
		name:        name,
		session:     session,
		deps:        deps,
		alwaysTrack: make(map[string]struct{}, len(alwaysTrack)),
		log: logging.WithComponent("clientapi").With().
			Int("account", account).
			Str("name", logging.MaskPhone(name)).
			Logger(),
		avatars: make(map[string]string),
	}
	for _, id := range alwaysTrack {
		l.alwaysTrack[id] = struct{}{}
	}
	return l
}

func (l *Listener) String() string {
	return "clientapi-" + strconv.Itoa(l.account)
}

// Status reports whether the listener is currently consuming updates.
func (l *Listener) Status() models.AccountStatus {
	return models.AccountStatus{
		Platform:     models.PlatformTelegram,
		AccountIndex: l.account,
		Account:      logging.MaskPhone(l.name),
		State:        models.ConnectionState(l.state.Load()),
	}
}

// Serve consumes updates until ctx is done or the session closes.
func (l *Listener) Serve(ctx context.Context) error {
	l.state.Store(int32(models.StateConnecting))
	defer l.state.Store(int32(models.StateDisconnected))

	updates, err := l.session.Updates(ctx)
	if err != nil {
		return err
	}
	l.state.Store(int32(models.StateConnected))
	l.log.Info().Msg("Listening for updates")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.log.Warn().Msg("Update stream closed")
				return ErrSessionClosed
			}
			l.handle(ctx, u)
		}
	}
}

func (l *Listener) handle(ctx context.Context, u Update) {
	start := time.Now()
	msg := &u.Message

	if msg.Chat == nil || msg.ChatID == "" {
		metrics.MessagesSkipped.WithLabelValues(platform, "unknown_chat").Inc()
		return
	}
	if !msg.Sender.canAuthor() {
		metrics.MessagesSkipped.WithLabelValues(platform, "sender").Inc()
		return
	}

	category := models.NewCategory(models.PlatformTelegram, msg.ChatID)
	if !l.tracked(category, msg.ChatID) {
		metrics.MessagesSkipped.WithLabelValues(platform, "not_watched").Inc()
		return
	}

	item := models.StoreItem{
		Type: models.PlatformTelegram,
		ID:   msg.ID,
		Author: models.Author{
			Name:   displayName(msg.Sender),
			ID:     msg.Sender.ID,
			Avatar: l.avatar(ctx, msg.Sender),
		},
		Origin: models.Origin{
			Platform: models.PlatformTelegram,
			ID:       msg.ChatID,
			Name:     displayName(msg.Chat),
			Kind:     string(msg.Chat.Kind),
			Avatar:   l.avatar(ctx, msg.Chat),
		},
		Content:     FormatContent(msg.Text, msg.Entities),
		Attachments: l.attachments(ctx, msg),
		Reply:       reply(msg.ReplyTo),
		Edited:      msg.Edited(),
		Parameters: models.Parameters{
			MessageID:    msg.ID,
			OriginID:     msg.OriginID,
			AccountIndex: models.AccountIndex(l.account),
		},
	}

	if l.deps.Matcher != nil && !l.deps.Matcher.Match(&item) {
		metrics.MessagesSkipped.WithLabelValues(platform, "no_listener").Inc()
		return
	}

	edited := l.deps.Store.ReconcileOrAdd(category, item)
	metrics.RecordIngest(platform, edited, time.Since(start))
	l.log.Debug().Str("category", string(category)).Str("message", msg.ID).Bool("edited", edited).Msg("Message stored")
}

// tracked applies the interest gate. always_track chats bypass it.
func (l *Listener) tracked(category models.Category, chatID string) bool {
	if _, ok := l.alwaysTrack[chatID]; ok {
		return true
	}
	return l.deps.Gate == nil || l.deps.Gate.Interested(category)
}

func displayName(p *Peer) string {
	if p == nil {
		return "Unknown"
	}
	if p.Name != "" {
		return p.Name
	}
	if p.Username != "" {
		return p.Username
	}
	return "Unknown"
}

func reply(m *Message) *models.Reply {
	if m == nil {
		return nil
	}
	count := 0
	if m.Media != nil {
		count = 1
	}
	return &models.Reply{
		Author:          displayName(m.Sender),
		Content:         FormatContent(m.Text, m.Entities),
		AttachmentCount: count,
	}
}

// attachments downloads the message's media into the cache. Web page previews
// are not attachments.
func (l *Listener) attachments(ctx context.Context, msg *Message) []models.Attachment {
	out := make([]models.Attachment, 0, 1)
	if msg.Media == nil || msg.Media.WebPage || l.deps.Cache == nil {
		return out
	}

	data, err := l.session.DownloadMedia(ctx, msg.Ref())
	if err != nil {
		metrics.IngestErrors.WithLabelValues(platform, "attachment").Inc()
		l.log.Warn().Err(err).Str("message", msg.ID).Msg("Failed to download media")
		return out
	}
	if len(data) == 0 {
		return out
	}

	mimeType := msg.Media.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	entry, err := l.deps.Cache.Put(data, mimeType)
	if err != nil {
		metrics.IngestErrors.WithLabelValues(platform, "attachment").Inc()
		l.log.Warn().Err(err).Str("message", msg.ID).Msg("Failed to cache media")
		return out
	}

	name := msg.Media.FileName
	if name == "" {
		name = entry.Path()
	}
	return append(out, models.Attachment{
		Name:     name,
		Digest:   entry.Digest,
		Path:     entry.Path(),
		MimeType: mimeType,
	})
}

// avatar caches a peer's profile photo once per listener run.
func (l *Listener) avatar(ctx context.Context, p *Peer) string {
	if p == nil || !p.HasPhoto || l.deps.Cache == nil {
		return ""
	}
	if path, ok := l.avatars[p.ID]; ok {
		return path
	}

	data, mimeType, err := l.session.ProfilePhoto(ctx, p.ID)
	if err != nil || len(data) == 0 {
		if err != nil {
			metrics.IngestErrors.WithLabelValues(platform, "avatar").Inc()
			l.log.Debug().Err(err).Str("peer", p.ID).Msg("Profile photo unavailable")
		}
		return ""
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	entry, err := l.deps.Cache.Put(data, mimeType)
	if err != nil {
		metrics.IngestErrors.WithLabelValues(platform, "avatar").Inc()
		return ""
	}
	l.avatars[p.ID] = entry.Path()
	return entry.Path()
}
