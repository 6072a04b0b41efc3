// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/marioparaschiv/social-dashboard/internal/contentcache"
	"github.com/marioparaschiv/social-dashboard/internal/metrics"
	"github.com/marioparaschiv/social-dashboard/internal/models"
)

// Store is the part of the category store the gateway writes to.
type Store interface {
	ReconcileOrAdd(category models.Category, item models.StoreItem) bool
	Delete(category models.Category, id string) bool
}

// InterestGate reports whether any subscriber watches a category.
type InterestGate interface {
	Interested(category models.Category) bool
}

// ObjectFetcher downloads a remote object into the content cache.
type ObjectFetcher interface {
	Fetch(ctx context.Context, url, mimeType string) (contentcache.Entry, error)
}

// Matcher applies listener rules to a normalized item. It may fill Groups and
// Listeners and reports whether the item should be stored.
type Matcher interface {
	Match(item *models.StoreItem) bool
}

type messageFetcher interface {
	GetMessage(ctx context.Context, channelID, messageID string) (*Message, error)
}

const platform = string(models.PlatformDiscord)

type ingestKind int

const (
	ingestCreate ingestKind = iota
	ingestUpdate
	ingestDelete
)

type ingestJob struct {
	kind ingestKind
	msg  *Message
	del  *messageDelete
}

// ingestor normalizes message events into store items. It runs on its own
// goroutine so network calls never stall the event loop.
type ingestor struct {
	account     int
	cdnBase     string
	meta        *metadata
	rest        messageFetcher
	store       Store
	gate        InterestGate
	fetcher     ObjectFetcher
	matcher     Matcher
	replacer    *strings.Replacer
	alwaysTrack map[string]struct{}
	log         zerolog.Logger
}

func newIngestor(account int, cfg Config, meta *metadata, rest messageFetcher, deps Dependencies, log zerolog.Logger) *ingestor {
	in := &ingestor{
		account:     account,
		cdnBase:     strings.TrimRight(cfg.CDNBase, "/"),
		meta:        meta,
		rest:        rest,
		store:       deps.Store,
		gate:        deps.Gate,
		fetcher:     deps.Fetcher,
		matcher:     deps.Matcher,
		alwaysTrack: make(map[string]struct{}, len(cfg.AlwaysTrack)),
		log:         log,
	}
	for _, id := range cfg.AlwaysTrack {
		in.alwaysTrack[id] = struct{}{}
	}
	if len(cfg.Replacements) > 0 {
		pairs := make([]string, 0, 2*len(cfg.Replacements))
		for _, r := range cfg.Replacements {
			pairs = append(pairs, r.From, r.To)
		}
		in.replacer = strings.NewReplacer(pairs...)
	}
	return in
}

func (in *ingestor) run(ctx context.Context, jobs <-chan ingestJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-jobs:
			in.handle(ctx, job)
		}
	}
}

func (in *ingestor) handle(ctx context.Context, job ingestJob) {
	switch job.kind {
	case ingestDelete:
		if in.store.Delete(models.NewCategory(models.PlatformDiscord, job.del.ChannelID), job.del.ID) {
			in.log.Debug().Str("message", job.del.ID).Msg("Removed deleted message")
		}
	case ingestCreate, ingestUpdate:
		in.message(ctx, job.msg)
	}
}

func (in *ingestor) message(ctx context.Context, msg *Message) {
	start := time.Now()

	if msg.Empty() {
		metrics.MessagesSkipped.WithLabelValues(platform, "empty").Inc()
		return
	}
	if msg.Author == nil {
		metrics.MessagesSkipped.WithLabelValues(platform, "partial").Inc()
		return
	}

	channel, ok := in.meta.channel(msg.ChannelID)
	if !ok {
		metrics.MessagesSkipped.WithLabelValues(platform, "unknown_channel").Inc()
		return
	}

	category := models.NewCategory(models.PlatformDiscord, channel.ID)
	if !in.tracked(category, channel.ID) {
		metrics.MessagesSkipped.WithLabelValues(platform, "not_watched").Inc()
		return
	}

	guildID := msg.GuildID
	if guildID == "" {
		guildID = channel.GuildID
	}
	guild, hasGuild := in.meta.guild(guildID)

	item := models.StoreItem{
		Type: models.PlatformDiscord,
		ID:   msg.ID,
		Author: models.Author{
			Name:   msg.Author.Username,
			ID:     msg.Author.ID,
			Avatar: in.cacheAvatar(ctx, in.userAvatarURL(msg.Author)),
		},
		Origin:      in.origin(ctx, channel, guild, hasGuild),
		Content:     in.replace(msg.Content),
		Attachments: in.attachments(ctx, msg.Attachments),
		Reply:       in.reply(ctx, msg),
		Parameters: models.Parameters{
			MessageID:    msg.ID,
			ChannelID:    channel.ID,
			GuildID:      guild.ID,
			AccountIndex: models.AccountIndex(in.account),
		},
	}
	if len(msg.Embeds) > 0 {
		if raw, err := json.Marshal(msg.Embeds); err == nil {
			item.Embeds = raw
		}
	}

	if in.matcher != nil && !in.matcher.Match(&item) {
		metrics.MessagesSkipped.WithLabelValues(platform, "no_listener").Inc()
		return
	}

	edited := in.store.ReconcileOrAdd(category, item)
	metrics.RecordIngest(platform, edited, time.Since(start))
	in.log.Debug().Str("category", string(category)).Str("message", msg.ID).Bool("edited", edited).Msg("Message stored")
}

// tracked applies the interest gate. Without a gate every channel is tracked.
func (in *ingestor) tracked(category models.Category, channelID string) bool {
	if _, ok := in.alwaysTrack[channelID]; ok {
		return true
	}
	return in.gate == nil || in.gate.Interested(category)
}

func (in *ingestor) replace(content string) string {
	if in.replacer == nil {
		return content
	}
	return in.replacer.Replace(content)
}

func (in *ingestor) reply(ctx context.Context, msg *Message) *models.Reply {
	ref := msg.MessageReference
	if ref == nil || ref.MessageID == "" || in.rest == nil {
		return nil
	}
	channelID := ref.ChannelID
	if channelID == "" {
		channelID = msg.ChannelID
	}

	replied, err := in.rest.GetMessage(ctx, channelID, ref.MessageID)
	if err != nil {
		metrics.IngestErrors.WithLabelValues(platform, "reply").Inc()
		in.log.Warn().Err(err).Str("message", ref.MessageID).Msg("Failed to resolve replied message")
		return nil
	}
	if replied == nil || replied.Author == nil {
		return nil
	}
	return &models.Reply{
		Author:          replied.Author.Username,
		Content:         replied.Content,
		AttachmentCount: len(replied.Attachments),
	}
}

func (in *ingestor) attachments(ctx context.Context, list []Attachment) []models.Attachment {
	out := make([]models.Attachment, 0, len(list))
	if in.fetcher == nil {
		return out
	}
	for _, a := range list {
		entry, err := in.fetcher.Fetch(ctx, a.URL, a.ContentType)
		if err != nil {
			metrics.IngestErrors.WithLabelValues(platform, "attachment").Inc()
			in.log.Warn().Err(err).Str("attachment", a.Filename).Msg("Dropping attachment")
			continue
		}
		out = append(out, models.Attachment{
			Name:     a.Filename,
			Digest:   entry.Digest,
			Path:     entry.Path(),
			MimeType: entry.MimeType,
		})
	}
	return out
}

func (in *ingestor) origin(ctx context.Context, ch Channel, g Guild, hasGuild bool) models.Origin {
	o := models.Origin{
		Platform:    models.PlatformDiscord,
		ID:          ch.ID,
		Name:        channelLabel(ch),
		ChannelName: ch.Name,
	}

	switch {
	case hasGuild:
		o.Kind = "guild"
		o.Name = g.Name
		o.GuildID = g.ID
		o.GuildName = g.Name
		if g.Icon != "" {
			o.Avatar = in.cacheAvatar(ctx, in.cdnBase+"/icons/"+g.ID+"/"+g.Icon+".png")
		}
	case ch.Type == channelTypeGroupDM:
		o.Kind = "group"
		if ch.Icon != "" {
			o.Avatar = in.cacheAvatar(ctx, in.cdnBase+"/channel-icons/"+ch.ID+"/"+ch.Icon+".png")
		}
	default:
		o.Kind = "dm"
		if len(ch.Recipients) > 0 {
			o.Avatar = in.cacheAvatar(ctx, in.userAvatarURL(&ch.Recipients[0]))
		}
	}
	return o
}

func (in *ingestor) userAvatarURL(u *User) string {
	if u == nil || u.Avatar == "" {
		return ""
	}
	return in.cdnBase + "/avatars/" + u.ID + "/" + u.Avatar + ".png"
}

// cacheAvatar stores an avatar and returns its cache path, or "" on failure.
func (in *ingestor) cacheAvatar(ctx context.Context, url string) string {
	if url == "" || in.fetcher == nil {
		return ""
	}
	entry, err := in.fetcher.Fetch(ctx, url, "image/png")
	if err != nil {
		metrics.IngestErrors.WithLabelValues(platform, "avatar").Inc()
		in.log.Debug().Err(err).Str("url", url).Msg("Avatar unavailable")
		return ""
	}
	return entry.Path()
}
