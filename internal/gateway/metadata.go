// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"sort"
	"strings"
	"sync"

	"github.com/marioparaschiv/social-dashboard/internal/models"
)

// metadata caches channels and guilds seen on the gateway. The event loop writes
// it; the ingest worker and chat directory read it.
type metadata struct {
	mu       sync.RWMutex
	channels map[string]Channel
	guilds   map[string]Guild
}

func newMetadata() *metadata {
	return &metadata{
		channels: make(map[string]Channel),
		guilds:   make(map[string]Guild),
	}
}

// loadReady replaces the cache with the READY snapshot.
func (m *metadata) loadReady(r *ready) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.channels = make(map[string]Channel, len(r.PrivateChannels))
	m.guilds = make(map[string]Guild, len(r.Guilds))

	for _, ch := range r.PrivateChannels {
		m.channels[ch.ID] = ch
	}
	for _, g := range r.Guilds {
		if g == nil {
			continue
		}
		m.putGuildLocked(*g)
	}
}

func (m *metadata) putGuild(g Guild) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putGuildLocked(g)
}

func (m *metadata) putGuildLocked(g Guild) {
	for _, ch := range g.Channels {
		if ch.GuildID == "" {
			ch.GuildID = g.ID
		}
		m.channels[ch.ID] = ch
	}
	g.Channels = nil
	m.guilds[g.ID] = g
}

// updateGuild replaces guild fields without touching its channels.
func (m *metadata) updateGuild(g Guild) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.Channels = nil
	m.guilds[g.ID] = g
}

func (m *metadata) deleteGuild(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.guilds, id)
	for cid, ch := range m.channels {
		if ch.GuildID == id {
			delete(m.channels, cid)
		}
	}
}

func (m *metadata) putChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.ID] = ch
}

func (m *metadata) deleteChannel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.channels, id)
}

func (m *metadata) channel(id string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[id]
	return ch, ok
}

func (m *metadata) guild(id string) (Guild, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.guilds[id]
	return g, ok
}

// chats lists every known text-capable channel as a selectable chat.
func (m *metadata) chats() []models.ChatRef {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ChatRef, 0, len(m.channels))
	for _, ch := range m.channels {
		ref := models.ChatRef{Platform: models.PlatformDiscord, ID: ch.ID, Name: channelLabel(ch)}
		if g, ok := m.guilds[ch.GuildID]; ok {
			ref.Name = g.Name + " → " + ref.Name
		}
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// channelLabel names a channel, falling back to recipient names for DMs.
func channelLabel(ch Channel) string {
	if ch.Name != "" {
		return ch.Name
	}
	if len(ch.Recipients) > 0 {
		names := make([]string, 0, len(ch.Recipients))
		for _, r := range ch.Recipients {
			names = append(names, r.DisplayName())
		}
		return strings.Join(names, ", ")
	}
	return ch.ID
}
