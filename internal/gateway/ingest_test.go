// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/marioparaschiv/social-dashboard/internal/contentcache"
	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/models"
)

type storeCall struct {
	op       string
	category models.Category
	item     models.StoreItem
	id       string
}

type fakeStore struct {
	mu    sync.Mutex
	calls []storeCall
	seen  map[string]bool
	ch    chan storeCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]bool), ch: make(chan storeCall, 64)}
}

func (s *fakeStore) ReconcileOrAdd(category models.Category, item models.StoreItem) bool {
	s.mu.Lock()
	edited := s.seen[item.ID]
	s.seen[item.ID] = true
	call := storeCall{op: "upsert", category: category, item: item}
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	s.ch <- call
	return edited
}

func (s *fakeStore) Delete(category models.Category, id string) bool {
	s.mu.Lock()
	existed := s.seen[id]
	delete(s.seen, id)
	call := storeCall{op: "delete", category: category, id: id}
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	s.ch <- call
	return existed
}

func (s *fakeStore) upserts() []storeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storeCall
	for _, c := range s.calls {
		if c.op == "upsert" {
			out = append(out, c)
		}
	}
	return out
}

type fakeGate map[models.Category]bool

func (g fakeGate) Interested(c models.Category) bool { return g[c] }

type fakeFetcher struct {
	mu   sync.Mutex
	urls []string
	fail map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url, mimeType string) (contentcache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	if f.fail[url] {
		return contentcache.Entry{}, errors.New("download failed")
	}
	ext := "png"
	if strings.HasSuffix(url, ".txt") {
		ext = "txt"
	}
	return contentcache.Entry{
		Digest:    contentcache.Digest([]byte(url)),
		Extension: ext,
		MimeType:  mimeType,
	}, nil
}

type fakeMessages struct {
	msg *Message
	err error
}

func (f fakeMessages) GetMessage(_ context.Context, _, _ string) (*Message, error) {
	return f.msg, f.err
}

type rejectMatcher struct{}

func (rejectMatcher) Match(*models.StoreItem) bool { return false }

func newTestIngestor(cfg Config, rest messageFetcher, deps Dependencies) *ingestor {
	cfg = cfg.withDefaults()
	cfg.CDNBase = "https://cdn.test"
	meta := newMetadata()
	meta.loadReady(&ready{
		PrivateChannels: []Channel{
			{ID: "dm1", Type: channelTypeDM, Recipients: []User{{ID: "u2", Username: "bob", Avatar: "bobhash"}}},
			{ID: "grp1", Type: channelTypeGroupDM, Name: "friends", Icon: "grpicon"},
		},
		Guilds: []*Guild{
			{ID: "g1", Name: "Gophers", Icon: "gicon", Channels: []Channel{{ID: "c1", Name: "general"}}},
		},
	})
	return newIngestor(3, cfg, meta, rest, deps, logging.NewTestLogger(io.Discard))
}

func TestIngestorBuildsItem(t *testing.T) {
	st := newFakeStore()
	fetcher := &fakeFetcher{fail: map[string]bool{"https://cdn.test/att/broken.bin": true}}
	cfg := Config{Replacements: []Replacement{{From: "foo", To: "bar"}}}
	replied := &Message{ID: "m0", Content: "question?", Author: &User{ID: "u9", Username: "carol"}, Attachments: []Attachment{{ID: "a"}}}

	in := newTestIngestor(cfg, fakeMessages{msg: replied}, Dependencies{Store: st, Fetcher: fetcher})

	in.message(context.Background(), &Message{
		ID:        "m1",
		ChannelID: "c1",
		Author:    &User{ID: "u1", Username: "alice", Avatar: "ahash"},
		Content:   "foo fighters",
		Attachments: []Attachment{
			{Filename: "notes.txt", URL: "https://cdn.test/att/notes.txt", ContentType: "text/plain"},
			{Filename: "broken.bin", URL: "https://cdn.test/att/broken.bin"},
		},
		MessageReference: &MessageReference{MessageID: "m0"},
	})

	calls := st.upserts()
	if len(calls) != 1 {
		t.Fatalf("store calls = %d, want 1", len(calls))
	}
	got := calls[0]
	if got.category != "discord-c1" {
		t.Errorf("category = %q", got.category)
	}

	item := got.item
	if item.Content != "bar fighters" {
		t.Errorf("content = %q, want replacement applied", item.Content)
	}
	if item.Author.Name != "alice" || item.Author.Avatar == "" {
		t.Errorf("author = %+v", item.Author)
	}
	if item.Origin.Kind != "guild" || item.Origin.Name != "Gophers" || item.Origin.ChannelName != "general" || item.Origin.Avatar == "" {
		t.Errorf("origin = %+v", item.Origin)
	}
	if len(item.Attachments) != 1 || item.Attachments[0].Name != "notes.txt" || !strings.HasSuffix(item.Attachments[0].Path, ".txt") {
		t.Errorf("attachments = %+v, want only the fetched one", item.Attachments)
	}
	if item.Reply == nil || item.Reply.Author != "carol" || item.Reply.Content != "question?" || item.Reply.AttachmentCount != 1 {
		t.Errorf("reply = %+v", item.Reply)
	}
	p := item.Parameters
	if p.MessageID != "m1" || p.ChannelID != "c1" || p.GuildID != "g1" || p.Account() != 3 {
		t.Errorf("parameters = %+v", p)
	}
}

func TestIngestorOrigins(t *testing.T) {
	tests := []struct {
		name       string
		channel    string
		wantKind   string
		wantName   string
		wantAvatar string
	}{
		{"direct message", "dm1", "dm", "bob", "https://cdn.test/avatars/u2/bobhash.png"},
		{"group", "grp1", "group", "friends", "https://cdn.test/channel-icons/grp1/grpicon.png"},
		{"guild", "c1", "guild", "Gophers", "https://cdn.test/icons/g1/gicon.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore()
			fetcher := &fakeFetcher{}
			in := newTestIngestor(Config{}, nil, Dependencies{Store: st, Fetcher: fetcher})

			in.message(context.Background(), &Message{ID: "m", ChannelID: tt.channel, Author: &User{ID: "u1", Username: "alice"}, Content: "x"})

			calls := st.upserts()
			if len(calls) != 1 {
				t.Fatalf("store calls = %d", len(calls))
			}
			o := calls[0].item.Origin
			if o.Kind != tt.wantKind || o.Name != tt.wantName {
				t.Errorf("origin = %+v", o)
			}
			found := false
			for _, u := range fetcher.urls {
				if u == tt.wantAvatar {
					found = true
				}
			}
			if !found {
				t.Errorf("fetched %v, want %s", fetcher.urls, tt.wantAvatar)
			}
		})
	}
}

func TestIngestorSkips(t *testing.T) {
	author := &User{ID: "u1", Username: "alice"}

	tests := []struct {
		name    string
		cfg     Config
		gate    InterestGate
		matcher Matcher
		msg     *Message
		stored  bool
	}{
		{"empty message", Config{}, nil, nil, &Message{ID: "m", ChannelID: "c1", Author: author}, false},
		{"partial message", Config{}, nil, nil, &Message{ID: "m", ChannelID: "c1", Content: "x"}, false},
		{"unknown channel", Config{}, nil, nil, &Message{ID: "m", ChannelID: "nope", Author: author, Content: "x"}, false},
		{"nobody watching", Config{}, fakeGate{}, nil, &Message{ID: "m", ChannelID: "c1", Author: author, Content: "x"}, false},
		{"watched", Config{}, fakeGate{"discord-c1": true}, nil, &Message{ID: "m", ChannelID: "c1", Author: author, Content: "x"}, true},
		{"always tracked", Config{AlwaysTrack: []string{"c1"}}, fakeGate{}, nil, &Message{ID: "m", ChannelID: "c1", Author: author, Content: "x"}, true},
		{"matcher rejects", Config{}, nil, rejectMatcher{}, &Message{ID: "m", ChannelID: "c1", Author: author, Content: "x"}, false},
		{"embeds only", Config{}, nil, nil, &Message{ID: "m", ChannelID: "c1", Author: author, Embeds: []json.RawMessage{json.RawMessage(`{"title":"t"}`)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore()
			in := newTestIngestor(tt.cfg, nil, Dependencies{Store: st, Gate: tt.gate, Matcher: tt.matcher})

			in.message(context.Background(), tt.msg)

			if stored := len(st.upserts()) == 1; stored != tt.stored {
				t.Errorf("stored = %v, want %v", stored, tt.stored)
			}
		})
	}
}

func TestIngestorReplyFailureKeepsMessage(t *testing.T) {
	st := newFakeStore()
	in := newTestIngestor(Config{}, fakeMessages{err: ErrRequestFailed}, Dependencies{Store: st})

	in.message(context.Background(), &Message{
		ID: "m1", ChannelID: "c1", Author: &User{ID: "u", Username: "a"}, Content: "x",
		MessageReference: &MessageReference{MessageID: "gone"},
	})

	calls := st.upserts()
	if len(calls) != 1 {
		t.Fatalf("store calls = %d, want 1", len(calls))
	}
	if calls[0].item.Reply != nil {
		t.Errorf("reply = %+v, want nil", calls[0].item.Reply)
	}
}

func TestIngestorDelete(t *testing.T) {
	st := newFakeStore()
	in := newTestIngestor(Config{}, nil, Dependencies{Store: st})

	in.handle(context.Background(), ingestJob{kind: ingestDelete, del: &messageDelete{ID: "m1", ChannelID: "c1"}})

	call := <-st.ch
	if call.op != "delete" || call.category != "discord-c1" || call.id != "m1" {
		t.Errorf("call = %+v", call)
	}
}
