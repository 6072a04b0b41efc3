// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package clientapi

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marioparaschiv/social-dashboard/internal/contentcache"
	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/models"
	"github.com/marioparaschiv/social-dashboard/internal/store"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

type fakeSession struct {
	mu        sync.Mutex
	updates   chan Update
	photos    map[string][]byte
	media     map[string][]byte
	dialogs   []Dialog
	dialogErr error
	sendErrs  []error
	sent      []sendRequest
	photoHits int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		updates: make(chan Update, 16),
		photos:  make(map[string][]byte),
		media:   make(map[string][]byte),
	}
}

func (s *fakeSession) Updates(context.Context) (<-chan Update, error) {
	return s.updates, nil
}

func (s *fakeSession) ProfilePhoto(_ context.Context, peerID string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photoHits++
	data, ok := s.photos[peerID]
	if !ok {
		return nil, "", errors.New("no photo")
	}
	return data, "image/jpeg", nil
}

func (s *fakeSession) Dialogs(context.Context) ([]Dialog, error) {
	return s.dialogs, s.dialogErr
}

func (s *fakeSession) DownloadMedia(_ context.Context, ref MessageRef) ([]byte, error) {
	data, ok := s.media[ref.MessageID]
	if !ok {
		return nil, errors.New("media expired")
	}
	return data, nil
}

func (s *fakeSession) SendMessage(_ context.Context, originID, text, replyTo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sendRequest{OriginID: originID, Text: text, ReplyTo: replyTo})
	if len(s.sendErrs) > 0 {
		err := s.sendErrs[0]
		s.sendErrs = s.sendErrs[1:]
		return err
	}
	return nil
}

type fakeGate map[models.Category]bool

func (g fakeGate) Interested(c models.Category) bool { return g[c] }

func user(id, name string) *Peer {
	return &Peer{ID: id, Kind: PeerUser, Name: name}
}

func groupChat() *Peer {
	return &Peer{ID: "-100", Kind: PeerSupergroup, Name: "Gopher Club", HasPhoto: true}
}

func newTestListener(t *testing.T, session Session, alwaysTrack []string, gate InterestGate) (*Listener, *store.Store, *contentcache.Cache) {
	t.Helper()
	cache, err := contentcache.New(t.TempDir())
	if err != nil {
		t.Fatalf("contentcache.New: %v", err)
	}
	st := store.New(10)
	l := NewListener(2, "+15550001111", session, alwaysTrack, Dependencies{Store: st, Gate: gate, Cache: cache})
	return l, st, cache
}

func TestListenerStoresMessage(t *testing.T) {
	session := newFakeSession()
	session.photos["-100"] = []byte("group photo")
	session.media["42"] = []byte("OggS voice note")

	l, st, cache := newTestListener(t, session, nil, nil)

	l.handle(context.Background(), Update{Kind: UpdateNew, Message: Message{
		ID:       "42",
		ChatID:   "-100",
		OriginID: "-100123",
		Chat:     groupChat(),
		Sender:   user("7", "Alice"),
		Text:     "listen to this",
		Entities: []Entity{{Type: EntityTextURL, Offset: 0, Length: 6, URL: "https://x"}},
		Media:    &Media{MimeType: "audio/ogg"},
		ReplyTo:  &Message{ID: "41", Sender: user("8", "Bob"), Text: "anything new?"},
	}})

	items := st.Get("telegram--100")
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	item := items[0]
	if item.Content != "[listen](https://x) to this" {
		t.Errorf("content = %q", item.Content)
	}
	if item.Author.Name != "Alice" || item.Author.ID != "7" || item.Author.Avatar != "" {
		t.Errorf("author = %+v", item.Author)
	}
	if item.Origin.Kind != "supergroup" || item.Origin.Name != "Gopher Club" || item.Origin.Avatar == "" {
		t.Errorf("origin = %+v", item.Origin)
	}
	if len(item.Attachments) != 1 || !strings.HasSuffix(item.Attachments[0].Path, ".ogg") || item.Attachments[0].MimeType != "audio/ogg" {
		t.Errorf("attachments = %+v", item.Attachments)
	}
	if !cache.Has(item.Attachments[0].Digest) {
		t.Error("attachment not in cache")
	}
	if item.Reply == nil || item.Reply.Author != "Bob" || item.Reply.Content != "anything new?" {
		t.Errorf("reply = %+v", item.Reply)
	}
	if p := item.Parameters; p.MessageID != "42" || p.OriginID != "-100123" || p.Account() != 2 {
		t.Errorf("parameters = %+v", p)
	}
	if item.Edited {
		t.Error("new message marked edited")
	}
}

func TestListenerMedia(t *testing.T) {
	tests := []struct {
		name     string
		media    *Media
		data     []byte
		wantExt  string
		wantMime string
		want     int
	}{
		{"missing mime defaults to png", &Media{}, []byte("\x89PNG\r\n\x1a\n0000"), ".png", "image/png", 1},
		{"named document", &Media{MimeType: "application/pdf", FileName: "doc.pdf"}, []byte("%PDF-1.4"), ".pdf", "application/pdf", 1},
		{"web page preview", &Media{WebPage: true}, []byte("ignored"), "", "", 0},
		{"download failure", &Media{MimeType: "image/png"}, nil, "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := newFakeSession()
			if tt.data != nil {
				session.media["1"] = tt.data
			}
			l, st, _ := newTestListener(t, session, nil, nil)

			l.handle(context.Background(), Update{Message: Message{
				ID: "1", ChatID: "5", Chat: user("5", "Carol"), Sender: user("5", "Carol"), Text: "x", Media: tt.media,
			}})

			items := st.Get("telegram-5")
			if len(items) != 1 {
				t.Fatalf("items = %d, want 1", len(items))
			}
			atts := items[0].Attachments
			if len(atts) != tt.want {
				t.Fatalf("attachments = %+v, want %d", atts, tt.want)
			}
			if tt.want == 0 {
				return
			}
			if !strings.HasSuffix(atts[0].Path, tt.wantExt) || atts[0].MimeType != tt.wantMime {
				t.Errorf("attachment = %+v", atts[0])
			}
			if tt.media.FileName != "" && atts[0].Name != tt.media.FileName {
				t.Errorf("name = %q", atts[0].Name)
			}
		})
	}
}

func TestListenerFilters(t *testing.T) {
	tests := []struct {
		name        string
		msg         Message
		alwaysTrack []string
		gate        InterestGate
		stored      bool
	}{
		{"user sender", Message{ID: "1", ChatID: "9", Chat: user("9", "D"), Sender: user("9", "D"), Text: "x"}, nil, nil, true},
		{"channel sender", Message{ID: "1", ChatID: "9", Chat: &Peer{ID: "9", Kind: PeerChannel}, Sender: &Peer{ID: "9", Kind: PeerChannel, Name: "News"}, Text: "x"}, nil, nil, true},
		{"group as sender", Message{ID: "1", ChatID: "9", Chat: &Peer{ID: "9", Kind: PeerChat}, Sender: &Peer{ID: "9", Kind: PeerChat}, Text: "x"}, nil, nil, false},
		{"no sender", Message{ID: "1", ChatID: "9", Chat: user("9", "D"), Text: "x"}, nil, nil, false},
		{"no chat", Message{ID: "1", ChatID: "9", Sender: user("9", "D"), Text: "x"}, nil, nil, false},
		{"unwatched", Message{ID: "1", ChatID: "9", Chat: user("9", "D"), Sender: user("9", "D"), Text: "x"}, nil, fakeGate{}, false},
		{"watched", Message{ID: "1", ChatID: "9", Chat: user("9", "D"), Sender: user("9", "D"), Text: "x"}, nil, fakeGate{"telegram-9": true}, true},
		{"always tracked", Message{ID: "1", ChatID: "9", Chat: user("9", "D"), Sender: user("9", "D"), Text: "x"}, []string{"9"}, fakeGate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, st, _ := newTestListener(t, newFakeSession(), tt.alwaysTrack, tt.gate)
			l.handle(context.Background(), Update{Message: tt.msg})
			if stored := st.Len("telegram-9") == 1; stored != tt.stored {
				t.Errorf("stored = %v, want %v", stored, tt.stored)
			}
		})
	}
}

func TestListenerEdit(t *testing.T) {
	l, st, _ := newTestListener(t, newFakeSession(), nil, nil)
	base := Message{ID: "1", ChatID: "9", Chat: user("9", "D"), Sender: user("9", "D"), Text: "first"}
	l.handle(context.Background(), Update{Kind: UpdateNew, Message: base})
	l.handle(context.Background(), Update{Kind: UpdateNew, Message: Message{ID: "2", ChatID: "9", Chat: user("9", "D"), Sender: user("9", "D"), Text: "second"}})

	edit := base
	edit.Text = "first, fixed"
	edit.EditDate = 1700000000
	l.handle(context.Background(), Update{Kind: UpdateEdited, Message: edit})

	items := st.Get("telegram-9")
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ID != "1" || items[0].Content != "first, fixed" || !items[0].Edited {
		t.Errorf("front item = %+v, want the edited message", items[0])
	}
}

func TestListenerAvatarMemoized(t *testing.T) {
	session := newFakeSession()
	session.photos["-100"] = []byte("photo")
	l, _, _ := newTestListener(t, session, nil, nil)

	for i := 0; i < 3; i++ {
		l.handle(context.Background(), Update{Message: Message{ID: string(rune('a' + i)), ChatID: "-100", Chat: groupChat(), Sender: user("7", "A"), Text: "x"}})
	}
	if session.photoHits != 1 {
		t.Errorf("photo requests = %d, want 1", session.photoHits)
	}
}

func TestListenerServe(t *testing.T) {
	session := newFakeSession()
	l, st, _ := newTestListener(t, session, nil, nil)

	errs := make(chan error, 1)
	go func() { errs <- l.Serve(context.Background()) }()

	session.updates <- Update{Message: Message{ID: "1", ChatID: "9", Chat: user("9", "D"), Sender: user("9", "D"), Text: "x"}}
	close(session.updates)

	select {
	case err := <-errs:
		if !errors.Is(err, ErrSessionClosed) {
			t.Errorf("Serve error = %v, want ErrSessionClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	if st.Len("telegram-9") != 1 {
		t.Error("update before close not stored")
	}
	if got := l.Status().State; got != models.StateDisconnected {
		t.Errorf("state after close = %v, want disconnected", got)
	}
}

func TestListenerServeCanceled(t *testing.T) {
	l, _, _ := newTestListener(t, newFakeSession(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve error = %v, want context.Canceled", err)
	}
}
