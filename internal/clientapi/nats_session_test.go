// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package clientapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

func startEmbedded(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := NewEmbeddedServer("127.0.0.1", -1)
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	if !srv.Running() {
		t.Fatal("server not running")
	}

	nc, err := DialNATS(srv.ClientURL(), "test")
	if err != nil {
		t.Fatalf("DialNATS: %v", err)
	}
	t.Cleanup(nc.Close)
	return nc
}

// respond serves one request subject the way the bridge does.
func respond(t *testing.T, nc *nats.Conn, subject string, handler func(data []byte) interface{}) {
	t.Helper()
	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		reply, err := json.Marshal(handler(m.Data))
		if err != nil {
			t.Errorf("marshal reply: %v", err)
			return
		}
		_ = m.Respond(reply)
	})
	if err != nil {
		t.Fatalf("subscribe %s: %v", subject, err)
	}
	t.Cleanup(func() { _ = sub.Unsubscribe() })
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestNATSSessionUpdates(t *testing.T) {
	nc := startEmbedded(t)
	s := NewNATSSession(nc, "clientapi", "acct1", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, err := s.Updates(ctx)
	if err != nil {
		t.Fatalf("Updates: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if err := nc.Publish("clientapi.acct1.updates", []byte("{not json")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	raw, _ := json.Marshal(Update{Kind: UpdateEdited, Message: Message{ID: "9", ChatID: "5", Text: "hello", EditDate: 1}})
	if err := nc.Publish("clientapi.acct1.updates", raw); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := nc.Publish("clientapi.other.updates", raw); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case u := <-updates:
		if u.Kind != UpdateEdited || u.Message.ID != "9" || u.Message.Text != "hello" || !u.Message.Edited() {
			t.Errorf("update = %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}

	cancel()
	select {
	case _, ok := <-updates:
		if ok {
			t.Error("unexpected extra update")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel not closed after cancel")
	}
}

func TestNATSSessionClosedConnectionEndsUpdates(t *testing.T) {
	nc := startEmbedded(t)
	s := NewNATSSession(nc, "clientapi", "acct1", time.Second)

	updates, err := s.Updates(context.Background())
	if err != nil {
		t.Fatalf("Updates: %v", err)
	}
	nc.Close()

	select {
	case _, ok := <-updates:
		if ok {
			t.Error("unexpected update")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel not closed with the connection")
	}
}

func TestNATSSessionRequests(t *testing.T) {
	nc := startEmbedded(t)
	s := NewNATSSession(nc, "clientapi", "acct1", time.Second)

	respond(t, nc, "clientapi.acct1.photo", func(data []byte) interface{} {
		var req photoRequest
		_ = json.Unmarshal(data, &req)
		if req.PeerID != "7" {
			return bridgeReply{Error: "unknown peer"}
		}
		return photoReply{Data: []byte("jpeg"), MimeType: "image/jpeg"}
	})
	respond(t, nc, "clientapi.acct1.dialogs", func([]byte) interface{} {
		return dialogsReply{Dialogs: []Dialog{{ID: "1", Name: "Alice"}}}
	})
	respond(t, nc, "clientapi.acct1.media", func(data []byte) interface{} {
		var ref MessageRef
		_ = json.Unmarshal(data, &ref)
		return mediaReply{Data: []byte("media-" + ref.MessageID)}
	})
	sent := make(chan sendRequest, 1)
	respond(t, nc, "clientapi.acct1.send", func(data []byte) interface{} {
		var req sendRequest
		_ = json.Unmarshal(data, &req)
		sent <- req
		return bridgeReply{}
	})

	ctx := context.Background()

	data, mimeType, err := s.ProfilePhoto(ctx, "7")
	if err != nil || string(data) != "jpeg" || mimeType != "image/jpeg" {
		t.Errorf("ProfilePhoto = %q %q %v", data, mimeType, err)
	}
	if _, _, err := s.ProfilePhoto(ctx, "8"); !errors.Is(err, ErrBridge) {
		t.Errorf("ProfilePhoto unknown peer error = %v, want ErrBridge", err)
	}

	dialogs, err := s.Dialogs(ctx)
	if err != nil || len(dialogs) != 1 || dialogs[0].Name != "Alice" {
		t.Errorf("Dialogs = %+v %v", dialogs, err)
	}

	media, err := s.DownloadMedia(ctx, MessageRef{ChatID: "5", MessageID: "42"})
	if err != nil || string(media) != "media-42" {
		t.Errorf("DownloadMedia = %q %v", media, err)
	}

	if err := s.SendMessage(ctx, "-100", "hi", "42"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if req := <-sent; req.OriginID != "-100" || req.Text != "hi" || req.ReplyTo != "42" {
		t.Errorf("send request = %+v", req)
	}
}

func TestNATSSessionNoBridge(t *testing.T) {
	nc := startEmbedded(t)
	s := NewNATSSession(nc, "clientapi", "nobody", 200*time.Millisecond)

	if _, err := s.Dialogs(context.Background()); err == nil {
		t.Error("Dialogs without a bridge should fail")
	}
}
