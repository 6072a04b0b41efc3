// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func newTestREST(t *testing.T, handler http.HandlerFunc) (*RESTClient, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIBase = srv.URL
	cfg.RequestsPerSecond = 1000
	cfg.SuperProperties = map[string]interface{}{"os": "Linux"}

	c := NewRESTClient(cfg, "token-abc", 0, srv.Client())
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestRESTGetMessage(t *testing.T) {
	c, _ := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/c1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("around") != "m1" || r.URL.Query().Get("limit") != "1" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "token-abc" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Super-Properties") == "" {
			t.Error("missing X-Super-Properties")
		}
		_, _ = io.WriteString(w, `[{"id":"m1","channel_id":"c1","content":"original","author":{"id":"u1","username":"alice"}}]`)
	})

	msg, err := c.GetMessage(context.Background(), "c1", "m1")
	if err != nil {
		t.Fatalf("GetMessage error: %v", err)
	}
	if msg == nil || msg.Content != "original" || msg.Author.Username != "alice" {
		t.Errorf("GetMessage = %+v", msg)
	}
}

func TestRESTRetries(t *testing.T) {
	tests := []struct {
		name      string
		responses []int
		body      string
		wantErr   bool
		wantCalls int32
		wantWaits []time.Duration
	}{
		{
			name:      "rate limited then ok",
			responses: []int{http.StatusTooManyRequests, http.StatusOK},
			body:      `{"retry_after":0.25}`,
			wantCalls: 2,
			wantWaits: []time.Duration{250 * time.Millisecond},
		},
		{
			name:      "server errors exhaust retries",
			responses: []int{http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway},
			wantErr:   true,
			wantCalls: 3,
			wantWaits: []time.Duration{time.Second, time.Second},
		},
		{
			name:      "client error retried with default wait",
			responses: []int{http.StatusForbidden, http.StatusForbidden, http.StatusForbidden},
			body:      `{"message":"Missing Access"}`,
			wantErr:   true,
			wantCalls: 3,
			wantWaits: []time.Duration{time.Second, time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c, waits := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status := tt.responses[int(n)-1]
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = io.WriteString(w, `[]`)
					return
				}
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetMessage(context.Background(), "c", "m")
			if tt.wantErr {
				if !errors.Is(err, ErrRequestFailed) {
					t.Errorf("error = %v, want ErrRequestFailed", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
			if len(*waits) != len(tt.wantWaits) {
				t.Fatalf("waits = %v, want %v", *waits, tt.wantWaits)
			}
			for i := range tt.wantWaits {
				if (*waits)[i] != tt.wantWaits[i] {
					t.Errorf("wait[%d] = %v, want %v", i, (*waits)[i], tt.wantWaits[i])
				}
			}
		})
	}
}

func TestRESTSendMessageReply(t *testing.T) {
	var got sendMessageBody
	c, _ := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/channels/c9/messages" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"id":"new"}`)
	})

	if err := c.SendMessage(context.Background(), "c9", "g1", "m5", "hello"); err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if got.Content != "hello" {
		t.Errorf("content = %q", got.Content)
	}
	ref := got.MessageReference
	if ref == nil || ref.MessageID != "m5" || ref.ChannelID != "c9" || ref.GuildID != "g1" {
		t.Errorf("message_reference = %+v", ref)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   string
		want   time.Duration
	}{
		{"body seconds", "", `{"retry_after":1.5}`, 1500 * time.Millisecond},
		{"header fallback", "2", `not json`, 2 * time.Second},
		{"capped", "", `{"retry_after":3600}`, maxRetryAfter},
		{"absent", "", `{}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Retry-After", tt.header)
			}
			if got := parseRetryAfter(h, []byte(tt.body)); got != tt.want {
				t.Errorf("parseRetryAfter = %v, want %v", got, tt.want)
			}
		})
	}
}
