// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "json"})

	Info().Str("account", "abc").Msg("gateway connected")

	out := buf.String()
	if !strings.Contains(out, "gateway connected") {
		t.Errorf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("expected level field, got: %s", out)
	}
	if !strings.Contains(out, `"account":"abc"`) {
		t.Errorf("expected account field, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCtx_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "abcd1234")

	Ctx(ctx).Info().Msg("ingested")

	if !strings.Contains(buf.String(), `"correlation_id":"abcd1234"`) {
		t.Errorf("expected correlation id in output, got: %s", buf.String())
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	id := GenerateCorrelationID()
	if len(id) != 8 {
		t.Errorf("expected 8 characters, got %d (%q)", len(id), id)
	}
	if id == GenerateCorrelationID() {
		t.Error("expected distinct ids")
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		keep  int
		want  string
	}{
		{"short token untouched", "abc", 5, "abc"},
		{"masks tail", "abcdefgh", 3, "abc*****"},
		{"negative keep masks all", "abcd", -1, "****"},
		{"empty", "", 28, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskToken(tt.token, tt.keep); got != tt.want {
				t.Errorf("MaskToken(%q, %d) = %q, want %q", tt.token, tt.keep, got, tt.want)
			}
		})
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 123-4567", "*****34567"},
		{"12345", "12345"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskPhone(tt.in); got != tt.want {
			t.Errorf("MaskPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlogHandler_WritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	h := &SlogHandler{logger: NewTestLogger(&buf)}
	logger := slog.New(h).With("service", "hub").WithGroup("event")

	logger.Warn("service restarted", "attempt", 3)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"service":"hub"`, `"event.attempt":3`, "service restarted"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got: %s", want, out)
		}
	}
}

func TestGlobalLogger_BacksCtxAndSlog(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "json"})

	l := Logger()
	l.Info().Msg("direct")
	Ctx(ContextWithCorrelationID(context.Background(), "feedbeef")).Info().Msg("from context")
	NewSlogLogger().Info("from slog", "service", "hub")

	out := buf.String()
	for _, want := range []string{"direct", "from context", `"correlation_id":"feedbeef"`, "from slog", `"service":"hub"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got: %s", want, out)
		}
	}
}
