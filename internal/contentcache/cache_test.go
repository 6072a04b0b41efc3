// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package contentcache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

// pngHeader is enough for mimetype to detect image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestPut_NamesObjectByDigest(t *testing.T) {
	c := newTestCache(t)

	entry, err := c.Put(pngHeader, "image/png")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if entry.Digest != Digest(pngHeader) {
		t.Errorf("Digest = %q, want %q", entry.Digest, Digest(pngHeader))
	}
	if entry.Path() != entry.Digest+".png" {
		t.Errorf("Path() = %q, want digest.png", entry.Path())
	}

	got, err := os.ReadFile(filepath.Join(c.Dir(), entry.Path()))
	if err != nil {
		t.Fatalf("object not written: %v", err)
	}
	if !bytes.Equal(got, pngHeader) {
		t.Error("stored bytes differ from input")
	}
	if !c.Has(entry.Digest) {
		t.Error("Has() = false after Put")
	}
}

func TestPut_Idempotent(t *testing.T) {
	c := newTestCache(t)

	first, err := c.Put(pngHeader, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	info1, _ := os.Stat(filepath.Join(c.Dir(), first.Path()))

	second, err := c.Put(pngHeader, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("second Put returned %+v, want %+v", second, first)
	}
	info2, _ := os.Stat(filepath.Join(c.Dir(), second.Path()))
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("object was rewritten")
	}
}

func TestNew_ReopenKeepsExistingObjects(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	first, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	stored, err := first.Put(pngHeader, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".put-123"), []byte("partial"), 0o600); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("New() on existing dir error = %v", err)
	}
	if !reopened.Has(stored.Digest) {
		t.Fatal("Has() = false for an object already on disk")
	}

	again, err := reopened.Put(pngHeader, "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	if again.Path() != stored.Path() {
		t.Errorf("Put after reopen returned %q, want existing %q", again.Path(), stored.Path())
	}
	if again.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", again.MimeType)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Errorf("cache dir holds %v, want only %s", names, stored.Path())
	}
}

func TestPut_ConcurrentSameDigest(t *testing.T) {
	c := newTestCache(t)
	data := []byte(strings.Repeat("payload", 1000))

	var wg sync.WaitGroup
	entries := make([]Entry, 16)
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := c.Put(data, "text/plain")
			if err != nil {
				t.Errorf("Put() error = %v", err)
			}
			entries[i] = e
		}(i)
	}
	wg.Wait()

	for _, e := range entries[1:] {
		if e != entries[0] {
			t.Fatalf("entries differ: %+v vs %+v", e, entries[0])
		}
	}

	files, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Errorf("cache dir holds %v, want exactly one object", names)
	}
}

func TestPut_Extensions(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		wantExt  string
		wantMime string
	}{
		{name: "declared png", data: pngHeader, declared: "image/png", wantExt: "png", wantMime: "image/png"},
		{name: "sniffed png", data: pngHeader, declared: "", wantExt: "png", wantMime: "image/png"},
		{name: "voice note", data: []byte("OggS-voice"), declared: "audio/ogg", wantExt: "ogg", wantMime: "audio/ogg"},
		{name: "params stripped", data: []byte("plain text body"), declared: "text/plain; charset=utf-8", wantExt: "txt", wantMime: "text/plain"},
		{name: "unknown declared binary", data: []byte{0x00, 0x01, 0x02, 0x03}, declared: "application/x-made-up", wantExt: "", wantMime: "application/x-made-up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCache(t)
			entry, err := c.Put(tt.data, tt.declared)
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if entry.Extension != tt.wantExt {
				t.Errorf("Extension = %q, want %q", entry.Extension, tt.wantExt)
			}
			if entry.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", entry.MimeType, tt.wantMime)
			}
		})
	}
}

func TestPut_Empty(t *testing.T) {
	c := newTestCache(t)
	if _, err := c.Put(nil, "image/png"); !errors.Is(err, ErrEmpty) {
		t.Errorf("Put(nil) error = %v, want ErrEmpty", err)
	}
}

func TestReset(t *testing.T) {
	c := newTestCache(t)
	entry, err := c.Put(pngHeader, "image/png")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if c.Has(entry.Digest) {
		t.Error("Has() = true after Reset")
	}
	files, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatalf("cache dir missing after Reset: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("cache dir has %d files after Reset", len(files))
	}
}

func TestOpen(t *testing.T) {
	c := newTestCache(t)
	entry, err := c.Put(pngHeader, "image/png")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("cached object", func(t *testing.T) {
		data, mimeType, err := c.Open(entry.Path())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if mimeType != "image/png" || !bytes.Equal(data, pngHeader) {
			t.Errorf("Open() = %d bytes, %q", len(data), mimeType)
		}
	})

	t.Run("traversal rejected", func(t *testing.T) {
		for _, name := range []string{"../etc/passwd", entry.Digest + "/../x", "/abs", entry.Digest + ".png/.."} {
			if _, _, err := c.Open(name); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Open(%q) error = %v, want ErrInvalidPath", name, err)
			}
		}
	})

	t.Run("missing object", func(t *testing.T) {
		_, _, err := c.Open(strings.Repeat("0", 64) + ".png")
		if !errors.Is(err, ErrNotFound) || !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Open() error = %v, want ErrNotFound", err)
		}
	})
}

func TestDataURL(t *testing.T) {
	c := newTestCache(t)
	entry, err := c.Put([]byte("hello"), "text/plain")
	if err != nil {
		t.Fatal(err)
	}

	url, err := c.DataURL(entry.Path())
	if err != nil {
		t.Fatalf("DataURL() error = %v", err)
	}
	if want := "data:text/plain;base64,aGVsbG8="; url != want {
		t.Errorf("DataURL() = %q, want %q", url, want)
	}
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/avatar.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngHeader)
		case "/big":
			_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestCache(t)
	f := NewFetcher(c, srv.Client())

	entry, err := f.Fetch(context.Background(), srv.URL+"/avatar.png", "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if entry.Extension != "png" || !c.Has(entry.Digest) {
		t.Errorf("Fetch() entry = %+v", entry)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing", ""); err == nil {
		t.Error("Fetch() of 404 should fail")
	}

	f.maxSize = 16
	if _, err := f.Fetch(context.Background(), srv.URL+"/big", ""); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Fetch() error = %v, want ErrTooLarge", err)
	}
}
