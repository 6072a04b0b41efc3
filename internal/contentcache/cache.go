// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package contentcache

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/singleflight"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/metrics"
)

var (
	// ErrInvalidPath is returned for object names that are not "<digest>[.<ext>]".
	ErrInvalidPath = errors.New("contentcache: invalid object path")

	// ErrNotFound is returned when an object is not cached. It wraps fs.ErrNotExist.
	ErrNotFound = fmt.Errorf("contentcache: object not found: %w", fs.ErrNotExist)

	// ErrEmpty is returned by Put for zero-length payloads.
	ErrEmpty = errors.New("contentcache: empty payload")
)

var objectName = regexp.MustCompile(`^([0-9a-f]{64})(?:\.([0-9A-Za-z]{1,10}))?$`)

// Entry describes a cached object.
type Entry struct {
	Digest    string
	Extension string
	MimeType  string
	Size      int64
}

// Path returns the object's file name relative to the cache directory.
func (e Entry) Path() string {
	if e.Extension == "" {
		return e.Digest
	}
	return e.Digest + "." + e.Extension
}

// Cache is a content-addressed object store rooted at one directory.
// It is safe for concurrent use.
type Cache struct {
	dir   string
	group singleflight.Group

	mu    sync.RWMutex
	index map[string]Entry
}

// New creates the cache directory if needed. Existing objects are kept and
// indexed so their digests are not written again; call Reset to start empty.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c := &Cache{dir: dir, index: make(map[string]Entry)}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// load indexes the objects already in the directory and removes temp files
// left behind by an interrupted write.
func (c *Cache) load() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	for _, de := range entries {
		name := de.Name()
		if !de.Type().IsRegular() {
			continue
		}
		if strings.HasPrefix(name, ".put-") {
			_ = os.Remove(filepath.Join(c.dir, name))
			continue
		}
		m := objectName.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if _, ok := c.index[m[1]]; ok {
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}
		entry := Entry{Digest: m[1], Extension: m[2], Size: info.Size()}
		if mt, err := mimetype.DetectFile(filepath.Join(c.dir, name)); err == nil {
			entry.MimeType = stripParams(mt.String())
		}
		c.index[entry.Digest] = entry
	}

	if len(c.index) > 0 {
		logging.Debug().Str("dir", c.dir).Int("objects", len(c.index)).Msg("Content cache indexed")
	}
	return nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Reset removes every cached object and recreates an empty directory.
func (c *Cache) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		metrics.ContentCacheErrors.WithLabelValues("reset").Inc()
		return fmt.Errorf("remove cache dir: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		metrics.ContentCacheErrors.WithLabelValues("reset").Inc()
		return fmt.Errorf("create cache dir: %w", err)
	}
	c.index = make(map[string]Entry)
	logging.Debug().Str("dir", c.dir).Msg("Content cache reset")
	return nil
}

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores data under its digest and returns the entry. mimeType may be empty,
// in which case the type is sniffed from the bytes. Storing the same bytes again
// is a no-op that returns the existing entry.
func (c *Cache) Put(data []byte, mimeType string) (Entry, error) {
	if len(data) == 0 {
		return Entry{}, ErrEmpty
	}

	digest := Digest(data)
	if entry, ok := c.Lookup(digest); ok {
		metrics.ContentCacheDedupHits.Inc()
		return entry, nil
	}

	v, err, shared := c.group.Do(digest, func() (interface{}, error) {
		return c.write(digest, data, mimeType)
	})
	if err != nil {
		return Entry{}, err
	}
	if shared {
		metrics.ContentCacheDedupHits.Inc()
	}
	return v.(Entry), nil
}

func (c *Cache) write(digest string, data []byte, mimeType string) (Entry, error) {
	entry := Entry{
		Digest: digest,
		Size:   int64(len(data)),
	}
	entry.MimeType, entry.Extension = resolveType(data, mimeType)

	final := filepath.Join(c.dir, entry.Path())
	if _, err := os.Stat(final); err == nil {
		metrics.ContentCacheDedupHits.Inc()
		c.remember(entry)
		return entry, nil
	}

	tmp, err := os.CreateTemp(c.dir, ".put-*")
	if err != nil {
		metrics.ContentCacheErrors.WithLabelValues("write").Inc()
		return Entry{}, fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		metrics.ContentCacheErrors.WithLabelValues("write").Inc()
		return Entry{}, fmt.Errorf("write object %s: %w", digest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		metrics.ContentCacheErrors.WithLabelValues("write").Inc()
		return Entry{}, fmt.Errorf("close object %s: %w", digest, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		metrics.ContentCacheErrors.WithLabelValues("write").Inc()
		return Entry{}, fmt.Errorf("commit object %s: %w", digest, err)
	}

	metrics.RecordCacheWrite(len(data))
	c.remember(entry)
	return entry, nil
}

func (c *Cache) remember(entry Entry) {
	c.mu.Lock()
	c.index[entry.Digest] = entry
	c.mu.Unlock()
}

// Has reports whether an object with the digest is in the cache directory.
func (c *Cache) Has(digest string) bool {
	_, ok := c.Lookup(digest)
	return ok
}

// Lookup returns the entry stored under digest.
func (c *Cache) Lookup(digest string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.index[digest]
	return entry, ok
}

// Open reads the object named "<digest>[.<ext>]" and returns its bytes and MIME type.
func (c *Cache) Open(name string) ([]byte, string, error) {
	m := objectName.FindStringSubmatch(name)
	if m == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}

	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		metrics.ContentCacheErrors.WithLabelValues("read").Inc()
		return nil, "", fmt.Errorf("read object %s: %w", name, err)
	}

	if entry, ok := c.Lookup(m[1]); ok && entry.MimeType != "" {
		return data, entry.MimeType, nil
	}
	return data, stripParams(mimetype.Detect(data).String()), nil
}

// DataURL returns the object as a "data:<mime>;base64,..." URL.
func (c *Cache) DataURL(name string) (string, error) {
	data, mimeType, err := c.Open(name)
	if err != nil {
		return "", err
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// extensionOverrides pins extensions where mimetype's choice differs from what
// clients expect, e.g. voice notes are audio/ogg but mimetype names them .oga.
var extensionOverrides = map[string]string{
	"audio/ogg": "ogg",
	"image/jpg": "jpg",
}

// resolveType returns the MIME type and extension (without dot) for a payload.
// A declared type wins over sniffing when it is known.
func resolveType(data []byte, declared string) (string, string) {
	declared = stripParams(declared)
	if ext, ok := extensionOverrides[declared]; ok {
		return declared, ext
	}
	if declared != "" {
		if mt := mimetype.Lookup(declared); mt != nil {
			return declared, strings.TrimPrefix(mt.Extension(), ".")
		}
	}

	detected := mimetype.Detect(data)
	if declared != "" && detected.Is("application/octet-stream") {
		return declared, ""
	}
	return stripParams(detected.String()), strings.TrimPrefix(detected.Extension(), ".")
}

func stripParams(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}
