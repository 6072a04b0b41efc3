// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package contentcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxObjectSize bounds a single download.
const DefaultMaxObjectSize = 64 << 20

// ErrTooLarge is returned when a download exceeds the fetcher's size limit.
var ErrTooLarge = errors.New("contentcache: object exceeds size limit")

// Fetcher downloads remote objects and stores them in a Cache.
type Fetcher struct {
	cache   *Cache
	client  *http.Client
	maxSize int64
}

// NewFetcher returns a Fetcher using client, or a client with a 30s timeout if nil.
func NewFetcher(cache *Cache, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{cache: cache, client: client, maxSize: DefaultMaxObjectSize}
}

// Cache returns the cache objects are stored in.
func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Fetch downloads url and stores the body. mimeType overrides the response
// Content-Type when set.
func (f *Fetcher) Fetch(ctx context.Context, url, mimeType string) (Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Entry{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Entry{}, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Entry{}, fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > f.maxSize {
		return Entry{}, ErrTooLarge
	}

	if mimeType == "" {
		mimeType = resp.Header.Get("Content-Type")
	}
	return f.cache.Put(data, mimeType)
}
