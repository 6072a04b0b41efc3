// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package store

import (
	"sort"
	"sync"
	"time"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/metrics"
	"github.com/marioparaschiv/social-dashboard/internal/models"
)

// DefaultMaxItems is the per-category cap used when none is configured.
const DefaultMaxItems = 500

type bucket struct {
	mu    sync.Mutex
	items []models.StoreItem // newest first
	dead  bool               // removed from the map; writers must look up again
}

// Store is a bounded, per-category message store.
type Store struct {
	maxItems int
	now      func() time.Time

	mu         sync.RWMutex
	categories map[models.Category]*bucket

	subsMu sync.RWMutex
	subs   map[*Subscription]struct{}
}

// New returns an empty store holding at most maxItems per category.
func New(maxItems int) *Store {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Store{
		maxItems:   maxItems,
		now:        time.Now,
		categories: make(map[models.Category]*bucket),
		subs:       make(map[*Subscription]struct{}),
	}
}

// MaxItems returns the per-category cap.
func (s *Store) MaxItems() int {
	return s.maxItems
}

// lockBucket returns the locked bucket for category, creating it when create is set.
// It returns nil if the category does not exist and create is false.
func (s *Store) lockBucket(category models.Category, create bool) *bucket {
	for {
		s.mu.RLock()
		b := s.categories[category]
		s.mu.RUnlock()

		if b == nil {
			if !create {
				return nil
			}
			s.mu.Lock()
			if b = s.categories[category]; b == nil {
				b = &bucket{}
				s.categories[category] = b
			}
			s.mu.Unlock()
		}

		b.mu.Lock()
		if !b.dead {
			return b
		}
		b.mu.Unlock()
	}
}

// Add prepends item to category, evicting the oldest items beyond the cap.
// SavedAt is set to the current time when zero.
func (s *Store) Add(category models.Category, item models.StoreItem) {
	b := s.lockBucket(category, true)
	defer b.mu.Unlock()

	if item.SavedAt == 0 {
		item.SavedAt = s.now().UnixMilli()
	}
	s.prepend(category, b, item)

	s.publish(Event{Kind: EventAdded, Category: category, Item: item.Clone()})
	s.publish(Event{Kind: EventUpdated, Category: category})
}

// ReconcileOrAdd replaces the item with the same ID in category, or adds item if
// there is none. A replaced item keeps its original SavedAt, is marked edited and
// moves to the front. Edits emit only EventUpdated. It reports whether an
// existing item was replaced.
func (s *Store) ReconcileOrAdd(category models.Category, item models.StoreItem) bool {
	b := s.lockBucket(category, true)
	defer b.mu.Unlock()

	idx := indexOf(b.items, item.ID)
	if idx < 0 {
		if item.SavedAt == 0 {
			item.SavedAt = s.now().UnixMilli()
		}
		s.prepend(category, b, item)
		s.publish(Event{Kind: EventAdded, Category: category, Item: item.Clone()})
		s.publish(Event{Kind: EventUpdated, Category: category})
		return false
	}

	item.SavedAt = b.items[idx].SavedAt
	item.Edited = true

	copy(b.items[1:idx+1], b.items[:idx])
	b.items[0] = item

	metrics.StoreEdits.Inc()
	s.publish(Event{Kind: EventUpdated, Category: category})
	return true
}

func (s *Store) prepend(category models.Category, b *bucket, item models.StoreItem) {
	b.items = append(b.items, models.StoreItem{})
	copy(b.items[1:], b.items)
	b.items[0] = item

	if evicted := len(b.items) - s.maxItems; evicted > 0 {
		for i := s.maxItems; i < len(b.items); i++ {
			b.items[i] = models.StoreItem{}
		}
		b.items = b.items[:s.maxItems]
		metrics.StoreEvictions.Add(float64(evicted))
	}
	metrics.StoreItems.WithLabelValues(string(category)).Set(float64(len(b.items)))
}

// Delete removes the item with id from category and reports whether it existed.
// The category is dropped when it becomes empty.
func (s *Store) Delete(category models.Category, id string) bool {
	b := s.lockBucket(category, false)
	if b == nil {
		return false
	}

	idx := indexOf(b.items, id)
	if idx < 0 {
		b.mu.Unlock()
		return false
	}

	b.items = append(b.items[:idx], b.items[idx+1:]...)
	remaining := len(b.items)
	if remaining > 0 {
		metrics.StoreItems.WithLabelValues(string(category)).Set(float64(remaining))
	}
	s.publish(Event{Kind: EventUpdated, Category: category})
	b.mu.Unlock()

	if remaining == 0 {
		s.dropIfEmpty(category, b)
	}
	return true
}

func (s *Store) dropIfEmpty(category models.Category, b *bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	if s.categories[category] != b || len(b.items) != 0 {
		return
	}
	b.dead = true
	delete(s.categories, category)
	metrics.StoreItems.DeleteLabelValues(string(category))
}

// Get returns a copy of category's items, newest first.
func (s *Store) Get(category models.Category) []models.StoreItem {
	b := s.lockBucket(category, false)
	if b == nil {
		return nil
	}
	defer b.mu.Unlock()
	return cloneItems(b.items)
}

// Len returns the number of items in category.
func (s *Store) Len(category models.Category) int {
	b := s.lockBucket(category, false)
	if b == nil {
		return 0
	}
	defer b.mu.Unlock()
	return len(b.items)
}

// Categories returns the non-empty categories in lexical order.
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	out := make([]models.Category, 0, len(s.categories))
	for c := range s.categories {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot copies the given categories, or every category when none are given.
// Categories without items are omitted.
func (s *Store) Snapshot(categories ...models.Category) map[models.Category][]models.StoreItem {
	if len(categories) == 0 {
		categories = s.Categories()
	}
	out := make(map[models.Category][]models.StoreItem, len(categories))
	for _, c := range categories {
		if items := s.Get(c); len(items) > 0 {
			out[c] = items
		}
	}
	return out
}

// Clear removes every category and emits one unscoped EventUpdated.
func (s *Store) Clear() {
	s.mu.Lock()
	old := s.categories
	s.categories = make(map[models.Category]*bucket)
	for c, b := range old {
		b.mu.Lock()
		b.dead = true
		b.items = nil
		b.mu.Unlock()
		metrics.StoreItems.DeleteLabelValues(string(c))
	}
	s.mu.Unlock()

	logging.Info().Int("categories", len(old)).Msg("Store cleared")
	s.publish(Event{Kind: EventUpdated})
}

func indexOf(items []models.StoreItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(items []models.StoreItem) []models.StoreItem {
	out := make([]models.StoreItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
