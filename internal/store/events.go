// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package store

import (
	"sync"

	"github.com/marioparaschiv/social-dashboard/internal/metrics"
	"github.com/marioparaschiv/social-dashboard/internal/models"
)

// EventKind distinguishes change notifications.
type EventKind int

const (
	// EventAdded carries a newly inserted item.
	EventAdded EventKind = iota + 1

	// EventUpdated signals that a category changed. An empty Category means
	// every category may have changed.
	EventUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// Event is a change notification.
type Event struct {
	Kind     EventKind
	Category models.Category
	Item     models.StoreItem // set for EventAdded
}

// Scoped reports whether the event concerns a single category.
func (e Event) Scoped() bool {
	return e.Category != ""
}

// Subscription receives store events until Close is called.
type Subscription struct {
	store *Store
	ch    chan Event

	closeOnce sync.Once
}

// Subscribe registers a listener with a channel of the given buffer size.
// Events that do not fit in the buffer are dropped.
func (s *Store) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 1
	}
	sub := &Subscription{store: s, ch: make(chan Event, buffer)}

	s.subsMu.Lock()
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()
	return sub
}

// SubscriberCount returns the number of open subscriptions.
func (s *Store) SubscriberCount() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

// Events returns the channel events are delivered on. It is closed by Close.
func (sub *Subscription) Events() <-chan Event {
	return sub.ch
}

// Close deregisters the subscription. No event is delivered after Close returns.
func (sub *Subscription) Close() {
	sub.closeOnce.Do(func() {
		sub.store.subsMu.Lock()
		delete(sub.store.subs, sub)
		close(sub.ch)
		sub.store.subsMu.Unlock()
	})
}

// publish delivers ev to every subscription without blocking.
func (s *Store) publish(ev Event) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()

	for sub := range s.subs {
		select {
		case sub.ch <- ev:
		default:
			metrics.StoreEventsDropped.Inc()
		}
	}
}
