// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package fanout

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/metrics"
	"github.com/marioparaschiv/social-dashboard/internal/models"
	"github.com/marioparaschiv/social-dashboard/internal/store"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// ErrSubscriptionClosed is returned by RunWithContext when the store closes its
// change subscription underneath the hub.
var ErrSubscriptionClosed = errors.New("store subscription closed")

// Store is the read side of the category store.
type Store interface {
	Snapshot(categories ...models.Category) map[models.Category][]models.StoreItem
	Subscribe(buffer int) *store.Subscription
}

// MediaSource resolves content cache objects to data URLs.
type MediaSource interface {
	DataURL(name string) (string, error)
}

// Backend is a platform's account set as seen by subscribers: the chats it can
// ingest and a way to reply to stored messages.
type Backend interface {
	Platform() models.Platform
	Chats(ctx context.Context) ([]models.ChatRef, error)
	Reply(ctx context.Context, params models.Parameters, content string) error
}

// Config tunes the hub.
type Config struct {
	// SendBuffer is the per-subscriber outbound queue. A subscriber that falls
	// this far behind is disconnected.
	SendBuffer int
	// EventBuffer is the store subscription buffer.
	EventBuffer int
	// RequestTimeout bounds fetch-chats and request-reply calls into backends.
	RequestTimeout time.Duration
}

// DefaultConfig returns the hub defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:     256,
		EventBuffer:    1024,
		RequestTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = d.EventBuffer
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	return c
}

// Hub maintains the set of live subscribers and their interest, and pushes
// store changes to the subscribers that watch them.
type Hub struct {
	store    Store
	auth     *Authenticator
	media    MediaSource
	cfg      Config
	security *logging.SecurityLogger

	backendsMu sync.RWMutex
	backends   map[models.Platform]Backend

	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	interest    map[models.Category]int
	allCount    int
}

// NewHub creates a hub reading from st. media and backends may be nil or empty;
// the matching requests then fail the way a missing object or account does.
func NewHub(st Store, auth *Authenticator, media MediaSource, cfg Config, backends ...Backend) *Hub {
	h := &Hub{
		store:       st,
		auth:        auth,
		media:       media,
		backends:    make(map[models.Platform]Backend, len(backends)),
		cfg:         cfg.withDefaults(),
		security:    logging.NewSecurityLogger(),
		subscribers: make(map[*Subscriber]struct{}),
		interest:    make(map[models.Category]int),
	}
	for _, b := range backends {
		h.backends[b.Platform()] = b
	}
	return h
}

// AddBackend registers a backend after construction. Backends whose
// connections gate on the hub's interest are built after the hub, so they
// are attached here. A backend for an already registered platform replaces it.
func (h *Hub) AddBackend(b Backend) {
	h.backendsMu.Lock()
	h.backends[b.Platform()] = b
	h.backendsMu.Unlock()
}

// Register adds sub to the live set, unauthenticated and with no interest.
func (h *Hub) Register(sub *Subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()

	metrics.SubscribersConnected.Set(float64(count))
	logging.Info().Uint64("subscriber_id", sub.id).Int("total_subscribers", count).Msg("subscriber connected")
}

// Unregister removes sub and releases its interest. It is safe to call more
// than once.
func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[sub]
	h.removeLocked(sub)
	count := len(h.subscribers)
	h.mu.Unlock()

	if ok {
		metrics.SubscribersConnected.Set(float64(count))
		logging.Info().Uint64("subscriber_id", sub.id).Int("total_subscribers", count).Msg("subscriber disconnected")
	}
}

// removeLocked drops sub from the live set and closes its send queue.
func (h *Hub) removeLocked(sub *Subscriber) {
	delete(h.subscribers, sub)
	h.releaseLocked(sub)
	if !sub.closed {
		sub.closed = true
		close(sub.send)
	}
}

func (h *Hub) releaseLocked(sub *Subscriber) {
	for c := range sub.chats {
		if h.interest[c]--; h.interest[c] <= 0 {
			delete(h.interest, c)
		}
	}
	if sub.all {
		h.allCount--
	}
	sub.chats = nil
	sub.all = false
}

func (h *Hub) retainLocked(sub *Subscriber, chats map[models.Category]struct{}, all bool) {
	for c := range chats {
		h.interest[c]++
	}
	if all {
		h.allCount++
	}
	sub.chats = chats
	sub.all = all
}

// SetInterest replaces sub's interest set with chats.
func (h *Hub) SetInterest(sub *Subscriber, chats []models.Category) {
	h.setInterest(sub, chats, false)
}

func (h *Hub) setInterest(sub *Subscriber, chats []models.Category, all bool) {
	set := make(map[models.Category]struct{}, len(chats))
	for _, c := range chats {
		set[c] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	h.releaseLocked(sub)
	h.retainLocked(sub, set, all)
}

// addInterest merges chats into sub's interest set.
func (h *Hub) addInterest(sub *Subscriber, chats []models.Category) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	if sub.chats == nil {
		sub.chats = make(map[models.Category]struct{}, len(chats))
	}
	for _, c := range chats {
		if _, ok := sub.chats[c]; ok {
			continue
		}
		sub.chats[c] = struct{}{}
		h.interest[c]++
	}
}

func (h *Hub) authenticate(sub *Subscriber) {
	h.mu.Lock()
	sub.authenticated = true
	h.mu.Unlock()
}

func (h *Hub) isAuthenticated(sub *Subscriber) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sub.authenticated
}

// Interested reports whether any subscriber watches category, either directly
// or by watching the whole store.
func (h *Hub) Interested(category models.Category) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.allCount > 0 || h.interest[category] > 0
}

// GetSubscriberCount returns the number of connected subscribers.
func (h *Hub) GetSubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// snapshotForLocked returns what sub currently watches.
func (h *Hub) snapshotForLocked(sub *Subscriber) map[models.Category][]models.StoreItem {
	if sub.all {
		return h.store.Snapshot()
	}
	if len(sub.chats) == 0 {
		return map[models.Category][]models.StoreItem{}
	}
	chats := make([]models.Category, 0, len(sub.chats))
	for c := range sub.chats {
		chats = append(chats, c)
	}
	return h.store.Snapshot(chats...)
}

// OnStoreUpdated pushes category's current slice to every authenticated
// subscriber watching it and the full store to subscribers in all mode. An
// empty category means the whole store changed: each subscriber then gets its
// full interest set.
func (h *Hub) OnStoreUpdated(category models.Category) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var partial, full []byte
	for _, sub := range h.sortedLocked() {
		if !sub.authenticated {
			continue
		}

		var payload []byte
		scope := "category"
		switch {
		case category == "":
			scope = "all"
			payload = h.encode(newDataUpdate(h.snapshotForLocked(sub), false))
		case sub.all:
			if full == nil {
				full = h.encode(newDataUpdate(h.store.Snapshot(), false))
			}
			scope = "all"
			payload = full
		default:
			if _, ok := sub.chats[category]; !ok {
				continue
			}
			if partial == nil {
				partial = h.encode(h.categoryUpdate(category))
			}
			payload = partial
		}

		if payload != nil && h.sendLocked(sub, payload) {
			metrics.FanoutPushes.WithLabelValues(scope).Inc()
		}
	}
}

// categoryUpdate always names category, with an empty slice once it is gone
// from the store, so clients can drop it.
func (h *Hub) categoryUpdate(category models.Category) dataUpdate {
	data := h.store.Snapshot(category)
	if _, ok := data[category]; !ok {
		data[category] = []models.StoreItem{}
	}
	return newDataUpdate(data, true)
}

func (h *Hub) encode(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode subscriber message")
		return nil
	}
	return data
}

// send queues v for sub. It reports false when sub is gone or was dropped.
func (h *Hub) send(sub *Subscriber, v interface{}) bool {
	payload := h.encode(v)
	if payload == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sendLocked(sub, payload)
}

// sendLocked queues payload without blocking. A full queue disconnects sub.
func (h *Hub) sendLocked(sub *Subscriber, payload []byte) bool {
	if sub.closed {
		return false
	}
	select {
	case sub.send <- payload:
		return true
	default:
	}

	metrics.FanoutDropped.Inc()
	logging.Warn().Uint64("subscriber_id", sub.id).Int("buffer", cap(sub.send)).Msg("subscriber send buffer full, disconnecting")
	h.removeLocked(sub)
	metrics.SubscribersConnected.Set(float64(len(h.subscribers)))
	return false
}

// sortedLocked returns subscribers in connection order.
func (h *Hub) sortedLocked() []*Subscriber {
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].id < subs[j].id
	})
	return subs
}

// RunWithContext consumes store change events until ctx is canceled, then closes
// every subscriber. It is designed for use with suture supervision.
func (h *Hub) RunWithContext(ctx context.Context) error {
	events := h.store.Subscribe(h.cfg.EventBuffer)
	defer events.Close()

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case ev, ok := <-events.Events():
			if !ok {
				return ErrSubscriptionClosed
			}
			if ev.Kind != store.EventUpdated {
				continue
			}
			h.OnStoreUpdated(ev.Category)
		}
	}
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	count := h.GetSubscriberCount()
	h.closeAll()

	logging.Info().
		Str("component", "fanout-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("subscribers_closed", count).
		Msg("fanout hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAll closes every subscriber in connection order.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.sortedLocked() {
		h.removeLocked(sub)
	}
	metrics.SubscribersConnected.Set(0)
}

func (h *Hub) snapshotFor(sub *Subscriber) map[models.Category][]models.StoreItem {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshotForLocked(sub)
}

// backendList returns backends in platform order.
func (h *Hub) backendList() []Backend {
	h.backendsMu.RLock()
	out := make([]Backend, 0, len(h.backends))
	for _, b := range h.backends {
		out = append(out, b)
	}
	h.backendsMu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Platform() < out[j].Platform()
	})
	return out
}
