// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package main

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/marioparaschiv/social-dashboard/internal/clientapi"
	"github.com/marioparaschiv/social-dashboard/internal/config"
	"github.com/marioparaschiv/social-dashboard/internal/contentcache"
	"github.com/marioparaschiv/social-dashboard/internal/fanout"
	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/store"
	"github.com/marioparaschiv/social-dashboard/internal/supervisor"
	"github.com/marioparaschiv/social-dashboard/internal/supervisor/services"
)

// natsClientName identifies the server on the bridge's NATS connection.
const natsClientName = "social-dashboard"

// telegramComponents holds the client-API side of the pipeline.
type telegramComponents struct {
	manager *clientapi.Manager
	conn    *nats.Conn
}

// Close drains the NATS connection after the tree has stopped.
func (t *telegramComponents) Close() {
	if err := t.conn.Drain(); err != nil {
		logging.Warn().Err(err).Msg("Error draining NATS connection")
	}
}

// initTelegram connects to the bridge and adds one listener per account to
// the ingest layer. Returns nil when no accounts are configured.
func initTelegram(cfg *config.Config, tree *supervisor.SupervisorTree, st *store.Store, hub *fanout.Hub, cache *contentcache.Cache) (*telegramComponents, error) {
	tc := cfg.Telegram
	if len(tc.Accounts) == 0 {
		logging.Info().Msg("No telegram accounts configured")
		return nil, nil
	}

	url := tc.NATSURL
	if tc.EmbeddedNATS.Enabled {
		ns, err := clientapi.NewEmbeddedServer(tc.EmbeddedNATS.Host, tc.EmbeddedNATS.Port)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		url = ns.ClientURL()
		tree.AddMessagingService(services.NewEmbeddedNATSService(ns, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	nc, err := clientapi.DialNATS(url, natsClientName)
	if err != nil {
		return nil, err
	}

	accounts := make([]clientapi.Account, 0, len(tc.Accounts))
	for _, account := range tc.Accounts {
		accounts = append(accounts, clientapi.Account{
			Name:    account,
			Session: clientapi.NewNATSSession(nc, tc.SubjectPrefix, account, tc.RequestTimeout),
		})
	}

	manager := clientapi.NewManager(accounts, clientapi.Config{
		AlwaysTrack:   tc.AlwaysTrack,
		ReplyAttempts: tc.ReplyAttempts,
	}, clientapi.Dependencies{
		Store: st,
		Gate:  hub,
		Cache: cache,
	})

	for _, l := range manager.Listeners() {
		tree.AddIngestService(l)
	}
	logging.Info().Int("count", len(accounts)).Msg("Telegram listeners added to supervisor tree")

	return &telegramComponents{manager: manager, conn: nc}, nil
}
