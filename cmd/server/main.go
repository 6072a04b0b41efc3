// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marioparaschiv/social-dashboard/internal/api"
	"github.com/marioparaschiv/social-dashboard/internal/config"
	"github.com/marioparaschiv/social-dashboard/internal/contentcache"
	"github.com/marioparaschiv/social-dashboard/internal/fanout"
	"github.com/marioparaschiv/social-dashboard/internal/gateway"
	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/store"
	"github.com/marioparaschiv/social-dashboard/internal/supervisor"
	"github.com/marioparaschiv/social-dashboard/internal/supervisor/services"
)

// fetchTimeout bounds a single attachment or avatar download.
const fetchTimeout = 30 * time.Second

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("discord_accounts", len(cfg.Discord.Tokens)).
		Int("telegram_accounts", len(cfg.Telegram.Accounts)).
		Int("max_items", cfg.Store.MaxItems).
		Str("cache_dir", cfg.Cache.Dir).
		Msg("Starting Social Dashboard")

	cache, err := contentcache.New(cfg.Cache.Dir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open content cache")
	}
	if cfg.Cache.ResetOnStart {
		if err := cache.Reset(); err != nil {
			logging.Fatal().Err(err).Msg("Failed to reset content cache")
		}
		logging.Info().Msg("Content cache cleared")
	}
	fetcher := contentcache.NewFetcher(cache, &http.Client{Timeout: fetchTimeout})

	st := store.New(cfg.Store.MaxItems)

	auth, err := fanout.NewAuthenticator(cfg.Auth)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authenticator")
	}
	if cfg.Auth.TokenSecret == "" {
		logging.Warn().Msg("No token secret configured; session tokens will not survive a restart")
	}

	hubCfg := fanout.DefaultConfig()
	hubCfg.EventBuffer = cfg.Store.SubscriberBuffer
	hub := fanout.NewHub(st, auth, cache, hubCfg)

	discord := gateway.NewManager(cfg.Discord.Tokens, gatewayConfig(cfg.Discord), gateway.Dependencies{
		Store:      st,
		Gate:       hub,
		Fetcher:    fetcher,
		HTTPClient: &http.Client{Timeout: cfg.Discord.RequestTimeout},
	})
	hub.AddBackend(discord)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	sources := []api.StatusSource{discord}
	telegram, err := initTelegram(cfg, tree, st, hub, cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize telegram listeners")
	}
	if telegram != nil {
		hub.AddBackend(telegram.manager)
		sources = append(sources, telegram.manager)
		defer telegram.Close()
	}

	handler := api.NewHandler(hub, st, cfg.Server.AllowedOrigins, sources...)
	router := api.NewRouter(handler, cfg.Server)
	httpHandler := router.SetupChi()
	newServer := func() services.HTTPServer {
		return &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           httpHandler,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			IdleTimeout:       60 * time.Second,
		}
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddMessagingService(services.NewFanoutHubService(hub))

	for _, conn := range discord.Connections() {
		tree.AddIngestService(conn)
	}
	logging.Info().Int("count", len(discord.Connections())).Msg("Gateway connections added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(newServer, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

func gatewayConfig(c config.DiscordConfig) gateway.Config {
	replacements := make([]gateway.Replacement, 0, len(c.Replacements))
	for _, r := range c.Replacements {
		replacements = append(replacements, gateway.Replacement{From: r.From, To: r.To})
	}
	return gateway.Config{
		GatewayURL:        c.GatewayURL,
		APIBase:           c.APIBase,
		CDNBase:           c.CDNBase,
		SuperProperties:   c.SuperProperties,
		HelloTimeout:      c.HelloTimeout,
		BackoffUnit:       c.BackoffUnit,
		MaxAttempts:       c.MaxAttempts,
		ResumeThreshold:   c.ResumeThreshold,
		RequestsPerSecond: c.RequestsPerSecond,
		RequestTimeout:    c.RequestTimeout,
		Replacements:      replacements,
		AlwaysTrack:       c.AlwaysTrack,
		IngestQueue:       c.IngestQueue,
		IngestWait:        c.IngestWait,
	}
}
