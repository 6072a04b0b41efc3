// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/social-dashboard/config.yaml",
	"/etc/social-dashboard/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			AllowedOrigins:    []string{"http://localhost:5173"},
			UpgradeRateLimit:  30,
			UpgradeRateWindow: time.Minute,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Store: StoreConfig{
			MaxItems:         500,
			SubscriberBuffer: 256,
		},
		Cache: CacheConfig{
			Dir:          "cache",
			ResetOnStart: true,
		},
		Discord: DiscordConfig{
			GatewayURL:        "wss://gateway.discord.gg/?v=10&encoding=json",
			APIBase:           "https://discord.com/api/v10",
			CDNBase:           "https://cdn.discordapp.com",
			HelloTimeout:      30 * time.Second,
			BackoffUnit:       time.Second,
			MaxAttempts:       5,
			ResumeThreshold:   60 * time.Second,
			RequestsPerSecond: 2,
			RequestTimeout:    15 * time.Second,
			IngestQueue:       256,
			IngestWait:        2 * time.Second,
			SuperProperties: map[string]interface{}{
				"os":              "Windows",
				"browser":         "Chrome",
				"device":          "",
				"system_locale":   "en-US",
				"release_channel": "stable",
			},
		},
		Telegram: TelegramConfig{
			NATSURL:        "nats://127.0.0.1:4222",
			SubjectPrefix:  "clientapi",
			RequestTimeout: 30 * time.Second,
			ReplyAttempts:  3,
			EmbeddedNATS: EmbeddedNATSConfig{
				Host: "127.0.0.1",
				Port: 4222,
			},
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"server.allowed_origins",
	"discord.tokens",
	"discord.always_track",
	"telegram.accounts",
	"telegram.always_track",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		trimmed := make([]string, 0)
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"server_host":                "server.host",
	"server_port":                "server.port",
	"server_allowed_origins":     "server.allowed_origins",
	"server_upgrade_rate_limit":  "server.upgrade_rate_limit",
	"server_upgrade_rate_window": "server.upgrade_rate_window",
	"server_shutdown_timeout":    "server.shutdown_timeout",

	"dashboard_password":      "auth.password",
	"dashboard_password_hash": "auth.password_hash",
	"dashboard_token_secret":  "auth.token_secret",
	"dashboard_token_ttl":     "auth.token_ttl",

	"store_max_items":         "store.max_items",
	"store_subscriber_buffer": "store.subscriber_buffer",

	"cache_dir":            "cache.dir",
	"cache_reset_on_start": "cache.reset_on_start",

	"discord_tokens":              "discord.tokens",
	"discord_gateway_url":         "discord.gateway_url",
	"discord_api_base":            "discord.api_base",
	"discord_cdn_base":            "discord.cdn_base",
	"discord_hello_timeout":       "discord.hello_timeout",
	"discord_backoff_unit":        "discord.backoff_unit",
	"discord_max_attempts":        "discord.max_attempts",
	"discord_resume_threshold":    "discord.resume_threshold",
	"discord_requests_per_second": "discord.requests_per_second",
	"discord_always_track":        "discord.always_track",

	"telegram_accounts":        "telegram.accounts",
	"telegram_nats_url":        "telegram.nats_url",
	"telegram_subject_prefix":  "telegram.subject_prefix",
	"telegram_request_timeout": "telegram.request_timeout",
	"telegram_always_track":    "telegram.always_track",
	"telegram_embedded_nats":   "telegram.embedded_nats.enabled",
	"telegram_nats_host":       "telegram.embedded_nats.host",
	"telegram_nats_port":       "telegram.embedded_nats.port",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path, or ""
// to skip variables that are not part of the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
