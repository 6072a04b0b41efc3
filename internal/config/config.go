// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package config

import "time"

// Config is the full server configuration. It is immutable after Load.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Auth       AuthConfig       `koanf:"auth"`
	Store      StoreConfig      `koanf:"store"`
	Cache      CacheConfig      `koanf:"cache"`
	Discord    DiscordConfig    `koanf:"discord"`
	Telegram   TelegramConfig   `koanf:"telegram"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig configures the HTTP listener serving /ws, /healthz and /metrics.
type ServerConfig struct {
	Host           string   `koanf:"host"`
	Port           int      `koanf:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string `koanf:"allowed_origins"`

	// UpgradeRateLimit caps websocket upgrades per client IP per UpgradeRateWindow.
	UpgradeRateLimit  int           `koanf:"upgrade_rate_limit" validate:"min=1"`
	UpgradeRateWindow time.Duration `koanf:"upgrade_rate_window" validate:"gt=0"`

	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// AuthConfig configures subscriber authentication.
//
// PasswordHash takes precedence over Password. A plain Password is hashed with
// bcrypt at startup and never compared directly. An empty TokenSecret makes the
// server generate a random one, invalidating session tokens across restarts.
type AuthConfig struct {
	Password     string        `koanf:"password"`
	PasswordHash string        `koanf:"password_hash"`
	TokenSecret  string        `koanf:"token_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl" validate:"gt=0"`
}

// StoreConfig configures the bounded category store.
type StoreConfig struct {
	MaxItems         int `koanf:"max_items" validate:"min=1"`
	SubscriberBuffer int `koanf:"subscriber_buffer" validate:"min=1"`
}

type CacheConfig struct {
	Dir          string `koanf:"dir" validate:"required"`
	ResetOnStart bool   `koanf:"reset_on_start"`
}

// DiscordConfig configures gateway connections, one per token.
type DiscordConfig struct {
	Tokens     []string `koanf:"tokens"`
	GatewayURL string   `koanf:"gateway_url" validate:"required,url"`
	APIBase    string   `koanf:"api_base" validate:"required,url"`
	CDNBase    string   `koanf:"cdn_base" validate:"required,url"`

	// SuperProperties is sent with IDENTIFY and, base64 encoded, as the
	// X-Super-Properties header on REST calls.
	SuperProperties map[string]interface{} `koanf:"super_properties"`

	HelloTimeout    time.Duration `koanf:"hello_timeout" validate:"gt=0"`
	BackoffUnit     time.Duration `koanf:"backoff_unit" validate:"gt=0"`
	MaxAttempts     int           `koanf:"max_attempts" validate:"min=1"`
	ResumeThreshold time.Duration `koanf:"resume_threshold" validate:"gt=0"`

	// RequestsPerSecond bounds REST calls per account.
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	RequestTimeout    time.Duration `koanf:"request_timeout" validate:"gt=0"`

	// Replacements are applied to message content in order. A list is used
	// instead of a map because koanf splits map keys on ".".
	Replacements []Replacement `koanf:"replacements" validate:"dive"`

	// AlwaysTrack lists channel ids ingested even when no subscriber watches them.
	AlwaysTrack []string `koanf:"always_track"`

	// IngestQueue bounds message events waiting for normalization per account.
	IngestQueue int `koanf:"ingest_queue" validate:"min=1"`
	// IngestWait is how long the gateway loop waits on a full queue before
	// dropping the event.
	IngestWait time.Duration `koanf:"ingest_wait" validate:"gt=0"`
}

// Replacement rewrites every occurrence of From with To.
type Replacement struct {
	From string `koanf:"from" validate:"required"`
	To   string `koanf:"to"`
}

// TelegramConfig configures client-API listeners bridged over NATS.
type TelegramConfig struct {
	Accounts       []string      `koanf:"accounts"`
	NATSURL        string        `koanf:"nats_url"`
	SubjectPrefix  string        `koanf:"subject_prefix" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ReplyAttempts  int           `koanf:"reply_attempts" validate:"min=1"`
	AlwaysTrack    []string      `koanf:"always_track"`

	// EmbeddedNATS runs an in-process NATS server for the bridge to connect to.
	// NATSURL is ignored when it is enabled.
	EmbeddedNATS EmbeddedNATSConfig `koanf:"embedded_nats"`
}

// EmbeddedNATSConfig configures the in-process NATS server.
type EmbeddedNATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port" validate:"min=-1,max=65535"`
}

// SupervisorConfig mirrors suture's failure parameters.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds zerolog settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
