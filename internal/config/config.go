// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the sync
// server. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, and an optional
// JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings: token validation parameters
	// and the advertised application version.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the durable record store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address and timeout settings for the HTTP
	// server.
	Server Server `envPrefix:"SERVER_"`

	// Sync holds the tunables of the synchronization subsystem: event
	// throttling, crash-recovery window, and history retention.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c/-config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// TokenSignKey is the secret key used to verify JWT tokens issued by
	// the note application's auth service. Must be kept confidential.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the expected "iss" claim of inbound tokens.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// Version is the semantic version string of the running application,
	// exposed via the /api/version endpoint.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens,
	// in "host:port" format (e.g. "0.0.0.0:8080").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it (e.g. "30s", "1m").
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage groups the configuration of the durable record store.
type Storage struct {
	// DB holds the relational database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the relational database backend.
type DB struct {
	// DSN is the Data Source Name (connection string) used to open the
	// database connection. For Postgres this is a postgres:// URI; for
	// SQLite it is a file path.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`

	// Engine selects the backend: "postgres" (default) or "sqlite".
	// Env: STORAGE_DB_ENGINE
	Engine string `env:"ENGINE"`
}

// Sync holds the tunables of the synchronization subsystem.
type Sync struct {
	// ProgressEventThreshold is the minimum progress delta, in percentage
	// points, between two throttled status events emitted for the same
	// session. Bounds event volume on high-frequency updates. Default: 5.
	// Env: SYNC_PROGRESS_EVENT_THRESHOLD
	ProgressEventThreshold int `env:"PROGRESS_EVENT_THRESHOLD"`

	// RecoveryTimeout is the window within which an incomplete session
	// found at startup is presumed crash-interrupted and failed.
	// Sessions stale for longer are left to the retention pass.
	// Default: 24h.
	// Env: SYNC_RECOVERY_TIMEOUT
	RecoveryTimeout time.Duration `env:"RECOVERY_TIMEOUT"`

	// HistoryRetentionDays is how long terminal sessions and their
	// operation logs are kept before becoming eligible for purge.
	// Default: 30.
	// Env: SYNC_HISTORY_RETENTION_DAYS
	HistoryRetentionDays int `env:"HISTORY_RETENTION_DAYS"`

	// CleanupInterval is how often the retention scheduler runs.
	// Default: 1h.
	// Env: SYNC_CLEANUP_INTERVAL
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL"`

	// PersistenceEnabled toggles durable session storage. When false the
	// server runs memory-only and the recovery sweep is skipped.
	// Default: true (disable with "false").
	// Env: SYNC_PERSISTENCE_ENABLED
	PersistenceEnabled *bool `env:"PERSISTENCE_ENABLED"`
}

// Defaults applied by [StructuredConfig.applyDefaults] for unset sync
// tunables.
const (
	DefaultProgressEventThreshold = 5
	DefaultRecoveryTimeout        = 24 * time.Hour
	DefaultHistoryRetentionDays   = 30
	DefaultCleanupInterval        = time.Hour
)

// Persistence reports whether durable session storage is enabled,
// defaulting to true when the flag was never set.
func (s Sync) Persistence() bool {
	return s.PersistenceEnabled == nil || *s.PersistenceEnabled
}

func (c *StructuredConfig) applyDefaults() {
	if c.Sync.ProgressEventThreshold <= 0 {
		c.Sync.ProgressEventThreshold = DefaultProgressEventThreshold
	}
	if c.Sync.RecoveryTimeout <= 0 {
		c.Sync.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if c.Sync.HistoryRetentionDays <= 0 {
		c.Sync.HistoryRetentionDays = DefaultHistoryRetentionDays
	}
	if c.Sync.CleanupInterval <= 0 {
		c.Sync.CleanupInterval = DefaultCleanupInterval
	}
	if c.Storage.DB.Engine == "" {
		c.Storage.DB.Engine = EnginePostgres
	}
}

// Supported storage engines.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (first non-zero value wins):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
