package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "String", in: `"30s"`, want: 30 * time.Second},
		{name: "StringHours", in: `"24h"`, want: 24 * time.Hour},
		{name: "Number", in: `1000000000`, want: time.Second},
		{name: "BadString", in: `"soon"`, wantErr: true},
		{name: "BadType", in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestParseJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{
		"app": {"token_sign_key": "secret", "token_issuer": "notes-app"},
		"storage": {"db": {"dsn": "postgres://localhost/sync", "engine": "postgres"}},
		"server": {"http_address": "localhost:8080", "request_timeout": "30s"},
		"sync": {
			"progress_event_threshold": 10,
			"recovery_timeout": "12h",
			"history_retention_days": 7,
			"cleanup_interval": "30m",
			"persistence_enabled": true
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.App.TokenSignKey)
	assert.Equal(t, "notes-app", cfg.App.TokenIssuer)
	assert.Equal(t, "postgres://localhost/sync", cfg.Storage.DB.DSN)
	assert.Equal(t, "localhost:8080", cfg.Server.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10, cfg.Sync.ProgressEventThreshold)
	assert.Equal(t, 12*time.Hour, cfg.Sync.RecoveryTimeout)
	assert.Equal(t, 7, cfg.Sync.HistoryRetentionDays)
	assert.Equal(t, 30*time.Minute, cfg.Sync.CleanupInterval)
	assert.True(t, cfg.Sync.Persistence())
}

func TestParseJSON_MissingFile(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
