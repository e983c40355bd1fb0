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

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("FORUMTRUST_CONFIG", "")

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":                  "www.example:9000",
		"grpc_addr":                  ":50052",
		"database_dsn":               "forum.db",
		"secret_key":                 "my_secret_key",
		"access_token_ttl":           "10m",
		"verification_ttl":           "48h",
		"password_reset_ttl":         "30m",
		"username_recovery_ttl":      int64(20 * time.Minute),
		"public_base_url":            "https://forum.example",
		"require_email_verification": false,
		"log_format":                 "text",
		"log_level":                  "warn",
		"auth_rate_limit":            1.5,
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{RequireEmailVerification: true}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, ":50052", cfg.GRPCAddr)
		assert.Equal(t, "forum.db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 10*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, 48*time.Hour, cfg.VerificationTTL)
		assert.Equal(t, 30*time.Minute, cfg.PasswordResetTTL)
		assert.Equal(t, 20*time.Minute, cfg.UsernameRecoveryTTL)
		assert.Equal(t, "https://forum.example", cfg.PublicBaseURL)
		assert.False(t, cfg.RequireEmailVerification)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, 1.5, cfg.AuthRateLimit)
	})

	t.Run("path from environment", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("FORUMTRUST_CONFIG", pathFlag)

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"log_level": "debug"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 72*time.Hour, cfg.VerificationTTL)
		assert.True(t, cfg.RequireEmailVerification)
	})

	t.Run("no config and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			HTTPAddr:        "defaults:1234",
			DatabaseDSN:     "forum.db",
			SecretKey:       "key",
			AccessTokenTTL:  2 * time.Minute,
			VerificationTTL: 3 * time.Hour,
		}
		before := *cfg
		parseJson(cfg)

		assert.Equal(t, before, *cfg)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
