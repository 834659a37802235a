package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "environment: development\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, "DEV", cfg.IDs.Prefix)
	assert.Equal(t, "log", cfg.Notify.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 0, cfg.Policy.MinRejectionReason)
}

func TestLoadFromFile_Values(t *testing.T) {
	path := writeConfig(t, `
environment: production
storage:
  driver: memory
jwt:
  secret: s3cret
ids:
  prefix: mpa
policy:
  min_rejection_reason: 10
  min_required_info: 5
notify:
  driver: ses
  from_address: noreply@mpa.example
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "MPA", cfg.IDs.Prefix)
	assert.Equal(t, 10, cfg.Policy.MinRejectionReason)
	assert.Equal(t, 5, cfg.Policy.MinRequiredInfo)
	assert.Equal(t, "ses", cfg.Notify.Driver)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: memory\n")
	t.Setenv("PORT", "9090")
	t.Setenv("APPLICATION_ID_PREFIX", "MIG")
	t.Setenv("JWT_EXPIRE", "7d")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "MIG", cfg.IDs.Prefix)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.Expiration)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown storage", "storage:\n  driver: postgres\n"},
		{"ses without sender", "notify:\n  driver: ses\n"},
		{"queue without redis", "notify:\n  queue: true\n"},
		{"production without secret", "environment: production\n"},
		{"admin email without password", "bootstrap:\n  admin_email: admin@mpa.example\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseExpiration(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, parseExpiration("7d"))
	assert.Equal(t, 2*time.Hour, parseExpiration("2h"))
	assert.Equal(t, 24*time.Hour, parseExpiration("soon"))
}
