package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mikreman.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
device:
  host: 10.0.0.1
  username: admin
  password: topsecret
  use_tls: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", cfg.Device.Host)
	assert.True(t, cfg.Device.UseTLS)
	assert.Equal(t, ":8088", cfg.API.Listen)
	assert.Equal(t, "dev", cfg.Logger.Mode)
	assert.False(t, cfg.Device.Serialize)
}

func TestLoadConfigSerializeOptIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mikreman.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
device:
  host: 10.0.0.1
  username: admin
  serialize: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Device.Serialize)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestStoreCredentialsValidation(t *testing.T) {
	store := NewStore("unused.yml", &AppConfig{})
	_, err := store.Credentials()
	require.Error(t, err)

	store = NewStore("unused.yml", &AppConfig{
		Device: DeviceConfig{Host: "10.0.0.1", Username: "admin", Password: "pw", Port: 8443, UseTLS: true},
	})
	creds, err := store.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", creds.Host)
	assert.Equal(t, 8443, creds.Port)
	assert.True(t, creds.UseTLS)
}

func TestSetServiceStatusPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mikreman.yml")
	cfg := DefaultConfig()
	store := NewStore(path, cfg)

	require.NoError(t, store.SetServiceStatus("pptp", false))

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, reloaded.Services["pptp"])
	assert.True(t, reloaded.Services["l2tp"])
}
