package kiosk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kiosk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
api:
  base_url: https://ojt.fragranza.test
  timeout: 5s
account:
  email: kiosk@fragranza.test
  password: file-password
camera:
  device: 1
  capture_timeout: 30s
location:
  enabled: true
  latitude: 14.5547
  longitude: 121.0244
log:
  format: console
`), 0o600))

	t.Setenv("KIOSK_ACCOUNT_PASSWORD", "env-password")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "https://ojt.fragranza.test", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "env-password", cfg.Account.Password)
	assert.Equal(t, 1, cfg.Camera.Device)
	assert.Equal(t, 33*time.Millisecond, cfg.Camera.Interval)
	assert.Equal(t, 30*time.Second, cfg.Camera.CaptureTimeout)
	assert.True(t, cfg.Location.Enabled)
	assert.Equal(t, 121.0244, cfg.Location.Longitude)
	assert.Equal(t, "console", cfg.Log.Format)

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("KIOSK_ACCOUNT_EMAIL", "kiosk@fragranza.test")
	t.Setenv("KIOSK_ACCOUNT_PASSWORD", "secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Location.Timeout)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		API:     APIConfig{BaseURL: "http://localhost:8080"},
		Account: AccountConfig{Email: "a@b.test", Password: "x"},
		Camera:  CameraConfig{Interval: time.Millisecond},
	}
	require.NoError(t, valid.Validate())

	noAccount := valid
	noAccount.Account.Password = ""
	assert.ErrorIs(t, noAccount.Validate(), ErrInvalidConfig)

	badLocation := valid
	badLocation.Location = LocationConfig{Enabled: true, Latitude: 91}
	assert.ErrorIs(t, badLocation.Validate(), ErrInvalidConfig)
}
