package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abgdnv/storesync/pkg/config/configloader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: 8080
  timeout:
    read: 5s
    write: 10s
    idle: 60s
    readHeader: 2s
gateway:
  baseurl: http://localhost:5000/api
  timeout: 10s
circuitbreaker:
  maxrequests: 3
  consecutivefailures: 5
  errorratepercent: 60
  opentimeout: 15s
log:
  level: debug
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o600))
	t.Setenv("STORESYNC_GATEWAY_TOKEN", "secret-token")

	cfg, err := configloader.Load[*Config]("storesync", configloader.Options{ConfigFile: path})

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPServer.Port)
	assert.Equal(t, "http://localhost:5000/api", cfg.Gateway.BaseURL)
	assert.Equal(t, "secret-token", cfg.Gateway.Token)
	assert.Equal(t, 15*time.Second, cfg.CircuitBreaker.OpenTimeout)
	assert.Equal(t, 64, cfg.Notify.QueueSize, "default queue size")
	assert.Equal(t, 5*time.Second, cfg.Shutdown.Timeout, "default shutdown timeout")
	assert.False(t, cfg.Nats.Enabled())
	assert.False(t, cfg.Telemetry.TracingEnabled())
	assert.NotContains(t, cfg.String(), "secret-token")
}

func TestValidate(t *testing.T) {
	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o600))
	t.Setenv("STORESYNC_GATEWAY_BASEURL", "not-a-url")

	_, err := configloader.Load[*Config]("storesync", configloader.Options{ConfigFile: path})

	assert.ErrorContains(t, err, "gateway base URL must be absolute")
}

func TestTailConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
nats:
  url: nats://localhost:4222
  stream: STORESYNC_NOTIFICATIONS
  subject: storesync.notifications
  timeout: 5s
subscriber:
  consumer: tail
  batch: 10
  timeout: 5s
  interval: 1s
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := configloader.Load[*TailConfig]("storesync", configloader.Options{ConfigFile: path})

	require.NoError(t, err)
	assert.Equal(t, "STORESYNC_NOTIFICATIONS", cfg.Nats.Stream)
	assert.Equal(t, 2, cfg.Subscriber.Workers)

	noURL := filepath.Join(dir, "nourl.yaml")
	require.NoError(t, os.WriteFile(noURL, []byte("subscriber:\n  consumer: tail\n"), 0o600))
	_, err = configloader.Load[*TailConfig]("storesync", configloader.Options{ConfigFile: noURL})
	assert.ErrorContains(t, err, "NATS url is not configured")
}
