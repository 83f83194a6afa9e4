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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFromFile(t *testing.T) {
	path := writeConfig(t, `
backend_url: http://bot:9000
websocket_url: ws://bot:9000/ws/prices
listen_addr: ":3000"
reconnect_delay: 5s
poll_price_interval: 10s
starting_equity: "2500.50"
`)

	cfg, err := FromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://bot:9000", cfg.BackendURL)
	assert.Equal(t, "ws://bot:9000/ws/prices", cfg.WebsocketURL)
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 10*time.Second, cfg.PollPriceInterval)
	assert.Equal(t, "2500.5", cfg.StartingEquity.String())
}

func TestFromFileDefaults(t *testing.T) {
	path := writeConfig(t, `backend_url: http://bot:9000`)

	cfg, err := FromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://bot:9000", cfg.BackendURL)
	assert.Equal(t, DefaultWebsocketURL, cfg.WebsocketURL)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultReconnectDelay, cfg.ReconnectDelay)
	assert.Equal(t, DefaultPollPriceInterval, cfg.PollPriceInterval)
	assert.Equal(t, "1000", cfg.StartingEquity.String())
}

func TestFromFileBadEquity(t *testing.T) {
	path := writeConfig(t, `starting_equity: "not-a-number"`)

	_, err := FromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting_equity")
}

func TestFromFileBadDuration(t *testing.T) {
	path := writeConfig(t, `reconnect_delay: "soon"`)

	_, err := FromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconnect_delay")
}

func TestFromFileBadYaml(t *testing.T) {
	path := writeConfig(t, "listen_addr: [unterminated")

	_, err := FromFile(path)
	require.Error(t, err)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
