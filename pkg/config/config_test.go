package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 25*time.Second, cfg.Stream.KeepaliveInterval)
	assert.Equal(t, 20, cfg.Leaderboard.Limit)
	assert.Equal(t, 5500*time.Millisecond, cfg.Display.RevealDuration)
	assert.Equal(t, 5*time.Second, cfg.Database.TxTimeout)
	assert.Empty(t, cfg.Display.Tracks)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STREAM_KEEPALIVE_INTERVAL", "10s")
	t.Setenv("DISPLAY_TRACKS", "high_school, higher_secondary")
	t.Setenv("DISPLAY_SERVER_URL", "http://board.local/api/")
	t.Setenv("DB_TX_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Stream.KeepaliveInterval)
	assert.Equal(t, []string{"high_school", "higher_secondary"}, cfg.Display.Tracks)
	assert.Equal(t, "http://board.local/api", cfg.Display.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.Database.TxTimeout)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
