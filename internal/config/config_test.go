package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.GRPC.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.GRPC.KeepaliveTime)
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Game.GCDBaseline)
	assert.Equal(t, 1, cfg.Game.DrawPerTurn)
	assert.Equal(t, 6, cfg.Game.StartingHand)
	assert.Empty(t, cfg.Replay.Dir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  grpc:
    address: ":6000"
  websocket:
    allowed_origins: ["https://duel.example"]
logging:
  level: debug
  format: json
game:
  event_retention_turns: 4
replay:
  dir: /var/lib/duel/replays
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.Server.GRPC.Address)
	assert.Equal(t, []string{"https://duel.example"}, cfg.Server.WebSocket.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Game.EventRetentionTurns)
	assert.Equal(t, "/var/lib/duel/replays", cfg.Replay.Dir)
	assert.Equal(t, 3, cfg.Game.GCDBaseline)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DUEL_DATABASE_URL", "postgres://duel@localhost/duel")
	t.Setenv("DUEL_LOGGING_LEVEL", "warn")
	t.Setenv("DUEL_GAME_DRAW_PER_TURN", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://duel@localhost/duel", cfg.Database.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Game.DrawPerTurn)
}

func TestLoadRejectsInvalidRules(t *testing.T) {
	t.Setenv("DUEL_GAME_GCD_BASELINE", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gcd_baseline")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
