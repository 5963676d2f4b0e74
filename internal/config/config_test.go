package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.Equal(t, "data/moves.yaml", cfg.MovesPath)
	assert.Equal(t, 20*time.Second, cfg.ActionTimeout)
	assert.Equal(t, 6, cfg.TeamSize)

	rules := cfg.Rules()
	assert.Equal(t, 16, rules.CritChance)
	assert.Equal(t, 20*time.Second, rules.ActionTimeout)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "DISCORD_TOKEN=from-file\nMAX_TURNS=50\nACTION_TIMEOUT=45s\nTEAM_SIZE=9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600)) //nolint:gosec // test file permissions are acceptable

	t.Setenv("MAX_TURNS", "75")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.DiscordToken)
	assert.Equal(t, 75, cfg.MaxTurns)
	assert.Equal(t, 45*time.Second, cfg.ActionTimeout)
	assert.Equal(t, 6, cfg.TeamSize)
	assert.Equal(t, 75, cfg.Rules().MaxTurns)

	_, set := os.LookupEnv("DISCORD_TOKEN")
	assert.False(t, set, ".env values must not leak into the process environment")
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("CRIT_CHANCE", "often")

	_, err := Load()
	assert.Error(t, err)
}
