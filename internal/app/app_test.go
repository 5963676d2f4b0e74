package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokebattle/internal/config"
	"pokebattle/internal/game"
)

func writeData(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"moves.yaml": `moves:
  - {name: Tackle, type: normal, power: 40, category: physical}
`,
		"dex.yaml": `species:
  - name: Onix
    types: [rock, ground]
    stats: {hp: 35, attack: 45, defense: 160, special_attack: 30, special_defense: 45, speed: 70}
    moves: [Tackle, Rock Slide]
`,
		"opponents.yaml": `opponents:
  - id: brock
    name: Brock
    team: [Onix, Geodude]
    reward: {coins: 200, badge: 1}
  - id: wanderer
    name: Wandering Trainer
    team: [random]
`,
	}
	for name, content := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600) //nolint:gosec // test file permissions are acceptable
		require.NoError(t, err)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.MovesPath = filepath.Join(dir, "moves.yaml")
	cfg.DexPath = filepath.Join(dir, "dex.yaml")
	cfg.OpponentsPath = filepath.Join(dir, "opponents.yaml")
	cfg.SQLitePath = ":memory:"
	cfg.DatabaseURL = ""
	return cfg
}

func TestNew_WiresServices(t *testing.T) {
	cfg := writeData(t)
	var buf bytes.Buffer
	a, err := New(context.Background(), cfg, zerolog.New(&buf))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, 1, a.Dex.Len())
	assert.Len(t, a.Arena.Opponents.All(), 2)
	assert.Equal(t, cfg.Rules(), a.Arena.Engine.Rules)
	assert.Equal(t, cfg.TeamSize, a.Arena.TeamSize)

	logs := buf.String()
	assert.Contains(t, logs, `"move":"Rock Slide"`)
	assert.Contains(t, logs, `"species":"Geodude"`)
	assert.NotContains(t, logs, `"opponent":"wanderer"`)
}

func TestNew_MissingData(t *testing.T) {
	cfg := writeData(t)
	cfg.DexPath = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestGrant(t *testing.T) {
	cfg := writeData(t)
	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	ctx := context.Background()
	rng := game.NewSeededRand(1)

	first, err := a.Grant(ctx, "ash", "onix", rng)
	require.NoError(t, err)
	assert.Equal(t, "Onix", first.Name)
	second, err := a.Grant(ctx, "ash", "Onix", rng)
	require.NoError(t, err)
	assert.Equal(t, "Onix2", second.Name)

	_, err = a.Grant(ctx, "ash", "Mew", rng)
	assert.ErrorIs(t, err, ErrUnknownSpecies)

	caps, err := a.Store.Captures(ctx, "ash")
	require.NoError(t, err)
	assert.Len(t, caps, 2)
}
