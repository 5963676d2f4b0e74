// Package config loads server settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"pokebattle/internal/game"
)

// Config holds every setting the server reads at start-up.
type Config struct {
	Addr      string `env:"POKEBATTLE_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	DiscordToken  string `env:"DISCORD_TOKEN"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	// DatabaseURL selects Postgres; when empty SQLitePath is used.
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"pokebattle.db"`

	MovesPath     string `env:"MOVES_PATH" envDefault:"data/moves.yaml"`
	DexPath       string `env:"DEX_PATH" envDefault:"data/pokedex.yaml"`
	OpponentsPath string `env:"OPPONENTS_PATH" envDefault:"data/opponents.yaml"`

	ActionTimeout time.Duration `env:"ACTION_TIMEOUT" envDefault:"20s"`
	CritChance    int           `env:"CRIT_CHANCE" envDefault:"16"`
	MaxTurns      int           `env:"MAX_TURNS" envDefault:"1000"`
	TeamSize      int           `env:"TEAM_SIZE" envDefault:"6"`
}

// Load reads the given .env files, in order, and then the process
// environment, which wins over any file. Missing files are skipped.
func Load(files ...string) (Config, error) {
	vars := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}
		maps.Copy(vars, m)
	}
	maps.Copy(vars, env.ToMap(os.Environ()))

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TeamSize <= 0 || cfg.TeamSize > 6 {
		cfg.TeamSize = 6
	}
	return cfg, nil
}

// Rules returns the battle rules with the configured overrides applied.
func (c Config) Rules() game.Rules {
	r := game.DefaultRules()
	if c.ActionTimeout > 0 {
		r.ActionTimeout = c.ActionTimeout
	}
	if c.CritChance > 0 {
		r.CritChance = c.CritChance
	}
	if c.MaxTurns > 0 {
		r.MaxTurns = c.MaxTurns
	}
	return r
}
