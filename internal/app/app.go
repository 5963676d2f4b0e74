// Package app builds the battle services from configuration. Both the
// server and the admin commands start from New.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"pokebattle/internal/arena"
	"pokebattle/internal/config"
	"pokebattle/internal/game"
	"pokebattle/internal/session"
	"pokebattle/internal/storage"
	"pokebattle/internal/storage/postgres"
	"pokebattle/internal/storage/sqlite"
)

// maxRecords bounds the finished battles kept for reports.
const maxRecords = 1000

// ErrUnknownSpecies is returned when granting a species the dex lacks.
var ErrUnknownSpecies = errors.New("unknown species")

// App holds the loaded data and the services built on it.
type App struct {
	Log   zerolog.Logger
	Store storage.Store
	Dex   *game.Dex
	Arena *arena.Service
}

// New loads the YAML data, opens the store and builds the arena.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	catalog, err := game.LoadCatalog(cfg.MovesPath)
	if err != nil {
		return nil, err
	}
	dex, err := game.LoadDex(cfg.DexPath)
	if err != nil {
		return nil, err
	}
	opponents, err := game.LoadOpponents(cfg.OpponentsPath)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("moves", catalog.Len()).
		Int("species", dex.Len()).
		Int("opponents", len(opponents.All())).
		Msg("game data loaded")
	checkData(log, catalog, dex, opponents)

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		Log:   log,
		Store: store,
		Dex:   dex,
		Arena: &arena.Service{
			Engine: &game.Engine{
				Catalog:  catalog,
				Chart:    game.DefaultTypeChart(),
				Rules:    cfg.Rules(),
				Strategy: game.RandomMoves{},
				Log:      log.With().Str("component", "engine").Logger(),
			},
			Store:     store,
			Dex:       dex,
			Opponents: opponents,
			Active:    session.NewMemoryStore[string](),
			Records:   session.NewBoundedMemoryStore[arena.Record](maxRecords),
			TeamSize:  cfg.TeamSize,
			Log:       log.With().Str("component", "arena").Logger(),
		},
	}, nil
}

// OpenStore opens Postgres when a database URL is configured and SQLite
// otherwise.
func OpenStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.DatabaseURL != "" {
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	}
	s, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %s: %w", cfg.SQLitePath, err)
	}
	return s, nil
}

// Grant gives a player a freshly rolled creature of the named species.
func (a *App) Grant(ctx context.Context, userID, species string, rng game.Rand) (storage.Capture, error) {
	c, ok := a.Dex.Spawn(species, rng)
	if !ok {
		return storage.Capture{}, fmt.Errorf("%w: %s", ErrUnknownSpecies, species)
	}
	return a.Store.AddCapture(ctx, userID, storage.NewCapture(c))
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// checkData warns about references the battle code will skip at run time.
func checkData(log zerolog.Logger, catalog *game.Catalog, dex *game.Dex, opponents *game.Opponents) {
	for _, name := range dex.Names() {
		sp, _ := dex.Lookup(name)
		for _, mv := range sp.Moves {
			if _, ok := catalog.Lookup(mv); !ok {
				log.Warn().Str("species", name).Str("move", mv).Msg("move missing from catalog")
			}
		}
	}
	for _, op := range opponents.All() {
		if op.IsRandomTeam() {
			continue
		}
		for _, name := range op.Team {
			if _, ok := dex.Lookup(name); !ok {
				log.Warn().Str("opponent", op.ID).Str("species", name).Msg("species missing from dex")
			}
		}
	}
}
