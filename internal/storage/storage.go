// Package storage persists what players own between battles: captured
// creatures, coin balance and badges.
package storage

import (
	"context"
	"errors"
	"fmt"

	"pokebattle/internal/game"
)

var (
	// ErrNoCaptures is returned when a player has nothing to battle with.
	ErrNoCaptures = errors.New("no captured creatures")
	// ErrInvalidTeam rejects a requested team that names unknown or
	// repeated captures, or too many of them.
	ErrInvalidTeam = errors.New("invalid team")
	// ErrNotFound is returned when a named capture does not exist.
	ErrNotFound = errors.New("not found")
)

// MaxTeamSize is the largest roster a player can bring.
const MaxTeamSize = 6

// Capture is one creature a player owns. Stats are the effective stats
// (base plus IVs) fixed at capture time.
type Capture struct {
	Name  string     `json:"name"`
	Types []string   `json:"types"`
	IVs   game.Stats `json:"ivs"`
	Stats game.Stats `json:"stats"`
	Moves []string   `json:"moves"`
	Image string     `json:"image,omitempty"`
}

// NewCapture records a freshly spawned creature.
func NewCapture(c *game.Creature) Capture {
	return Capture{
		Name:  c.Name,
		Types: append([]string(nil), c.Types...),
		IVs:   c.IVs,
		Stats: c.Stats,
		Moves: append([]string(nil), c.Moves...),
		Image: c.Artwork,
	}
}

// Creature rebuilds the battle creature for this capture.
func (c Capture) Creature() *game.Creature {
	return game.NewCreature(c.Name, c.Types, c.Stats.Sub(c.IVs), c.IVs, c.Moves, c.Image)
}

// Store is the persistence collaborator used by the battle service and the
// chat commands.
type Store interface {
	// Captures lists a player's creatures in capture order.
	Captures(ctx context.Context, userID string) ([]Capture, error)
	// AddCapture saves c, renaming it Name2, Name3, ... when the player
	// already owns one with that name. It returns the saved capture.
	AddCapture(ctx context.Context, userID string, c Capture) (Capture, error)
	DeleteCapture(ctx context.Context, userID, name string) error
	Balance(ctx context.Context, userID string) (int, error)
	// AddCoins credits amount and returns the new balance.
	AddCoins(ctx context.Context, userID string, amount int) (int, error)
	// AwardBadge grants a badge once; it reports whether it was new.
	AwardBadge(ctx context.Context, userID string, badge int) (bool, error)
	Badges(ctx context.Context, userID string) ([]int, error)
	Close() error
}

// Roster assembles a battle team. With no names it takes the first size
// captures; otherwise the named captures in the order given.
func Roster(ctx context.Context, s Store, userID string, names []string, size int) ([]*game.Creature, error) {
	if size <= 0 || size > MaxTeamSize {
		size = MaxTeamSize
	}
	caps, err := s.Captures(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(caps) == 0 {
		return nil, ErrNoCaptures
	}

	if len(names) == 0 {
		team := make([]*game.Creature, 0, min(size, len(caps)))
		for _, c := range caps[:min(size, len(caps))] {
			team = append(team, c.Creature())
		}
		return team, nil
	}

	if len(names) > size {
		return nil, fmt.Errorf("%w: at most %d creatures, got %d", ErrInvalidTeam, size, len(names))
	}
	byName := make(map[string]Capture, len(caps))
	for _, c := range caps {
		byName[game.Normalize(c.Name)] = c
	}
	team := make([]*game.Creature, 0, len(names))
	used := make(map[string]bool, len(names))
	for _, n := range names {
		key := game.Normalize(n)
		c, ok := byName[key]
		if !ok {
			return nil, fmt.Errorf("%w: you have no %q", ErrInvalidTeam, n)
		}
		if used[key] {
			return nil, fmt.Errorf("%w: %q listed twice", ErrInvalidTeam, n)
		}
		used[key] = true
		team = append(team, c.Creature())
	}
	return team, nil
}
