// Package arena runs battles for players: it builds both teams, guards
// against concurrent battles, pays rewards and keeps finished records.
package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pokebattle/internal/game"
	"pokebattle/internal/session"
	"pokebattle/internal/storage"
)

var (
	ErrBattleInProgress = errors.New("a battle is already in progress")
	ErrUnknownOpponent  = errors.New("unknown opponent")
	ErrNoCaptures       = storage.ErrNoCaptures
)

// RandomOpponent as an opponent ID picks any opponent.
const RandomOpponent = "random"

// Request starts one battle.
type Request struct {
	UserID     string
	OpponentID string
	// Team names captures to bring; empty brings the first ones.
	Team []string
}

// Rewards is what a victory paid out.
type Rewards struct {
	Coins    int  `json:"coins"`
	Balance  int  `json:"balance"`
	Badge    int  `json:"badge,omitempty"`
	NewBadge bool `json:"new_badge,omitempty"`
}

// Record is a finished battle.
type Record struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	Opponent   game.Opponent `json:"opponent"`
	Team       []string      `json:"team"`
	Outcome    game.Outcome  `json:"outcome"`
	Rewards    Rewards       `json:"rewards"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Service is shared by every surface. All fields except the optional ones
// must be set.
type Service struct {
	Engine    *game.Engine
	Store     storage.Store
	Dex       *game.Dex
	Opponents *game.Opponents
	// Active maps a user ID to the ID of their battle in flight.
	Active  session.Store[string]
	Records session.Store[Record]

	// Optional.
	TeamSize int
	NewRand  func() game.Rand
	Now      func() time.Time
	Log      zerolog.Logger
}

// Opponent resolves an opponent ID, including RandomOpponent.
func (s *Service) Opponent(id string) (game.Opponent, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, RandomOpponent) {
		if op, ok := s.Opponents.Random("", s.rand()); ok {
			return op, nil
		}
		return game.Opponent{}, ErrUnknownOpponent
	}
	op, ok := s.Opponents.Get(id)
	if !ok {
		return game.Opponent{}, fmt.Errorf("%w: %s", ErrUnknownOpponent, id)
	}
	return op, nil
}

// Start runs a battle to completion and returns its record. Interaction and
// narration go through in and sink.
func (s *Service) Start(ctx context.Context, req Request, in game.Interactor, sink game.EventSink) (Record, error) {
	op, err := s.Opponent(req.OpponentID)
	if err != nil {
		return Record{}, err
	}

	id := s.Records.NewID()
	if err := s.Active.PutIfAbsent(ctx, req.UserID, id); err != nil {
		if errors.Is(err, session.ErrExists) {
			return Record{}, ErrBattleInProgress
		}
		return Record{}, err
	}
	defer func() {
		if err := s.Active.Delete(context.WithoutCancel(ctx), req.UserID); err != nil {
			s.Log.Error().Err(err).Str("user", req.UserID).Msg("release battle slot")
		}
	}()

	team, err := storage.Roster(ctx, s.Store, req.UserID, req.Team, s.TeamSize)
	if err != nil {
		return Record{}, err
	}
	rng := s.rand()
	foes := op.Roster(s.Dex, rng)

	log := s.Log.With().Str("battle", id).Str("user", req.UserID).Str("opponent", op.ID).Logger()
	log.Info().Int("team", len(team)).Int("foes", len(foes)).Msg("battle starting")

	rec := Record{
		ID:        id,
		UserID:    req.UserID,
		Opponent:  op,
		Team:      names(team),
		StartedAt: s.now(),
	}
	out, err := s.Engine.Run(ctx, game.Matchup{
		ID:           id,
		Player:       team,
		Opponent:     foes,
		OpponentName: op.Name,
	}, in, sink)
	if err != nil {
		return Record{}, fmt.Errorf("run battle against %s: %w", op.ID, err)
	}
	rec.Outcome = out
	rec.FinishedAt = s.now()

	if out.PlayerWon() {
		rec.Rewards = s.reward(context.WithoutCancel(ctx), log, req.UserID, op)
	}
	if err := s.Records.Put(context.WithoutCancel(ctx), id, rec); err != nil {
		log.Error().Err(err).Msg("store battle record")
	}
	log.Info().Bool("won", out.PlayerWon()).Int("turns", out.Turns).Int("coins", rec.Rewards.Coins).Msg("battle recorded")
	return rec, nil
}

// reward pays a victory. Failures are logged and leave the reward unpaid.
func (s *Service) reward(ctx context.Context, log zerolog.Logger, userID string, op game.Opponent) Rewards {
	var r Rewards
	if op.Reward.Coins > 0 {
		bal, err := s.Store.AddCoins(ctx, userID, op.Reward.Coins)
		if err != nil {
			log.Warn().Err(err).Int("coins", op.Reward.Coins).Msg("pay coins")
		} else {
			r.Coins = op.Reward.Coins
			r.Balance = bal
		}
	}
	if op.Reward.Badge > 0 {
		fresh, err := s.Store.AwardBadge(ctx, userID, op.Reward.Badge)
		if err != nil {
			log.Warn().Err(err).Int("badge", op.Reward.Badge).Msg("award badge")
		} else {
			r.Badge = op.Reward.Badge
			r.NewBadge = fresh
		}
	}
	return r
}

// Record returns a finished battle by ID.
func (s *Service) Record(ctx context.Context, id string) (Record, bool, error) {
	return s.Records.Get(ctx, id)
}

// InProgress reports whether the user has a battle in flight.
func (s *Service) InProgress(ctx context.Context, userID string) bool {
	_, ok, err := s.Active.Get(ctx, userID)
	return ok && err == nil
}

func (s *Service) rand() game.Rand {
	if s.NewRand != nil {
		return s.NewRand()
	}
	return game.NewRand()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func names(team []*game.Creature) []string {
	out := make([]string, len(team))
	for i, c := range team {
		out[i] = c.Name
	}
	return out
}
