package game

import (
	"context"

	"github.com/rs/zerolog"
)

// fixedRand never rolls a critical hit, always picks the first option and
// draws near-maximum variance.
type fixedRand struct{}

func (fixedRand) IntN(int) int     { return 0 }
func (fixedRand) Float64() float64 { return 0.99 }

// critRand always rolls a critical hit with minimum variance.
type critRand struct{}

func (critRand) IntN(int) int     { return 0 }
func (critRand) Float64() float64 { return 0 }

func testCatalog() *Catalog {
	return NewCatalog(
		Move{Name: "Tackle", Type: TypeNormal, Power: 40, Category: CategoryPhysical},
		Move{Name: "Ember", Type: TypeFire, Power: 40, Category: CategorySpecial},
		Move{Name: "Water Gun", Type: TypeWater, Power: 40, Category: CategorySpecial},
		Move{Name: "Vine Whip", Type: TypeGrass, Power: 45, Category: CategoryPhysical},
		Move{Name: "Thunder Shock", Type: TypeElectric, Power: 40, Category: CategorySpecial},
		Move{Name: "Lick", Type: TypeGhost, Power: 30, Category: CategoryPhysical},
	)
}

func testEngine() *Engine {
	return &Engine{
		Catalog: testCatalog(),
		Rules:   DefaultRules(),
		NewRand: func() Rand { return fixedRand{} },
		Log:     zerolog.Nop(),
	}
}

func mon(name string, types []string, hp, speed int, moves ...string) *Creature {
	base := Stats{HP: hp, Attack: 50, Defense: 50, SpecialAttack: 50, SpecialDefense: 50, Speed: speed}
	return NewCreature(name, types, base, Stats{}, moves, "")
}

// firstMove always attacks with the active creature's first move.
var firstMove = InteractorFunc(func(_ context.Context, snap Snapshot) (Action, error) {
	moves := snap.Player.ActiveMember().Moves
	if len(moves) == 0 {
		return Attack(FallbackMove), nil
	}
	return Attack(moves[0]), nil
})

// scripted replays actions in order, then falls back to firstMove.
func scripted(actions ...Action) (Interactor, *int) {
	calls := 0
	return InteractorFunc(func(ctx context.Context, snap Snapshot) (Action, error) {
		calls++
		if calls <= len(actions) {
			return actions[calls-1], nil
		}
		return firstMove(ctx, snap)
	}), &calls
}

func eventsOfTurn(events []Event, turn int) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Turn == turn {
			out = append(out, ev)
		}
	}
	return out
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}
