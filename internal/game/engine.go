package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

// Interactor collects the player's choice for a turn. Implementations
// return ErrActionTimeout when the player did not answer and
// ErrActionCancelled when the player left. The context carries the
// engine's deadline for the answer.
type Interactor interface {
	RequestAction(ctx context.Context, snap Snapshot) (Action, error)
}

// InteractorFunc adapts a function to Interactor.
type InteractorFunc func(ctx context.Context, snap Snapshot) (Action, error)

func (f InteractorFunc) RequestAction(ctx context.Context, snap Snapshot) (Action, error) {
	return f(ctx, snap)
}

// Strategy chooses actions for the scripted opponent.
type Strategy interface {
	Choose(rng Rand, snap Snapshot, side Side) Action
}

// RandomMoves picks uniformly among the active creature's known moves and
// never switches.
type RandomMoves struct{}

func (RandomMoves) Choose(rng Rand, snap Snapshot, side Side) Action {
	return Attack(pickMove(rng, snap.Side(side).ActiveMember().Moves))
}

// Matchup is the input of one battle.
type Matchup struct {
	ID           string
	Player       []*Creature
	Opponent     []*Creature
	OpponentName string
}

// Outcome is the definitive result of a battle.
type Outcome struct {
	Winner       Side    `json:"winner"`
	Turns        int     `json:"turns"`
	Forfeit      bool    `json:"forfeit"`
	Reason       string  `json:"reason"`
	OpponentName string  `json:"opponent_name,omitempty"`
	// Phase is the lifecycle state the battle ended in.
	Phase  string  `json:"phase"`
	Events []Event `json:"events"`
	// Final is the state both teams ended in.
	Final Snapshot `json:"final"`
}

// PlayerWon reports whether the player side won.
func (o Outcome) PlayerWon() bool {
	return o.Winner == SidePlayer
}

// Engine runs battles. It holds only read-only configuration, so one Engine
// can run many battles concurrently; each Run owns its own state and
// random source.
type Engine struct {
	Catalog  *Catalog
	Chart    TypeChart
	Rules    Rules
	Strategy Strategy
	// NewRand creates the random source for a battle. Nil uses NewRand.
	NewRand func() Rand
	Log     zerolog.Logger
}

// Battle lifecycle. Events are emitted and actions resolved only while a
// battle is in progress; a finished battle stays finished.
const (
	StateNotStarted = "not_started"
	StateInProgress = "in_progress"
	StateFinished   = "finished"

	lifecycleStart  = "start"
	lifecycleFinish = "finish"
)

func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		StateNotStarted,
		fsm.Events{
			{Name: lifecycleStart, Src: []string{StateNotStarted}, Dst: StateInProgress},
			{Name: lifecycleFinish, Src: []string{StateInProgress}, Dst: StateFinished},
		},
		fsm.Callbacks{},
	)
}

// Run plays a battle to the end. It fails only when a roster is invalid or
// no interactor is given; every other problem is recovered inside the loop.
func (e *Engine) Run(ctx context.Context, m Matchup, in Interactor, sink EventSink) (Outcome, error) {
	state, err := NewState(m.Player, m.Opponent)
	if err != nil {
		return Outcome{}, err
	}
	if in == nil {
		return Outcome{}, errors.New("interactor is required")
	}
	if sink == nil {
		sink = Discard
	}
	strategy := e.Strategy
	if strategy == nil {
		strategy = RandomMoves{}
	}
	newRand := e.NewRand
	if newRand == nil {
		newRand = NewRand
	}
	rng := newRand()
	rules := e.Rules.withDefaults()

	r := &run{
		id:       m.ID,
		opponent: m.OpponentName,
		state:    state,
		rules:    rules,
		rng:      rng,
		calc:     Calculator{Catalog: e.Catalog, Chart: e.Chart, Rules: rules, Rand: rng},
		strategy: strategy,
		in:       in,
		sink:     sink,
		life:     newLifecycle(),
		log:      e.Log.With().Str("battle", m.ID).Str("opponent", m.OpponentName).Logger(),
	}
	return r.play(ctx), nil
}

// run is the mutable state of one battle loop.
type run struct {
	id       string
	opponent string
	state    *State
	rules    Rules
	rng      Rand
	calc     Calculator
	strategy Strategy
	in       Interactor
	sink     EventSink
	life     *fsm.FSM
	log      zerolog.Logger

	turn    int
	events  []Event
	outcome Outcome
}

func (r *run) play(ctx context.Context) Outcome {
	r.transition(lifecycleStart)
	r.log.Debug().
		Str("player", r.state.Active(SidePlayer).Name).
		Str("opponent_active", r.state.Active(SideOpponent).Name).
		Msg("battle started")
	r.emit(ctx, Event{
		Kind:   EventBattleStart,
		Side:   SidePlayer,
		Actor:  r.state.Active(SidePlayer).Name,
		Target: r.state.Active(SideOpponent).Name,
		HP:     r.hpReadings(),
	})

	for {
		r.turn++
		if r.turn > r.rules.MaxTurns {
			r.turn = r.rules.MaxTurns
			return r.finish(ctx, r.leader(), false, ReasonTurnLimit)
		}
		for _, side := range r.order() {
			if r.state.IsKO(side) {
				continue
			}
			finished, err := r.act(ctx, side)
			if errors.Is(err, ErrBattleNotInProgress) {
				r.log.Error().Err(err).Msg("battle loop ran outside its lifecycle")
				return r.outcome
			}
			if err != nil {
				return r.finish(ctx, side.Other(), true, ReasonForfeit)
			}
			if finished {
				return r.finish(ctx, side, false, ReasonTeamDefeated)
			}
		}
		r.emit(ctx, Event{Kind: EventTurnEnd, HP: r.hpReadings()})
	}
}

// order returns the acting order for the turn: higher speed first, the
// player on ties.
func (r *run) order() [2]Side {
	if r.state.Active(SideOpponent).Stats.Speed > r.state.Active(SidePlayer).Stats.Speed {
		return [2]Side{SideOpponent, SidePlayer}
	}
	return [2]Side{SidePlayer, SideOpponent}
}

// act resolves one side's action. It reports whether the battle ended, and
// returns ErrActionCancelled when the acting player left.
func (r *run) act(ctx context.Context, side Side) (bool, error) {
	if !r.life.Is(StateInProgress) {
		return false, fmt.Errorf("%w: %s", ErrBattleNotInProgress, r.life.Current())
	}
	var action Action
	if side == SidePlayer {
		a, err := r.playerAction(ctx)
		if err != nil {
			return false, err
		}
		action = a
	} else {
		action = r.opponentAction(ctx)
	}

	if action.Kind == ActionSwitch {
		from := r.state.Active(side).Name
		if err := r.state.SwitchTo(side, action.Index); err != nil {
			// validated before; keep the battle moving if a strategy lied
			r.log.Warn().Err(err).Stringer("side", side).Msg("switch failed at resolution")
			return r.attack(ctx, side, pickMove(r.rng, r.state.Active(side).Moves)), nil
		}
		r.emit(ctx, Event{
			Kind:   EventSwitch,
			Side:   side,
			Actor:  r.state.Active(side).Name,
			Target: from,
			Index:  action.Index,
		})
		return false, nil
	}
	return r.attack(ctx, side, action.Move), nil
}

// attack resolves an attack by side's active creature and handles a
// resulting faint. It reports whether the defending side was wiped out.
func (r *run) attack(ctx context.Context, side Side, move string) bool {
	defSide := side.Other()
	attacker := r.state.Active(side)
	defender := r.state.Active(defSide)

	res := r.calc.Calculate(attacker, defender, move)
	if !res.Known {
		r.log.Warn().Str("move", move).Str("attacker", attacker.Name).Msg("move missing from catalog, using fallback damage")
	}
	r.state.ApplyDamage(defSide, res.Damage)
	r.emit(ctx, Event{
		Kind:   EventAttack,
		Side:   side,
		Actor:  attacker.Name,
		Target: defender.Name,
		Move:   move,
		Index:  r.state.ActiveIndex(side),
		Damage: &res,
		HP:     []HPReading{r.hpReading(defSide)},
	})

	if !r.state.IsKO(defSide) {
		return false
	}
	r.emit(ctx, Event{
		Kind:  EventFaint,
		Side:  defSide,
		Actor: defender.Name,
		Index: r.state.ActiveIndex(defSide),
	})
	if !r.state.AutoSwitchFirstAlive(defSide) {
		return true
	}
	r.emit(ctx, Event{
		Kind:  EventSendOut,
		Side:  defSide,
		Actor: r.state.Active(defSide).Name,
		Index: r.state.ActiveIndex(defSide),
		HP:    []HPReading{r.hpReading(defSide)},
	})
	return false
}

// playerAction asks the interactor until it gets a legal choice. Timeouts
// and interactor failures fall back to a random known move; cancellation is
// returned as ErrActionCancelled.
func (r *run) playerAction(ctx context.Context) (Action, error) {
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return Action{}, ErrActionCancelled
		}
		action, err := r.request(ctx)
		if err != nil {
			if errors.Is(err, ErrActionCancelled) || ctx.Err() != nil {
				r.log.Info().Err(err).Msg("player cancelled the battle")
				return Action{}, ErrActionCancelled
			}
			reason := ReasonTimeout
			if !errors.Is(err, ErrActionTimeout) {
				reason = ReasonError
			}
			r.log.Warn().Err(err).Str("reason", reason).Msg("no player action, using a random move")
			return r.fallback(ctx, reason), nil
		}

		kind, reason := r.reject(SidePlayer, action)
		if kind == "" {
			return action, nil
		}
		active := r.state.Active(SidePlayer)
		r.emit(ctx, Event{
			Kind:   kind,
			Side:   SidePlayer,
			Actor:  active.Name,
			Move:   action.Move,
			Index:  action.Index,
			Reason: reason,
		})
		if attempt >= r.rules.MaxActionAttempts {
			r.log.Warn().Int("attempts", attempt).Msg("too many rejected choices, using a random move")
			return r.fallback(ctx, ReasonTooManyChoices), nil
		}
	}
}

// request calls the interactor with the engine's deadline. Panics are turned
// into errors so a broken interactor only costs the player a random move.
func (r *run) request(ctx context.Context) (a Action, err error) {
	actx, cancel := context.WithTimeout(ctx, r.rules.ActionTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("interactor panic: %v", p)
		}
	}()

	snap := r.snapshot()
	a, err = r.in.RequestAction(actx, snap)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrActionTimeout, err)
	}
	return a, err
}

// reject validates an action against the current state. It returns the
// rejection event kind, or "" when the action is legal.
func (r *run) reject(side Side, a Action) (EventKind, string) {
	switch a.Kind {
	case ActionSwitch:
		if !r.state.CanSwitchTo(side, a.Index) {
			return EventSwitchRejected, ErrIllegalSwitch.Error()
		}
		return "", ""
	case ActionAttack:
		active := r.state.Active(side)
		if active.Knows(a.Move) {
			return "", ""
		}
		if len(active.Moves) == 0 && Normalize(a.Move) == FallbackMove {
			return "", ""
		}
		return EventMoveRejected, "move not known by " + active.Name
	default:
		return EventMoveRejected, ReasonInvalidAction
	}
}

func (r *run) fallback(ctx context.Context, reason string) Action {
	active := r.state.Active(SidePlayer)
	a := Attack(pickMove(r.rng, active.Moves))
	r.emit(ctx, Event{
		Kind:   EventActionFallback,
		Side:   SidePlayer,
		Actor:  active.Name,
		Move:   a.Move,
		Reason: reason,
	})
	return a
}

func (r *run) opponentAction(ctx context.Context) Action {
	a := r.strategy.Choose(r.rng, r.snapshot(), SideOpponent)
	if kind, reason := r.reject(SideOpponent, a); kind != "" {
		r.log.Warn().Str("kind", string(kind)).Str("reason", reason).Msg("opponent strategy chose an illegal action")
		return Attack(pickMove(r.rng, r.state.Active(SideOpponent).Moves))
	}
	return a
}

// finish emits battle_end and closes the lifecycle. Only the first call
// decides the outcome; later calls return it unchanged.
func (r *run) finish(ctx context.Context, winner Side, forfeit bool, reason string) Outcome {
	if !r.life.Can(lifecycleFinish) {
		return r.outcome
	}
	w := winner
	r.emit(ctx, Event{
		Kind:   EventBattleEnd,
		Side:   winner,
		Winner: &w,
		Reason: reason,
		HP:     r.hpReadings(),
	})
	r.log.Info().
		Stringer("winner", winner).
		Int("turns", r.turn).
		Bool("forfeit", forfeit).
		Str("reason", reason).
		Msg("battle finished")
	r.transition(lifecycleFinish)
	r.outcome = Outcome{
		Winner:       winner,
		Turns:        r.turn,
		Forfeit:      forfeit,
		Reason:       reason,
		OpponentName: r.opponent,
		Phase:        r.life.Current(),
		Events:       r.events,
		Final:        r.snapshot(),
	}
	return r.outcome
}

// leader decides a battle stopped by the turn limit: the side with the
// larger share of its total HP left wins, the player on ties.
func (r *run) leader() Side {
	share := func(side Side) float64 {
		var cur, total int
		for i := range r.state.rosters[side] {
			cur += r.state.HPAt(side, i)
			total += r.state.MaxHP(side, i)
		}
		if total == 0 {
			return 0
		}
		return float64(cur) / float64(total)
	}
	if share(SideOpponent) > share(SidePlayer) {
		return SideOpponent
	}
	return SidePlayer
}

// emit records ev and forwards it to the sink. Sink errors and panics are
// logged and dropped, as are events outside the in-progress phase.
func (r *run) emit(ctx context.Context, ev Event) {
	if !r.life.Is(StateInProgress) {
		r.log.Warn().Str("event", string(ev.Kind)).Str("state", r.life.Current()).Msg("event dropped outside the battle")
		return
	}
	ev.Turn = r.turn
	r.events = append(r.events, ev)
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Str("event", string(ev.Kind)).Msg("event sink panicked")
		}
	}()
	if err := r.sink.Emit(context.WithoutCancel(ctx), ev); err != nil {
		r.log.Warn().Err(err).Str("event", string(ev.Kind)).Msg("event sink failed")
	}
}

func (r *run) transition(event string) {
	if err := r.life.Event(context.Background(), event); err != nil {
		r.log.Error().Err(err).Str("event", event).Str("state", r.life.Current()).Msg("lifecycle transition failed")
	}
}

func (r *run) snapshot() Snapshot {
	s := r.state.Snapshot()
	s.BattleID = r.id
	s.Turn = r.turn
	s.Phase = r.life.Current()
	return s
}

func (r *run) hpReading(side Side) HPReading {
	i := r.state.ActiveIndex(side)
	return HPReading{
		Side:  side,
		Name:  r.state.Active(side).Name,
		HP:    r.state.HP(side),
		MaxHP: r.state.MaxHP(side, i),
	}
}

func (r *run) hpReadings() []HPReading {
	return []HPReading{r.hpReading(SidePlayer), r.hpReading(SideOpponent)}
}
