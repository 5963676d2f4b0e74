package game

import "context"

// EventKind names what happened in a battle event.
type EventKind string

const (
	EventBattleStart    EventKind = "battle_start"
	EventAttack         EventKind = "attack"
	EventSwitch         EventKind = "switch"
	EventSwitchRejected EventKind = "switch_rejected"
	EventMoveRejected   EventKind = "move_rejected"
	EventActionFallback EventKind = "action_fallback"
	EventFaint          EventKind = "faint"
	EventSendOut        EventKind = "send_out"
	EventTurnEnd        EventKind = "turn_end"
	EventBattleEnd      EventKind = "battle_end"
)

// Reasons carried by rejection, fallback and end events.
const (
	ReasonTimeout        = "timeout"
	ReasonError          = "error"
	ReasonTooManyChoices = "too_many_invalid_choices"
	ReasonInvalidAction  = "invalid_action"
	ReasonForfeit        = "forfeit"
	ReasonTeamDefeated   = "team_defeated"
	ReasonTurnLimit      = "turn_limit"
)

// Event is one structured narration record. Side is the side the event is
// about: the attacker for attacks, the fainted side for faints.
type Event struct {
	Kind   EventKind     `json:"kind"`
	Turn   int           `json:"turn"`
	Side   Side          `json:"side"`
	Actor  string        `json:"actor,omitempty"`
	Target string        `json:"target,omitempty"`
	Move   string        `json:"move,omitempty"`
	Index  int           `json:"index"`
	Damage *DamageResult `json:"damage,omitempty"`
	HP     []HPReading   `json:"hp,omitempty"`
	Winner *Side         `json:"winner,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// HPReading is the remaining HP of one active creature.
type HPReading struct {
	Side  Side   `json:"side"`
	Name  string `json:"name"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
}

// EventSink receives battle events as they happen. Errors are logged by the
// engine and never affect the battle.
type EventSink interface {
	Emit(ctx context.Context, ev Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, ev Event) error

func (f EventSinkFunc) Emit(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Discard is an EventSink that drops every event.
var Discard EventSink = EventSinkFunc(func(context.Context, Event) error { return nil })

// FanOut forwards each event to every sink and returns the first error.
func FanOut(sinks ...EventSink) EventSink {
	return EventSinkFunc(func(ctx context.Context, ev Event) error {
		var first error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Emit(ctx, ev); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
