// Package narration turns battle events into the lines players read.
package narration

import (
	"fmt"
	"strings"

	"pokebattle/internal/game"
)

// Line renders one event. Events with nothing to say render as "".
func Line(ev game.Event) string {
	switch ev.Kind {
	case game.EventBattleStart:
		return fmt.Sprintf("The battle begins! %s faces %s.", ev.Actor, foe(ev.Target))
	case game.EventAttack:
		return attack(ev)
	case game.EventSwitch:
		if ev.Side == game.SidePlayer {
			return fmt.Sprintf("%s, come back! Go, %s!", ev.Target, ev.Actor)
		}
		return fmt.Sprintf("The opponent withdrew %s and sent out %s!", ev.Target, ev.Actor)
	case game.EventSwitchRejected:
		return "You can't switch to that creature right now."
	case game.EventMoveRejected:
		if ev.Reason == game.ReasonInvalidAction {
			return "That is not a valid choice."
		}
		return fmt.Sprintf("%s doesn't know %s.", ev.Actor, ev.Move)
	case game.EventActionFallback:
		return fmt.Sprintf("%s %s uses %s!", fallbackCause(ev.Reason), ev.Actor, ev.Move)
	case game.EventFaint:
		return fmt.Sprintf("%s fainted!", who(ev.Side, ev.Actor))
	case game.EventSendOut:
		if ev.Side == game.SidePlayer {
			return fmt.Sprintf("Go, %s!", ev.Actor)
		}
		return fmt.Sprintf("The opponent sends out %s!", ev.Actor)
	case game.EventTurnEnd:
		parts := make([]string, 0, len(ev.HP))
		for _, r := range ev.HP {
			parts = append(parts, fmt.Sprintf("%s %d/%d HP", who(r.Side, r.Name), r.HP, r.MaxHP))
		}
		return fmt.Sprintf("End of turn %d: %s.", ev.Turn, strings.Join(parts, ", "))
	case game.EventBattleEnd:
		return ending(ev)
	default:
		return ""
	}
}

// Effectiveness describes a type multiplier, or "" when neutral.
func Effectiveness(mult float64) string {
	switch {
	case mult == 0:
		return "It has no effect..."
	case mult > 1:
		return "It's super effective!"
	case mult < 1:
		return "It's not very effective..."
	default:
		return ""
	}
}

// HPBar draws hp out of maxHP as a bar of width cells.
func HPBar(hp, maxHP, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if maxHP > 0 {
		filled = (max(0, hp)*width + maxHP - 1) / maxHP
	}
	filled = min(filled, width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func attack(ev game.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s used %s!", who(ev.Side, ev.Actor), ev.Move)
	if ev.Damage == nil {
		return b.String()
	}
	if ev.Damage.Critical {
		b.WriteString(" A critical hit!")
	}
	if note := Effectiveness(ev.Damage.Effectiveness); note != "" {
		b.WriteString(" ")
		b.WriteString(note)
	}
	if ev.Damage.Damage > 0 {
		fmt.Fprintf(&b, " %s took %d damage", who(ev.Side.Other(), ev.Target), ev.Damage.Damage)
		if len(ev.HP) > 0 {
			fmt.Fprintf(&b, " (%d/%d HP left)", ev.HP[0].HP, ev.HP[0].MaxHP)
		}
		b.WriteString(".")
	}
	return b.String()
}

func ending(ev game.Event) string {
	won := ev.Winner != nil && *ev.Winner == game.SidePlayer
	switch ev.Reason {
	case game.ReasonForfeit:
		return "You fled the battle. The opponent wins."
	case game.ReasonTurnLimit:
		if won {
			return "The battle dragged on too long. You win on remaining HP!"
		}
		return "The battle dragged on too long. The opponent wins on remaining HP."
	}
	if won {
		return "You won the battle!"
	}
	return "All your creatures fainted. You lost the battle."
}

func fallbackCause(reason string) string {
	switch reason {
	case game.ReasonTimeout:
		return "Time's up!"
	case game.ReasonTooManyChoices:
		return "Too many invalid choices!"
	default:
		return "Something went wrong!"
	}
}

func who(side game.Side, name string) string {
	if side == game.SideOpponent {
		return foe(name)
	}
	return name
}

func foe(name string) string {
	return "Foe " + name
}
