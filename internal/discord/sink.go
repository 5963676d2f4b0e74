package discord

import (
	"context"
	"strings"

	"pokebattle/internal/game"
	"pokebattle/internal/narration"
)

// narrator posts battle narration. Lines are batched per turn so a turn
// costs one message.
type narrator struct {
	bot       *Bot
	channelID string
	opponent  game.Opponent
	lines     []string
}

func (n *narrator) Emit(_ context.Context, ev game.Event) error {
	if line := narration.Line(ev); line != "" {
		n.lines = append(n.lines, line)
	}
	if !flushesAfter(ev.Kind) {
		return nil
	}
	if ev.Kind == game.EventBattleEnd {
		if ev.Winner != nil && *ev.Winner == game.SidePlayer {
			n.lines = append(n.lines, n.opponent.Victory())
		} else {
			n.lines = append(n.lines, n.opponent.Defeat())
		}
	}
	return n.flush()
}

func (n *narrator) flush() error {
	if len(n.lines) == 0 {
		return nil
	}
	content := strings.Join(n.lines, "\n")
	n.lines = n.lines[:0]
	_, err := n.bot.Session.ChannelMessageSend(n.channelID, content)
	return err
}

// flushesAfter reports whether the player should see the narration so far
// before the battle goes on.
func flushesAfter(kind game.EventKind) bool {
	switch kind {
	case game.EventBattleStart, game.EventTurnEnd, game.EventBattleEnd,
		game.EventMoveRejected, game.EventSwitchRejected:
		return true
	default:
		return false
	}
}
