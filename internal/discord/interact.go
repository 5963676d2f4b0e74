package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"pokebattle/internal/game"
	"pokebattle/internal/narration"
)

const (
	idPrefix    = "pb"
	kindMove    = "move"
	kindSwitch  = "switch"
	kindForfeit = "forfeit"

	hpBarWidth     = 10
	buttonsPerRow  = 5
	maxSelectItems = 25
)

// componentID identifies one control of one prompt. Seq changes with
// every prompt so clicks on old prompts are refused.
type componentID struct {
	Battle string
	User   string
	Seq    uint64
	Kind   string
	Arg    int
}

func (c componentID) String() string {
	return strings.Join([]string{idPrefix, c.Battle, c.User, strconv.FormatUint(c.Seq, 10), c.Kind, strconv.Itoa(c.Arg)}, ":")
}

func parseComponentID(s string) (componentID, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 || parts[0] != idPrefix {
		return componentID{}, false
	}
	seq, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return componentID{}, false
	}
	arg, err := strconv.Atoi(parts[5])
	if err != nil {
		return componentID{}, false
	}
	switch parts[4] {
	case kindMove, kindSwitch, kindForfeit:
	default:
		return componentID{}, false
	}
	return componentID{Battle: parts[1], User: parts[2], Seq: seq, Kind: parts[4], Arg: arg}, true
}

// click is a component interaction delivered to a waiting prompt.
type click struct {
	id     componentID
	values []string
}

type waiter struct {
	seq uint64
	ch  chan click
}

// wait registers the next prompt of a battle. Only the latest prompt of a
// battle accepts clicks.
func (b *Bot) wait(battleID string) (uint64, <-chan click) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.waiters == nil {
		b.waiters = make(map[string]*waiter)
	}
	b.seq++
	w := &waiter{seq: b.seq, ch: make(chan click, 1)}
	b.waiters[battleID] = w
	return w.seq, w.ch
}

func (b *Bot) release(battleID string, seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.waiters[battleID]; ok && w.seq == seq {
		delete(b.waiters, battleID)
	}
}

// deliver hands a click to its prompt. It reports false when the prompt is
// gone or already answered.
func (b *Bot) deliver(c click) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.waiters[c.id.Battle]
	if !ok || w.seq != c.id.Seq {
		return false
	}
	delete(b.waiters, c.id.Battle)
	w.ch <- c
	return true
}

// handleInteraction routes a component click to the prompt waiting for it.
func (b *Bot) handleInteraction(i *discordgo.Interaction) {
	if i == nil || i.Type != discordgo.InteractionMessageComponent {
		return
	}
	data := i.MessageComponentData()
	id, ok := parseComponentID(data.CustomID)
	if !ok {
		return
	}
	if interactionUser(i) != id.User {
		b.respond(i, ephemeral("This isn't your battle."))
		return
	}
	if !b.deliver(click{id: id, values: data.Values}) {
		b.respond(i, ephemeral("This prompt has expired."))
		return
	}
	b.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    "Choice received.",
			Components: []discordgo.MessageComponent{},
		},
	})
}

func (b *Bot) respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) {
	if err := b.Session.InteractionRespond(i, resp); err != nil {
		b.Log.Warn().Err(err).Msg("respond to interaction")
	}
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func interactionUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// prompter asks a player for their action with buttons and a select menu.
type prompter struct {
	bot       *Bot
	channelID string
	userID    string
	// narration is flushed before each prompt so the player sees what
	// happened earlier in the turn.
	narration *narrator
}

func (p *prompter) RequestAction(ctx context.Context, snap game.Snapshot) (game.Action, error) {
	if p.narration != nil {
		if err := p.narration.flush(); err != nil {
			p.bot.Log.Warn().Err(err).Str("battle", snap.BattleID).Msg("flush narration")
		}
	}
	seq, ch := p.bot.wait(snap.BattleID)
	defer p.bot.release(snap.BattleID, seq)

	msg := promptMessage(snap, componentID{Battle: snap.BattleID, User: p.userID, Seq: seq})
	if _, err := p.bot.Session.ChannelMessageSendComplex(p.channelID, msg); err != nil {
		return game.Action{}, fmt.Errorf("send prompt: %w", err)
	}

	select {
	case <-ctx.Done():
		return game.Action{}, ctx.Err()
	case c := <-ch:
		return clickAction(c, snap)
	}
}

// clickAction maps a click to an engine action. Out-of-range choices map
// to actions the engine rejects.
func clickAction(c click, snap game.Snapshot) (game.Action, error) {
	switch c.id.Kind {
	case kindMove:
		moves := snap.Player.ActiveMember().Moves
		if c.id.Arg < 0 || c.id.Arg >= len(moves) {
			if len(moves) == 0 {
				return game.Attack(game.FallbackMove), nil
			}
			return game.Attack(""), nil
		}
		return game.Attack(moves[c.id.Arg]), nil
	case kindSwitch:
		if len(c.values) == 0 {
			return game.Switch(-1), nil
		}
		idx, err := strconv.Atoi(c.values[0])
		if err != nil {
			return game.Switch(-1), nil
		}
		return game.Switch(idx), nil
	default:
		return game.Action{}, game.ErrActionCancelled
	}
}

// promptMessage renders the battle state with one button per move, a
// switch menu and a forfeit button.
func promptMessage(snap game.Snapshot, base componentID) *discordgo.MessageSend {
	me := snap.Player.ActiveMember()
	foe := snap.Opponent.ActiveMember()

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Turn %d", snap.Turn),
		Description: fmt.Sprintf("What will %s do?", me.Name),
		Color:       0x3b82f6,
		Fields: []*discordgo.MessageEmbedField{
			hpField("Foe "+foe.Name, foe),
			hpField(me.Name, me),
		},
	}

	var rows []discordgo.MessageComponent
	var buttons []discordgo.MessageComponent
	moves := me.Moves
	if len(moves) == 0 {
		moves = []string{game.FallbackMove}
	}
	for i, name := range moves {
		id := base
		id.Kind, id.Arg = kindMove, i
		buttons = append(buttons, discordgo.Button{Label: name, Style: discordgo.PrimaryButton, CustomID: id.String()})
		if len(buttons) == buttonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: buttons})
			buttons = nil
		}
	}
	if len(buttons) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}

	if targets := snap.Player.SwitchTargets(); len(targets) > 0 {
		opts := make([]discordgo.SelectMenuOption, 0, len(targets))
		for _, m := range targets {
			if len(opts) == maxSelectItems {
				break
			}
			opts = append(opts, discordgo.SelectMenuOption{
				Label: fmt.Sprintf("%s (%d/%d HP)", m.Name, m.HP, m.MaxHP),
				Value: strconv.Itoa(m.Index),
			})
		}
		id := base
		id.Kind = kindSwitch
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    id.String(),
				Placeholder: "Switch creature",
				Options:     opts,
			},
		}})
	}

	id := base
	id.Kind = kindForfeit
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Forfeit", Style: discordgo.DangerButton, CustomID: id.String()},
	}})

	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}, Components: rows}
}

func hpField(title string, m game.Member) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{
		Name:  title,
		Value: fmt.Sprintf("%s %d/%d HP\n%s", narration.HPBar(m.HP, m.MaxHP, hpBarWidth), m.HP, m.MaxHP, strings.Join(m.Types, "/")),
	}
}
