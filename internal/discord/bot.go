// Package discord runs battles in Discord channels. Players start battles
// with text commands and pick their actions with message components.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"pokebattle/internal/arena"
	"pokebattle/internal/game"
	"pokebattle/internal/storage"
)

// DefaultPrefix starts every command.
const DefaultPrefix = "!"

// Commands.
const (
	cmdBattle    = "battle"
	cmdOpponents = "opponents"
	cmdTeam      = "team"
)

// Messenger is the part of *discordgo.Session the bot talks through.
type Messenger interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Bot answers commands and runs the battles they start.
type Bot struct {
	Session Messenger
	Arena   *arena.Service
	Prefix  string
	Log     zerolog.Logger

	mu      sync.Mutex
	seq     uint64
	waiters map[string]*waiter
	closing bool
	battles sync.WaitGroup
}

// Run registers the bot on s, opens the gateway and blocks until ctx is
// done. Battles in flight are cancelled and awaited before it returns.
func (b *Bot) Run(ctx context.Context, s *discordgo.Session) error {
	if b.Session == nil {
		b.Session = s
	}
	s.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent

	removeMsg := s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(ctx, m.Message)
	})
	defer removeMsg()
	removeInt := s.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(i.Interaction)
	})
	defer removeInt()

	if err := s.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	b.Log.Info().Msg("discord bot connected")
	<-ctx.Done()
	b.drain()
	return s.Close()
}

// track registers a battle goroutine. It fails once the bot is draining.
func (b *Bot) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closing {
		return false
	}
	b.battles.Add(1)
	return true
}

// drain stops new battles and waits for the running ones.
func (b *Bot) drain() {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()
	b.battles.Wait()
}

// handleMessage dispatches a command. Battles run on their own goroutine
// so the gateway keeps delivering component clicks.
func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot || ctx.Err() != nil {
		return
	}
	name, args, ok := parseCommand(b.prefix(), m.Content)
	if !ok {
		return
	}
	log := b.Log.With().Str("command", name).Str("user", m.Author.ID).Str("channel", m.ChannelID).Logger()
	log.Debug().Strs("args", args).Msg("command received")

	switch name {
	case cmdBattle:
		if !b.track() {
			log.Debug().Msg("shutting down, battle ignored")
			return
		}
		go func() {
			defer b.battles.Done()
			b.battle(ctx, m.ChannelID, m.Author.ID, args)
		}()
	case cmdOpponents:
		b.say(m.ChannelID, opponentList(b.Arena.Opponents.All()))
	case cmdTeam:
		b.say(m.ChannelID, b.team(ctx, m.Author.ID))
	}
}

// battle plays one battle in a channel: !battle [opponent] [creature...].
func (b *Bot) battle(ctx context.Context, channelID, userID string, args []string) {
	opID, team := battleArgs(args)
	op, err := b.Arena.Opponent(opID)
	if err != nil {
		b.say(channelID, fmt.Sprintf("I don't know an opponent called %q. Try %s%s.", opID, b.prefix(), cmdOpponents))
		return
	}
	if b.Arena.InProgress(ctx, userID) {
		b.say(channelID, "You are already in a battle.")
		return
	}
	b.say(channelID, op.Intro())

	n := &narrator{bot: b, channelID: channelID, opponent: op}
	rec, err := b.Arena.Start(ctx, arena.Request{UserID: userID, OpponentID: op.ID, Team: team},
		&prompter{bot: b, channelID: channelID, userID: userID, narration: n}, n)
	if err != nil {
		b.Log.Info().Err(err).Str("user", userID).Msg("battle not started")
		b.say(channelID, startError(err))
		return
	}
	if s := rewardLine(rec.Rewards); s != "" {
		b.say(channelID, s)
	}
}

func (b *Bot) team(ctx context.Context, userID string) string {
	caps, err := b.Arena.Store.Captures(ctx, userID)
	if err != nil {
		b.Log.Error().Err(err).Str("user", userID).Msg("list captures")
		return "I couldn't load your creatures right now."
	}
	if len(caps) == 0 {
		return "You haven't caught any creatures yet."
	}
	var sb strings.Builder
	sb.WriteString("**Your creatures**\n")
	for i, c := range caps {
		fmt.Fprintf(&sb, "%d. %s (%s) %d HP, moves: %s\n", i+1, c.Name, strings.Join(c.Types, "/"), c.Stats.HP, strings.Join(c.Moves, ", "))
	}
	if bal, err := b.Arena.Store.Balance(ctx, userID); err == nil {
		fmt.Fprintf(&sb, "Coins: %d", bal)
	}
	if badges, err := b.Arena.Store.Badges(ctx, userID); err == nil && len(badges) > 0 {
		fmt.Fprintf(&sb, ", badges: %d", len(badges))
	}
	return sb.String()
}

func (b *Bot) say(channelID, content string) {
	if content == "" {
		return
	}
	if _, err := b.Session.ChannelMessageSend(channelID, content); err != nil {
		b.Log.Warn().Err(err).Str("channel", channelID).Msg("send message")
	}
}

func (b *Bot) prefix() string {
	if b.Prefix == "" {
		return DefaultPrefix
	}
	return b.Prefix
}

// parseCommand splits "!name arg..." into the lower-cased name and its
// arguments.
func parseCommand(prefix, content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// battleArgs reads the opponent ID and team. Team names are separated by
// commas when any are present so names may contain spaces.
func battleArgs(args []string) (string, []string) {
	if len(args) == 0 {
		return arena.RandomOpponent, nil
	}
	rest := strings.Join(args[1:], " ")
	if rest == "" {
		return args[0], nil
	}
	if !strings.Contains(rest, ",") {
		return args[0], args[1:]
	}
	var team []string
	for _, name := range strings.Split(rest, ",") {
		if name = strings.TrimSpace(name); name != "" {
			team = append(team, name)
		}
	}
	return args[0], team
}

func startError(err error) string {
	switch {
	case errors.Is(err, arena.ErrBattleInProgress):
		return "You are already in a battle."
	case errors.Is(err, storage.ErrNoCaptures):
		return "You have no creatures to battle with. Catch some first!"
	case errors.Is(err, storage.ErrInvalidTeam):
		return fmt.Sprintf("That team doesn't work: %v.", err)
	default:
		return "Something went wrong starting the battle."
	}
}

func opponentList(ops []game.Opponent) string {
	if len(ops) == 0 {
		return "There are no opponents to challenge."
	}
	var sb strings.Builder
	sb.WriteString("**Opponents**\n")
	for _, op := range ops {
		fmt.Fprintf(&sb, "`%s` %s", op.ID, op.Name)
		if op.Difficulty != "" {
			fmt.Fprintf(&sb, " [%s]", op.Difficulty)
		}
		if op.Reward.Coins > 0 {
			fmt.Fprintf(&sb, ", %d coins", op.Reward.Coins)
		}
		if op.Reward.Badge > 0 {
			fmt.Fprintf(&sb, ", badge #%d", op.Reward.Badge)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func rewardLine(r arena.Rewards) string {
	var parts []string
	if r.Coins > 0 {
		parts = append(parts, fmt.Sprintf("You earned %d coins (balance %d).", r.Coins, r.Balance))
	}
	if r.NewBadge {
		parts = append(parts, fmt.Sprintf("You received badge #%d!", r.Badge))
	}
	return strings.Join(parts, " ")
}
