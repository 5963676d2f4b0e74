package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"pokebattle/internal/arena"
	"pokebattle/internal/game"
	"pokebattle/internal/narration"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Client actions.
const (
	actionAttack  = "attack"
	actionSwitch  = "switch"
	actionForfeit = "forfeit"
)

// Server message types.
const (
	msgIntro   = "intro"
	msgPrompt  = "prompt"
	msgEvent   = "event"
	msgOutcome = "outcome"
	msgError   = "error"
)

var defaultUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// clientMessage answers the prompt with the same Seq. Forfeits are taken
// whatever their Seq.
type clientMessage struct {
	Seq    int    `json:"seq"`
	Action string `json:"action"`
	Move   string `json:"move,omitempty"`
	Index  int    `json:"index,omitempty"`
}

type serverMessage struct {
	Type     string         `json:"type"`
	Seq      int            `json:"seq,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Event    *game.Event    `json:"event,omitempty"`
	Text     string         `json:"text,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type outcomeMessage struct {
	Type     string        `json:"type"`
	BattleID string        `json:"battle_id"`
	Won      bool          `json:"won"`
	Turns    int           `json:"turns"`
	Forfeit  bool          `json:"forfeit"`
	Reason   string        `json:"reason"`
	Dialogue string        `json:"dialogue"`
	Rewards  arena.Rewards `json:"rewards"`
	Report   string        `json:"report"`
}

// GET /ws?user=&opponent=&team=
func (s *Server) handleBattleSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := strings.TrimSpace(q.Get("user"))
	if user == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}
	op, err := s.Arena.Opponent(q.Get("opponent"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if s.Arena.InProgress(r.Context(), user) {
		http.Error(w, arena.ErrBattleInProgress.Error(), http.StatusConflict)
		return
	}

	up := s.Upgrader
	if up == nil {
		up = &defaultUpgrader
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	p := newPeer(conn, cancel)
	go p.readPump(ctx)

	log := s.Log.With().Str("user", user).Str("opponent", op.ID).Logger()
	if err := p.send(serverMessage{Type: msgIntro, Text: op.Intro()}); err != nil {
		log.Debug().Err(err).Msg("send intro")
		return
	}

	rec, err := s.Arena.Start(ctx, arena.Request{
		UserID:     user,
		OpponentID: op.ID,
		Team:       splitTeam(q.Get("team")),
	}, p, p)
	if err != nil {
		log.Info().Err(err).Msg("battle not started")
		_ = p.send(serverMessage{Type: msgError, Error: err.Error()})
		p.close()
		return
	}

	dialogue := op.Defeat()
	if rec.Outcome.PlayerWon() {
		dialogue = op.Victory()
	}
	out := outcomeMessage{
		Type:     msgOutcome,
		BattleID: rec.ID,
		Won:      rec.Outcome.PlayerWon(),
		Turns:    rec.Outcome.Turns,
		Forfeit:  rec.Outcome.Forfeit,
		Reason:   rec.Outcome.Reason,
		Dialogue: dialogue,
		Rewards:  rec.Rewards,
		Report:   "/battles/" + rec.ID + "/report.pdf",
	}
	if err := p.send(out); err != nil {
		log.Debug().Err(err).Msg("send outcome")
		return
	}
	p.close()
}

// peer is one websocket client playing a battle. The battle goroutine
// writes and owns seq; readPump is the only reader.
type peer struct {
	conn    *websocket.Conn
	actions chan clientMessage
	cancel  context.CancelFunc
	seq     int
}

func newPeer(conn *websocket.Conn, cancel context.CancelFunc) *peer {
	conn.SetReadLimit(maxMessageSize)
	return &peer{conn: conn, actions: make(chan clientMessage, 4), cancel: cancel}
}

// readPump decodes client actions until the connection drops, then cancels
// the battle. Undecodable messages are dropped.
func (p *peer) readPump(ctx context.Context) {
	defer close(p.actions)
	defer p.cancel()
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		select {
		case p.actions <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (p *peer) send(v any) error {
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteJSON(v)
}

func (p *peer) close() {
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = p.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "battle over"))
}

// RequestAction sends a numbered prompt and waits for the client's answer
// to it. Answers to earlier prompts, late or duplicated, are dropped.
func (p *peer) RequestAction(ctx context.Context, snap game.Snapshot) (game.Action, error) {
	p.seq++
	seq := p.seq
	if err := p.send(serverMessage{Type: msgPrompt, Seq: seq, Snapshot: &snap}); err != nil {
		return game.Action{}, game.ErrActionCancelled
	}
	for {
		select {
		case <-ctx.Done():
			return game.Action{}, ctx.Err()
		case msg, ok := <-p.actions:
			if !ok {
				return game.Action{}, game.ErrActionCancelled
			}
			if msg.Seq != seq && !msg.forfeit() {
				continue
			}
			return toAction(msg)
		}
	}
}

// Emit forwards a battle event with its narration.
func (p *peer) Emit(_ context.Context, ev game.Event) error {
	return p.send(serverMessage{Type: msgEvent, Event: &ev, Text: narration.Line(ev)})
}

func (m clientMessage) forfeit() bool {
	return strings.EqualFold(strings.TrimSpace(m.Action), actionForfeit)
}

// toAction maps a client message to an engine action. Unknown actions map
// to the zero Action, which the engine rejects and re-prompts.
func toAction(msg clientMessage) (game.Action, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Action)) {
	case actionAttack:
		return game.Attack(msg.Move), nil
	case actionSwitch:
		return game.Switch(msg.Index), nil
	case actionForfeit:
		return game.Action{}, game.ErrActionCancelled
	default:
		return game.Action{}, nil
	}
}

func splitTeam(raw string) []string {
	var out []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
