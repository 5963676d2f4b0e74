package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokebattle/internal/arena"
	"pokebattle/internal/game"
	"pokebattle/internal/session"
	"pokebattle/internal/storage"
	"pokebattle/internal/storage/sqlite"
)

type firstRand struct{}

func (firstRand) IntN(int) int     { return 0 }
func (firstRand) Float64() float64 { return 0.99 }

func testServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	dex := game.NewDex(
		game.Species{Name: "Onix", Types: []string{"rock"}, BaseStats: game.Stats{HP: 200, Attack: 80, Defense: 80, Speed: 70}, Moves: []string{"Tackle"}},
		game.Species{Name: "Magikarp", Types: []string{"water"}, BaseStats: game.Stats{HP: 10, Attack: 10, Defense: 10, Speed: 10}},
	)
	svc := &arena.Service{
		Engine: &game.Engine{
			Catalog: game.NewCatalog(game.Move{Name: "Tackle", Type: game.TypeNormal, Power: 40, Category: game.CategoryPhysical}),
			NewRand: func() game.Rand { return firstRand{} },
			Log:     zerolog.Nop(),
		},
		Store: store,
		Dex:   dex,
		Opponents: game.NewOpponents(
			game.Opponent{ID: "fisher", Name: "Fisher Joe", Team: []string{"Magikarp"}, Reward: game.Reward{Coins: 50}},
		),
		Active:  session.NewMemoryStore[string](),
		Records: session.NewMemoryStore[arena.Record](),
		NewRand: func() game.Rand { return firstRand{} },
		Log:     zerolog.Nop(),
	}

	onix, _ := dex.Spawn("Onix", firstRand{})
	if _, err := store.AddCapture(context.Background(), "ash", storage.NewCapture(onix)); err != nil {
		t.Fatalf("add capture: %v", err)
	}
	return &Server{Arena: svc, Log: zerolog.Nop()}
}

func TestHandleOpponents(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/opponents", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var got []game.Opponent
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "fisher" {
		t.Errorf("Expected [fisher], got %+v", got)
	}
}

func TestHandleBattle_NotFound(t *testing.T) {
	srv := testServer(t)
	for _, path := range []string{"/battles/nope", "/battles/nope/report.pdf"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestHandleBattle_RecordAndReport(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()
	rec, err := srv.Arena.Start(ctx, arena.Request{UserID: "ash", OpponentID: "fisher"},
		game.InteractorFunc(func(context.Context, game.Snapshot) (game.Action, error) {
			return game.Attack("Tackle"), nil
		}), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/battles/"+rec.ID, http.NoBody)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var got arena.Record
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != rec.ID || !got.Outcome.PlayerWon() {
		t.Errorf("Expected won record %s, got %+v", rec.ID, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/battles/"+rec.ID+"/report.pdf", http.NoBody)
	w = httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected Content-Type application/pdf, got %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Error("Expected body to be a PDF")
	}
}

func TestHandleBattleSocket_RejectsBadRequests(t *testing.T) {
	srv := testServer(t)
	if err := srv.Arena.Active.Put(context.Background(), "misty", "b-0"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusBadRequest},
		{"?user=ash&opponent=lance", http.StatusNotFound},
		{"?user=misty&opponent=fisher", http.StatusConflict},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws"+tt.query, http.NoBody)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%q: expected %d, got %d", tt.query, tt.want, rec.Code)
		}
	}
}

func dial(t *testing.T, srv *Server, query string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws"+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

// play answers every prompt with answer and returns the messages read up
// to and including the outcome.
func play(t *testing.T, conn *websocket.Conn, answer func(seq int, snap game.Snapshot) any) []map[string]json.RawMessage {
	t.Helper()
	var msgs []map[string]json.RawMessage
	for {
		var msg map[string]json.RawMessage
		require.NoError(t, conn.ReadJSON(&msg))
		msgs = append(msgs, msg)

		var typ string
		require.NoError(t, json.Unmarshal(msg["type"], &typ))
		switch typ {
		case msgPrompt:
			var snap game.Snapshot
			require.NoError(t, json.Unmarshal(msg["snapshot"], &snap))
			require.NoError(t, conn.WriteJSON(answer(field[int](t, msg, "seq"), snap)))
		case msgOutcome, msgError:
			return msgs
		}
	}
}

func field[T any](t *testing.T, msg map[string]json.RawMessage, key string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg[key], &v))
	return v
}

func TestBattleSocket_PlaysToVictory(t *testing.T) {
	srv := testServer(t)
	conn := dial(t, srv, "?user=ash&opponent=fisher&team=Onix")

	msgs := play(t, conn, func(seq int, snap game.Snapshot) any {
		return clientMessage{Seq: seq, Action: actionAttack, Move: snap.Player.ActiveMember().Moves[0]}
	})

	assert.Equal(t, msgIntro, field[string](t, msgs[0], "type"))
	assert.Equal(t, "Fisher Joe challenges you to a battle!", field[string](t, msgs[0], "text"))

	var sawAttack bool
	for _, m := range msgs {
		if field[string](t, m, "type") != msgEvent {
			continue
		}
		assert.NotEmpty(t, field[string](t, m, "text"))
		if field[game.Event](t, m, "event").Kind == game.EventAttack {
			sawAttack = true
		}
	}
	assert.True(t, sawAttack)

	out := msgs[len(msgs)-1]
	assert.Equal(t, msgOutcome, field[string](t, out, "type"))
	assert.True(t, field[bool](t, out, "won"))
	assert.Equal(t, "Fisher Joe: Well played, you are an excellent trainer!", field[string](t, out, "dialogue"))
	assert.Equal(t, 50, field[arena.Rewards](t, out, "rewards").Coins)

	id := field[string](t, out, "battle_id")
	assert.Equal(t, "/battles/"+id+"/report.pdf", field[string](t, out, "report"))
	_, ok, err := srv.Arena.Record(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBattleSocket_ForfeitAndInvalidActions(t *testing.T) {
	srv := testServer(t)
	conn := dial(t, srv, "?user=ash&opponent=fisher")

	prompts := 0
	msgs := play(t, conn, func(seq int, _ game.Snapshot) any {
		prompts++
		if prompts == 1 {
			return map[string]any{"seq": seq, "action": "dance"}
		}
		// forfeits need no prompt number
		return clientMessage{Action: actionForfeit}
	})

	var rejected bool
	for _, m := range msgs {
		if field[string](t, m, "type") == msgEvent && field[game.Event](t, m, "event").Kind == game.EventMoveRejected {
			rejected = true
		}
	}
	assert.True(t, rejected, "unknown action should be rejected and re-prompted")

	out := msgs[len(msgs)-1]
	assert.False(t, field[bool](t, out, "won"))
	assert.True(t, field[bool](t, out, "forfeit"))
	assert.Equal(t, game.ReasonForfeit, field[string](t, out, "reason"))
}

func TestBattleSocket_NoCapturesReportsError(t *testing.T) {
	srv := testServer(t)
	conn := dial(t, srv, "?user=brock&opponent=fisher")

	msgs := play(t, conn, func(int, game.Snapshot) any { return clientMessage{Action: actionForfeit} })
	last := msgs[len(msgs)-1]
	assert.Equal(t, msgError, field[string](t, last, "type"))
	assert.Contains(t, field[string](t, last, "error"), storage.ErrNoCaptures.Error())
}

func TestBattleSocket_DisconnectReleasesUser(t *testing.T) {
	srv := testServer(t)
	conn := dial(t, srv, "?user=ash&opponent=fisher")

	for {
		var msg serverMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgPrompt {
			break
		}
	}
	require.True(t, srv.Arena.InProgress(context.Background(), "ash"))
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return !srv.Arena.InProgress(context.Background(), "ash")
	}, 5*time.Second, 10*time.Millisecond)
}

// testPeer connects a websocket client to a bare peer.
func testPeer(t *testing.T) (*peer, *websocket.Conn) {
	t.Helper()
	peers := make(chan *peer, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := defaultUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		ctx, cancel := context.WithCancel(context.Background())
		p := newPeer(conn, cancel)
		go p.readPump(ctx)
		peers <- p
		<-ctx.Done()
	}))
	t.Cleanup(ts.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return <-peers, conn
}

func TestPeer_LateAnswerDoesNotCarryOver(t *testing.T) {
	p, conn := testPeer(t)

	client := make(chan error, 1)
	go func() {
		var first, second serverMessage
		if err := conn.ReadJSON(&first); err != nil {
			client <- err
			return
		}
		time.Sleep(100 * time.Millisecond)
		if err := conn.WriteJSON(clientMessage{Seq: first.Seq, Action: actionAttack, Move: "Late Move"}); err != nil {
			client <- err
			return
		}
		if err := conn.ReadJSON(&second); err != nil {
			client <- err
			return
		}
		// a duplicate of the stale answer, then the real one
		if err := conn.WriteJSON(clientMessage{Seq: first.Seq, Action: actionAttack, Move: "Late Move"}); err != nil {
			client <- err
			return
		}
		client <- conn.WriteJSON(clientMessage{Seq: second.Seq, Action: actionAttack, Move: "Tackle"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	_, err := p.RequestAction(ctx, game.Snapshot{})
	cancel()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := p.RequestAction(ctx, game.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, game.Attack("Tackle"), a)
	require.NoError(t, <-client)
}

func TestPeer_MalformedMessagesAreDropped(t *testing.T) {
	p, conn := testPeer(t)

	client := make(chan error, 1)
	go func() {
		var prompt serverMessage
		if err := conn.ReadJSON(&prompt); err != nil {
			client <- err
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
			client <- err
			return
		}
		client <- conn.WriteJSON(clientMessage{Seq: prompt.Seq, Action: actionSwitch, Index: 1})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := p.RequestAction(ctx, game.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, game.Switch(1), a)
	require.NoError(t, <-client)
}

func TestToAction(t *testing.T) {
	a, err := toAction(clientMessage{Action: " Attack ", Move: "Tackle"})
	if err != nil || a != game.Attack("Tackle") {
		t.Errorf("Expected attack Tackle, got %+v, %v", a, err)
	}
	a, err = toAction(clientMessage{Action: "switch", Index: 2})
	if err != nil || a != game.Switch(2) {
		t.Errorf("Expected switch 2, got %+v, %v", a, err)
	}
	if _, err := toAction(clientMessage{Action: "forfeit"}); err != game.ErrActionCancelled {
		t.Errorf("Expected ErrActionCancelled, got %v", err)
	}
	if a, _ := toAction(clientMessage{}); a.Kind != 0 {
		t.Errorf("Expected zero action, got %+v", a)
	}
}

func TestSplitTeam(t *testing.T) {
	got := splitTeam(" Onix, ,Pikachu,")
	if len(got) != 2 || got[0] != "Onix" || got[1] != "Pikachu" {
		t.Errorf("Expected [Onix Pikachu], got %v", got)
	}
	if splitTeam("") != nil {
		t.Error("Expected nil for empty team")
	}
}
