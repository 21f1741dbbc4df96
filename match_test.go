package main

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// mockBroadcaster captures sent frames for testing
type mockBroadcaster struct {
	mu   sync.Mutex
	json []interface{}
	raw  [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.json = append(m.json, msg)
}

func (m *mockBroadcaster) SendRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = append(m.raw, data)
}

func (m *mockBroadcaster) rawCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.raw)
}

func (m *mockBroadcaster) lastEnvelope(t *testing.T) InEnvelope {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.raw) == 0 {
		t.Fatal("no frames sent")
	}
	var env InEnvelope
	if err := json.Unmarshal(m.raw[len(m.raw)-1], &env); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return env
}

func newTestSession(onFinish func(MatchOutcome)) (*MatchSession, *mockBroadcaster, *mockBroadcaster) {
	red := &mockBroadcaster{}
	blue := &mockBroadcaster{}
	roster := []Roster{
		{PlayerID: "r1", Team: TeamRed, Username: "Ada"},
		{PlayerID: "b1", Team: TeamBlue, Username: "Cal"},
	}
	clients := map[string]Broadcaster{"r1": red, "b1": blue}
	m := NewMatchSession("m1", ConfigForMode(Mode1v1), roster, clients, onFinish)
	return m, red, blue
}

func TestMatchTickBroadcastsState(t *testing.T) {
	m, red, blue := newTestSession(nil)

	if _, over := m.tick(); over {
		t.Fatal("match over on first tick")
	}
	if red.rawCount() != 1 || blue.rawCount() != 1 {
		t.Fatalf("broadcast counts = %d/%d, want 1/1", red.rawCount(), blue.rawCount())
	}
	env := red.lastEnvelope(t)
	if env.T != MsgGameState {
		t.Errorf("frame type = %s, want %s", env.T, MsgGameState)
	}
	var payload GameStateMsg
	if err := json.Unmarshal(env.D, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.State.Status != StatusPlaying {
		t.Errorf("status = %s", payload.State.Status)
	}
	if len(payload.State.Players) != 2 {
		t.Errorf("players = %d", len(payload.State.Players))
	}
}

func TestMatchFrozenInputPersists(t *testing.T) {
	m, _, _ := newTestSession(nil)
	m.inputs["r1"] = PlayerInput{Move: Vec2{1, 0}}

	m.tick()
	x1 := m.state.Players[0].Position.X
	// No new input arrives; the last one keeps applying
	m.tick()
	x2 := m.state.Players[0].Position.X
	if x2 <= x1 {
		t.Errorf("player stopped without fresh input: %f -> %f", x1, x2)
	}
	// isKicking mirrors the frozen input too
	if m.state.Players[0].IsKicking {
		t.Error("isKicking set without a kick input")
	}
}

func TestMatchEndsAtScoreLimit(t *testing.T) {
	var got MatchOutcome
	m, red, _ := newTestSession(func(o MatchOutcome) { got = o })
	m.state.Score.Red = m.cfg.ScoreLimit

	winner, over := m.tick()
	if !over {
		t.Fatal("match should end at score limit")
	}
	if winner != TeamRed {
		t.Errorf("winner = %s, want red", winner)
	}

	m.finish(winner)
	if got.Winner != TeamRed || got.MatchID != "m1" {
		t.Errorf("outcome = %+v", got)
	}
	env := red.lastEnvelope(t)
	if env.T != MsgGameOver {
		t.Errorf("last frame = %s, want %s", env.T, MsgGameOver)
	}
}

func TestMatchEndsWhenClockExpires(t *testing.T) {
	m, red, _ := newTestSession(nil)
	m.state.TimeRemaining = 1e-9
	m.state.Score = Score{Red: 2, Blue: 1}

	winner, over := m.tick()
	if !over {
		t.Fatal("match should end on expiry with a leader")
	}
	if winner != TeamRed {
		t.Errorf("winner = %s, want red", winner)
	}
	// The final state frame carries the whistle
	env := red.lastEnvelope(t)
	var payload GameStateMsg
	json.Unmarshal(env.D, &payload)
	if !hasEvent(payload.Events, EventWhistle) {
		t.Errorf("no whistle in final frame: %v", payload.Events)
	}
}

func TestMatchForfeitOnTeamDisconnect(t *testing.T) {
	var mu sync.Mutex
	var got MatchOutcome
	m, _, _ := newTestSession(func(o MatchOutcome) {
		mu.Lock()
		got = o
		mu.Unlock()
	})

	go m.Run()
	m.HandleLeave("b1")

	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop after forfeit")
	}
	mu.Lock()
	defer mu.Unlock()
	if got.Winner != TeamRed {
		t.Errorf("forfeit winner = %s, want red", got.Winner)
	}
}

func TestMatchDisconnectNeutralizesInput(t *testing.T) {
	roster := []Roster{
		{PlayerID: "r1", Team: TeamRed, Username: "Ada"},
		{PlayerID: "r2", Team: TeamRed, Username: "Bo"},
		{PlayerID: "b1", Team: TeamBlue, Username: "Cal"},
		{PlayerID: "b2", Team: TeamBlue, Username: "Dee"},
	}
	clients := map[string]Broadcaster{}
	for _, r := range roster {
		clients[r.PlayerID] = &mockBroadcaster{}
	}
	m := NewMatchSession("m2", ConfigForMode(Mode2v2), roster, clients, nil)
	m.inputs["b1"] = PlayerInput{Move: Vec2{-1, 0}, Kick: true}
	m.tick()

	// One teammate remains, so no forfeit yet
	if winner, forfeit := m.dropParticipant("b1"); forfeit {
		t.Fatalf("disconnect with a teammate alive forfeited: winner=%s", winner)
	}
	// b1's body stays but its input is neutral from here on
	m.tick()
	for _, p := range m.state.Players {
		if p.ID == "b1" && (p.Input != (PlayerInput{}) || p.IsKicking) {
			t.Errorf("disconnected player still has input: %+v", p.Input)
		}
	}
	// Repeat drop is a no-op
	if _, forfeit := m.dropParticipant("b1"); forfeit {
		t.Error("repeated drop should not forfeit")
	}
	// The last blue leaving hands red the match
	winner, forfeit := m.dropParticipant("b2")
	if !forfeit || winner != TeamRed {
		t.Errorf("full-team disconnect: winner=%s forfeit=%v", winner, forfeit)
	}
}

func TestMatchStopCancelsLoop(t *testing.T) {
	m, _, _ := newTestSession(nil)
	go m.Run()
	m.Stop()
	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
	// Stop is safe to call again
	m.Stop()
}

func TestMatchBroadcastSurvivesDeadRecipient(t *testing.T) {
	m, red, _ := newTestSession(nil)
	m.clients["b1"] = nil // simulates a recipient that is already gone

	m.tick()
	if red.rawCount() != 1 {
		t.Errorf("healthy recipient missed the broadcast: %d", red.rawCount())
	}
}

func TestMatchFinishRunsOnce(t *testing.T) {
	calls := 0
	m, _, _ := newTestSession(func(MatchOutcome) { calls++ })
	m.finish(TeamRed)
	m.finish(TeamBlue)
	if calls != 1 {
		t.Errorf("finish ran %d times, want 1", calls)
	}
}
